// Package crank implements the deployer-discovery and autodeploy-batching
// scheduler (spec.md §4.5): it finds every Deployer account granted to this
// crank's keypair, computes required lamports per managed miner, batches
// tuples under a compute-unit budget, and submits through the shared
// txpipeline with a Redis-backed audit log for idempotency.
package crank

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/pkg/errors"
	"github.com/mr-tron/base58"
)

var crankLogger = chainlog.NewModuleLogger("crank")

// deployAuthorityOffset is the byte offset of Deployer.deploy_authority
// within the account layout (after the 32-byte manager_key field).
const deployAuthorityOffset = 32

// deployerCacheSize bounds the in-memory deployer cache (spec.md §4.5
// implies a long-lived scheduler re-scanning on each cycle; caching avoids
// re-decoding unchanged accounts every tick).
const deployerCacheSize = 4096

// Deployer pairs a discovered on-chain Deployer account with its address.
type Deployer struct {
	Address chainenc.Pubkey
	Account chainenc.Deployer
}

// Discoverer finds Deployer accounts granted to this crank's authority.
type Discoverer struct {
	client        *rpcclient.Client
	programID     chainenc.Pubkey
	crankAuthority chainenc.Pubkey
	cache         *lru.Cache
}

// NewDiscoverer builds a Discoverer for programID, scanning for deployers
// whose deploy_authority equals crankAuthority.
func NewDiscoverer(client *rpcclient.Client, programID, crankAuthority chainenc.Pubkey) (*Discoverer, error) {
	cache, err := lru.New(deployerCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "allocate deployer cache")
	}
	return &Discoverer{client: client, programID: programID, crankAuthority: crankAuthority, cache: cache}, nil
}

// Discover performs an indexed getProgramAccounts scan with a memcmp filter
// at the deploy-authority offset, refreshing the in-memory cache (spec.md
// §4.5: "by indexed scan with a memcmp filter at the deploy-authority
// offset").
func (d *Discoverer) Discover(ctx context.Context) ([]Deployer, error) {
	filter := rpcclient.MemcmpFilter{
		Offset: deployAuthorityOffset,
		Bytes:  base58.Encode(d.crankAuthority[:]),
	}
	addrs, datas, err := d.client.GetProgramAccounts(ctx, d.programID.String(), 0, []rpcclient.MemcmpFilter{filter})
	if err != nil {
		return nil, errors.Wrap(err, "getProgramAccounts deployer scan")
	}

	out := make([]Deployer, 0, len(addrs))
	for i, addr := range addrs {
		pk, err := chainenc.ParsePubkey(addr)
		if err != nil {
			crankLogger.Warn("skipping deployer with unparseable address", "addr", addr, "err", err)
			continue
		}
		dep, err := chainenc.DecodeDeployer(datas[i])
		if err != nil {
			crankLogger.Warn("skipping deployer with malformed account data", "addr", addr, "err", err)
			continue
		}
		d.cache.Add(pk, *dep)
		out = append(out, Deployer{Address: pk, Account: *dep})
	}
	return out, nil
}

// Cached returns the last-discovered Deployer for addr, if present.
func (d *Discoverer) Cached(addr chainenc.Pubkey) (chainenc.Deployer, bool) {
	v, ok := d.cache.Get(addr)
	if !ok {
		return chainenc.Deployer{}, false
	}
	return v.(chainenc.Deployer), true
}
