package crank

import (
	"context"
	"sync"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
)

// ALTSettleDelay is the single-slot wait after an extension transaction
// before the lookup table may be referenced (spec.md §4.5).
const ALTSettleDelay = 500 * time.Millisecond // approx. one slot at mainnet cadence

// LookupTable tracks the crank-maintained Address Lookup Table: the set of
// addresses it already references, so batches with many account keys can
// build a versioned transaction instead of listing every key verbatim.
type LookupTable struct {
	mu        sync.Mutex
	address   chainenc.Pubkey
	known     map[chainenc.Pubkey]uint8 // address -> table index
	nextIndex uint8
}

// NewLookupTable wraps an already-created on-chain lookup table account.
func NewLookupTable(address chainenc.Pubkey) *LookupTable {
	return &LookupTable{address: address, known: make(map[chainenc.Pubkey]uint8)}
}

// Address returns the table's on-chain account address.
func (t *LookupTable) Address() chainenc.Pubkey { return t.address }

// Missing returns the subset of addrs not yet present in the table, in
// input order, deduplicated.
func (t *LookupTable) Missing(addrs []chainenc.Pubkey) []chainenc.Pubkey {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[chainenc.Pubkey]bool, len(addrs))
	var out []chainenc.Pubkey
	for _, a := range addrs {
		if seen[a] {
			continue
		}
		if _, ok := t.known[a]; ok {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// Indices returns the recorded table index for each of addrs. It does not
// add missing addresses; an address not yet in the table reports index 0.
func (t *LookupTable) Indices(addrs []chainenc.Pubkey) []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uint8, len(addrs))
	for i, a := range addrs {
		out[i] = t.known[a]
	}
	return out
}

func (t *LookupTable) recordLocked(addrs []chainenc.Pubkey) {
	for _, a := range addrs {
		if _, ok := t.known[a]; ok {
			continue
		}
		t.known[a] = t.nextIndex
		t.nextIndex++
	}
}

// ExtendFunc submits one extend-lookup-table instruction for up to
// MaxNewALTAddressesPerExtension addresses.
type ExtendFunc func(ctx context.Context, table chainenc.Pubkey, addrs []chainenc.Pubkey) error

// EnsurePresent extends the table with any addresses from addrs it does not
// yet contain, chunking at MaxNewALTAddressesPerExtension and waiting
// ALTSettleDelay after the final chunk before returning (spec.md §4.5:
// "extending it as new deployers are seen (<= 25 new addresses per
// extension transaction, then a single-slot settle wait)").
func (t *LookupTable) EnsurePresent(ctx context.Context, addrs []chainenc.Pubkey, extend ExtendFunc) error {
	missing := t.Missing(addrs)
	if len(missing) == 0 {
		return nil
	}

	for i := 0; i < len(missing); i += MaxNewALTAddressesPerExtension {
		end := i + MaxNewALTAddressesPerExtension
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[i:end]
		if err := extend(ctx, t.address, chunk); err != nil {
			return err
		}
		t.mu.Lock()
		t.recordLocked(chunk)
		t.mu.Unlock()
	}

	select {
	case <-ctx.Done():
	case <-time.After(ALTSettleDelay):
	}
	return nil
}
