// Package keypair loads ed25519 signing keys from the Solana CLI's JSON
// keypair file format: a 64-element byte array (32-byte seed followed by
// its 32-byte public key), which is exactly Go's ed25519.PrivateKey layout.
package keypair

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/txbuilder"
	"github.com/pkg/errors"
)

// Load reads a Solana CLI-style keypair JSON file at path.
func Load(path string) (txbuilder.Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return txbuilder.Signer{}, errors.Wrapf(err, "read keypair %s", path)
	}

	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return txbuilder.Signer{}, errors.Wrapf(err, "decode keypair %s", path)
	}
	if len(bytes) != ed25519.PrivateKeySize {
		return txbuilder.Signer{}, errors.Errorf("keypair %s: want %d bytes, got %d", path, ed25519.PrivateKeySize, len(bytes))
	}

	priv := ed25519.PrivateKey(bytes)
	pub := priv.Public().(ed25519.PublicKey)
	var pk chainenc.Pubkey
	copy(pk[:], pub)

	return txbuilder.Signer{Pubkey: pk, Private: priv}, nil
}
