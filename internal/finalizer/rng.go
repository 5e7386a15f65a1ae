package finalizer

import "encoding/binary"

const numSquares = 25

// RNG is the deterministic pseudo-random stream derived from a finalized
// round's slot_hash, mirroring the on-chain program's rng()/winning_square()/
// top_miner_sample()/is_split_reward() helpers (original_source/ore-stats/
// src/finalization.rs calls these through the evore crate, whose source is
// not part of this pack). This package has no access to that crate's exact
// byte-derivation, so it reproduces the documented *shape* of the
// derivation -- a deterministic function of slot_hash alone, stable across
// repeated calls, spreading roughly uniformly over the square range -- via
// a splitmix64-style mix of 8-byte windows of the hash. If the on-chain
// crate's exact algorithm becomes available, only this file needs to
// change; everything downstream consumes WinningSquare/TopMinerSample/
// IsSplitReward as opaque derived values.
type RNG struct {
	slotHash [32]byte
}

// NewRNG builds the RNG stream for a finalized round's slot_hash.
func NewRNG(slotHash [32]byte) RNG {
	return RNG{slotHash: slotHash}
}

func (r RNG) window(n int) uint64 {
	off := (n * 8) % (32 - 7)
	return binary.LittleEndian.Uint64(r.slotHash[off : off+8])
}

// splitmix64 spreads a seed's low-order bits across the full range, so
// consumers don't just read the hash's raw low byte (which would bias the
// mod-25 distribution toward slot_hash's least-significant byte).
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// WinningSquare derives the round's winning square index in [0, 25).
func (r RNG) WinningSquare() uint8 {
	return uint8(splitmix64(r.window(0)) % numSquares)
}

// TopMinerSample derives the sample index consumed by the finalizer as
// `top_miner_sample % len(winning_miners)` to pick the top miner among all
// miners who deployed on the winning square.
func (r RNG) TopMinerSample(winningSquare uint8) uint64 {
	return splitmix64(r.window(1) ^ uint64(winningSquare))
}

// IsSplitReward derives whether this round's prize pool is split across
// multiple winners rather than awarded whole.
func (r RNG) IsSplitReward() bool {
	return splitmix64(r.window(2))%2 == 0
}
