package finalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_IsDeterministic(t *testing.T) {
	var hash [32]byte
	for i := range hash {
		hash[i] = byte(i * 7)
	}
	a := NewRNG(hash)
	b := NewRNG(hash)

	assert.Equal(t, a.WinningSquare(), b.WinningSquare())
	assert.Equal(t, a.TopMinerSample(a.WinningSquare()), b.TopMinerSample(b.WinningSquare()))
	assert.Equal(t, a.IsSplitReward(), b.IsSplitReward())
}

func TestRNG_WinningSquareInRange(t *testing.T) {
	for seed := byte(0); seed < 255; seed += 17 {
		var hash [32]byte
		for i := range hash {
			hash[i] = seed + byte(i)
		}
		sq := NewRNG(hash).WinningSquare()
		assert.Less(t, int(sq), numSquares)
	}
}

func TestRNG_DifferentHashesTypicallyDiffer(t *testing.T) {
	var h1, h2 [32]byte
	for i := range h1 {
		h1[i] = byte(i)
		h2[i] = byte(i + 1)
	}
	r1, r2 := NewRNG(h1), NewRNG(h2)
	assert.NotEqual(t, r1.TopMinerSample(0), r2.TopMinerSample(0))
}
