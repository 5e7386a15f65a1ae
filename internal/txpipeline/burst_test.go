package txpipeline

import (
	"context"
	"testing"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/strategy"
	"github.com/stretchr/testify/assert"
)

type fakeSubmitter struct {
	calls int
}

func (f *fakeSubmitter) Submit(ctx context.Context, tx *chainenc.Transaction) (string, error) {
	f.calls++
	return "sig", nil
}

func countingBuild(calls *int) BuildFunc {
	return func(attempt uint32) (*chainenc.Transaction, error) {
		*calls++
		return &chainenc.Transaction{}, nil
	}
}

func TestBurst_SendsAllCopiesWhenEndSlotNotReached(t *testing.T) {
	built := 0
	sub := &fakeSubmitter{}
	slot := func() uint64 { return 10 }

	results := Burst(context.Background(), "auth", strategy.EV{Attempts: 3}, countingBuild(&built), sub, slot, 100)

	assert.Len(t, results, 3)
	assert.Equal(t, 3, built)
	assert.Equal(t, 3, sub.calls)
}

func TestBurst_StopsEarlyOnceEndSlotReached(t *testing.T) {
	built := 0
	sub := &fakeSubmitter{}
	slot := func() uint64 { return 100 }

	results := Burst(context.Background(), "auth", strategy.EV{Attempts: 5}, countingBuild(&built), sub, slot, 100)

	assert.Len(t, results, 0)
	assert.Equal(t, 0, built)
	assert.Equal(t, 0, sub.calls)
}

func TestBurst_ZeroEndSlotNeverStopsEarly(t *testing.T) {
	// endSlot == 0 is a real "no deadline" sentinel, not a disabled check;
	// callers must never pass 0 for a round with a real end slot.
	built := 0
	sub := &fakeSubmitter{}
	slot := func() uint64 { return 1_000_000 }

	results := Burst(context.Background(), "auth", strategy.EV{Attempts: 2}, countingBuild(&built), sub, slot, 0)

	assert.Len(t, results, 2)
}
