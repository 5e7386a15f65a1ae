package crank

import (
	"testing"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/stretchr/testify/assert"
)

func TestLookupTable_MissingFindsUnknownAddresses(t *testing.T) {
	table := NewLookupTable(chainenc.Pubkey{})
	a := chainenc.Pubkey{1}
	b := chainenc.Pubkey{2}

	assert.ElementsMatch(t, []chainenc.Pubkey{a, b}, table.Missing([]chainenc.Pubkey{a, b}))
}

func TestLookupTable_IndexZeroIsNotTreatedAsMissing(t *testing.T) {
	table := NewLookupTable(chainenc.Pubkey{})
	a := chainenc.Pubkey{1}
	table.recordLocked([]chainenc.Pubkey{a}) // a gets table index 0

	assert.Empty(t, table.Missing([]chainenc.Pubkey{a}))
}

func TestLookupTable_MissingDeduplicates(t *testing.T) {
	table := NewLookupTable(chainenc.Pubkey{})
	a := chainenc.Pubkey{1}

	got := table.Missing([]chainenc.Pubkey{a, a, a})
	assert.Equal(t, []chainenc.Pubkey{a}, got)
}

func TestLookupTable_IndicesAssignSequentially(t *testing.T) {
	table := NewLookupTable(chainenc.Pubkey{})
	a := chainenc.Pubkey{1}
	b := chainenc.Pubkey{2}
	table.recordLocked([]chainenc.Pubkey{a, b})

	indices := table.Indices([]chainenc.Pubkey{a, b})
	assert.Equal(t, []uint8{0, 1}, indices)
}
