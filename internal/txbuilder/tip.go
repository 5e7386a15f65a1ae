package txbuilder

import (
	"math/rand"

	"github.com/klaytn/boardrush/internal/chainenc"
)

// SystemProgramID is the well-known system program used for lamport
// transfers (tip payments).
var SystemProgramID = mustPubkey("11111111111111111111111111111111")

// ComputeBudgetProgramID is the well-known compute-budget program.
var ComputeBudgetProgramID = mustPubkey("ComputeBudget111111111111111111111111111111")

func mustPubkey(s string) chainenc.Pubkey {
	// The system and compute-budget program IDs are fixed constants of the
	// cluster, not derived; parsing errors here would indicate a typo in
	// this file, not a runtime condition, so this stays a package-init-time
	// panic rather than a returned error.
	pk, err := chainenc.ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// discComputeUnitLimit/Price are the compute-budget program's own
// instruction discriminants (fixed by that program, not ours).
const (
	discComputeUnitLimit byte = 2
	discComputeUnitPrice byte = 3
)

// ComputeUnitLimitInstruction requests a compute-unit ceiling for the
// transaction (spec.md §4.2: prepend a 1.4M CU limit to every deploy build).
func ComputeUnitLimitInstruction(units uint32) chainenc.Instruction {
	data := make([]byte, 5)
	data[0] = discComputeUnitLimit
	putU32(data[1:], units)
	return chainenc.Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// ComputeUnitPriceInstruction requests a priority fee in micro-lamports
// per compute unit.
func ComputeUnitPriceInstruction(microLamports uint64) chainenc.Instruction {
	data := make([]byte, 9)
	data[0] = discComputeUnitPrice
	putU64(data[1:], microLamports)
	return chainenc.Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// discTransfer is the system program's transfer instruction discriminant.
const discTransfer uint32 = 2

// TipTransferInstruction builds a lamport transfer from payer to a tip
// recipient drawn at random from the well-known set, per spec.md §4.2.
func TipTransferInstruction(payer chainenc.Pubkey, tipLamports uint64, recipients []chainenc.Pubkey) chainenc.Instruction {
	recipient := recipients[rand.Intn(len(recipients))]
	data := make([]byte, 12)
	putU32LE(data[0:4], discTransfer)
	putU64(data[4:], tipLamports)
	return chainenc.Instruction{
		ProgramID: SystemProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: recipient, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

func putU32(b []byte, v uint32)   { putU32LE(b, v) }
func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
