// Package txbuilder is the pure function layer that turns deploy/checkpoint/
// claim/autodeploy parameters into signed, ready-to-send transactions
// (spec.md §4.2). It performs no I/O: callers supply the recent blockhash,
// fee, and tip inputs, and get back transaction bytes.
package txbuilder

import (
	"crypto/ed25519"
	"fmt"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/strategy"
)

// ComputeUnitLimit is the fixed CU ceiling every deploy build prepends
// (spec.md §4.2).
const ComputeUnitLimit = 1_400_000

// Fees carries the optional priority fee and tip inputs for a build. Zero
// values mean "omit the corresponding instruction".
type Fees struct {
	PriorityFeeMicroLamports uint64
	TipLamports              uint64
	TipRecipients            []chainenc.Pubkey
}

// Signer bundles a keypair with its public key for building and signing.
type Signer struct {
	Pubkey  chainenc.Pubkey
	Private ed25519.PrivateKey
}

// Accounts groups the account set a deploy/checkpoint/claim instruction
// needs beyond the signer, so callers don't have to re-derive PDAs for
// every build. AuthID/MinerAuthBump are carried alongside MinerAuth because
// every deploy/checkpoint/claim instruction's payload proves the PDA by
// value, not just by account meta (instruction.rs's auth_id/bump fields).
type Accounts struct {
	ProgramID        chainenc.Pubkey
	Manager          chainenc.Pubkey
	AuthID           uint64
	MinerAuthBump    uint8
	AllowMultiDeploy bool
	MinerAuth        chainenc.Pubkey
	BoardAddr        chainenc.Pubkey
	RoundAddr        chainenc.Pubkey
	TreasuryAddr     chainenc.Pubkey
	MinerAddr        chainenc.Pubkey
	TokenAccount     chainenc.Pubkey // associated token account for claim_ore
}

func prefixInstructions(payer chainenc.Pubkey, fees Fees) []chainenc.Instruction {
	ixs := []chainenc.Instruction{ComputeUnitLimitInstruction(ComputeUnitLimit)}
	if fees.PriorityFeeMicroLamports > 0 {
		ixs = append(ixs, ComputeUnitPriceInstruction(fees.PriorityFeeMicroLamports))
	}
	if fees.TipLamports > 0 && len(fees.TipRecipients) > 0 {
		ixs = append(ixs, TipTransferInstruction(payer, fees.TipLamports, fees.TipRecipients))
	}
	return ixs
}

func deployInstruction(acc Accounts, signer chainenc.Pubkey, s strategy.Strategy, attempt uint32) chainenc.Instruction {
	return chainenc.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: signer, IsSigner: true, IsWritable: true},
			{Pubkey: acc.Manager, IsSigner: false, IsWritable: false},
			{Pubkey: acc.MinerAuth, IsSigner: false, IsWritable: true},
			{Pubkey: acc.BoardAddr, IsSigner: false, IsWritable: false},
			{Pubkey: acc.RoundAddr, IsSigner: false, IsWritable: true},
			{Pubkey: acc.MinerAddr, IsSigner: false, IsWritable: true},
		},
		Data: chainenc.EncodeMMDeploy(acc.AuthID, acc.MinerAuthBump, acc.AllowMultiDeploy, s.Encode(attempt)),
	}
}

// BuildDeploy assembles one copy (numbered `attempt`) of a deploy
// transaction for the given strategy, per spec.md §4.2.
func BuildDeploy(signer Signer, acc Accounts, s strategy.Strategy, attempt uint32, recentBlockhash [32]byte, fees Fees) (*chainenc.Transaction, error) {
	ixs := prefixInstructions(signer.Pubkey, fees)
	ixs = append(ixs, deployInstruction(acc, signer.Pubkey, s, attempt))
	return compileAndSign(signer, ixs, recentBlockhash)
}

// BuildCheckpoint assembles a checkpoint transaction. round_id is not part
// of the payload: the program recovers it from acc.RoundAddr, the round
// account already passed in as an account meta.
func BuildCheckpoint(signer Signer, acc Accounts, recentBlockhash [32]byte) (*chainenc.Transaction, error) {
	ix := chainenc.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: signer.Pubkey, IsSigner: true, IsWritable: true},
			{Pubkey: acc.Manager, IsSigner: false, IsWritable: false},
			{Pubkey: acc.MinerAuth, IsSigner: false, IsWritable: true},
			{Pubkey: acc.RoundAddr, IsSigner: false, IsWritable: true},
			{Pubkey: acc.MinerAddr, IsSigner: false, IsWritable: true},
		},
		Data: chainenc.EncodeCheckpoint(acc.AuthID, acc.MinerAuthBump),
	}
	return compileAndSign(signer, []chainenc.Instruction{ix}, recentBlockhash)
}

// BuildClaimSol assembles a claim_sol transaction sweeping accrued SOL
// rewards to the signer.
func BuildClaimSol(signer Signer, acc Accounts, recentBlockhash [32]byte) (*chainenc.Transaction, error) {
	ix := chainenc.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: signer.Pubkey, IsSigner: true, IsWritable: true},
			{Pubkey: acc.MinerAuth, IsSigner: false, IsWritable: true},
			{Pubkey: acc.MinerAddr, IsSigner: false, IsWritable: true},
		},
		Data: chainenc.EncodeClaimSol(acc.AuthID, acc.MinerAuthBump),
	}
	return compileAndSign(signer, []chainenc.Instruction{ix}, recentBlockhash)
}

// BuildClaimOre assembles a claim_ore transaction sweeping accrued ORE
// rewards to the signer's associated token account.
func BuildClaimOre(signer Signer, acc Accounts, recentBlockhash [32]byte) (*chainenc.Transaction, error) {
	ix := chainenc.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: signer.Pubkey, IsSigner: true, IsWritable: true},
			{Pubkey: acc.MinerAuth, IsSigner: false, IsWritable: true},
			{Pubkey: acc.MinerAddr, IsSigner: false, IsWritable: true},
			{Pubkey: acc.TokenAccount, IsSigner: false, IsWritable: true},
		},
		Data: chainenc.EncodeClaimOre(acc.AuthID, acc.MinerAuthBump),
	}
	return compileAndSign(signer, []chainenc.Instruction{ix}, recentBlockhash)
}

// BuildAutodeploy assembles the crank's autodeploy instruction, paid from
// the autodeploy-balance PDA and carrying the expected fee so the program
// rejects fee tampering. deployerBump and autodeployBalanceBump are the PDA
// proofs process_mm_autodeploy.rs re-derives and checks against the
// deployer/autodeploy-balance account metas.
func BuildAutodeploy(crankSigner Signer, acc Accounts, autodeployBalance, deployer chainenc.Pubkey, amount uint64, squaresMask uint32, bpsFee, flatFee uint64, deployerBump, autodeployBalanceBump uint8, recentBlockhash [32]byte, fees Fees) (*chainenc.Transaction, error) {
	ixs := prefixInstructions(crankSigner.Pubkey, fees)
	ixs = append(ixs, chainenc.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []chainenc.AccountMeta{
			{Pubkey: crankSigner.Pubkey, IsSigner: true, IsWritable: true},
			{Pubkey: acc.Manager, IsSigner: false, IsWritable: false},
			{Pubkey: deployer, IsSigner: false, IsWritable: false},
			{Pubkey: acc.MinerAuth, IsSigner: false, IsWritable: true},
			{Pubkey: autodeployBalance, IsSigner: false, IsWritable: true},
			{Pubkey: acc.BoardAddr, IsSigner: false, IsWritable: false},
			{Pubkey: acc.RoundAddr, IsSigner: false, IsWritable: true},
			{Pubkey: acc.MinerAddr, IsSigner: false, IsWritable: true},
		},
		Data: chainenc.EncodeAutodeploy(acc.AuthID, amount, squaresMask, bpsFee, flatFee, deployerBump, autodeployBalanceBump, acc.MinerAuthBump),
	})
	return compileAndSign(crankSigner, ixs, recentBlockhash)
}

func compileAndSign(signer Signer, ixs []chainenc.Instruction, recentBlockhash [32]byte) (*chainenc.Transaction, error) {
	if len(signer.Private) == 0 {
		return nil, fmt.Errorf("builder: missing private key for signer %s", signer.Pubkey)
	}
	msg, err := chainenc.CompileMessage(signer.Pubkey, recentBlockhash, ixs)
	if err != nil {
		return nil, fmt.Errorf("builder: compile message: %w", err)
	}
	tx := &chainenc.Transaction{Message: msg}
	if err := tx.Sign(map[chainenc.Pubkey]ed25519.PrivateKey{signer.Pubkey: signer.Private}); err != nil {
		return nil, fmt.Errorf("builder: sign: %w", err)
	}
	return tx, nil
}
