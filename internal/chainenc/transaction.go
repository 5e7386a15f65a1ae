package chainenc

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
)

// Signature is a 64-byte ed25519 signature.
type Signature [64]byte

// CompiledInstruction references accounts by index into the message's
// account-key table, the wire shape every Solana-style instruction is
// serialized as inside a transaction message.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// MessageHeader carries the signer/readonly counts needed to reconstruct
// account privileges from a flat account-key list.
type MessageHeader struct {
	NumRequiredSignatures      uint8
	NumReadonlySignedAccounts  uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is the signable body of a transaction: account keys, recent
// blockhash, and compiled instructions.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash [32]byte
	Instructions    []CompiledInstruction
}

// CompileMessage flattens a list of instructions into a Message, placing
// the fee payer first, then other signer accounts, then writable
// non-signers, then readonly non-signers -- the canonical Solana account
// ordering every instruction index in the compiled form depends on.
func CompileMessage(feePayer Pubkey, recentBlockhash [32]byte, ixs []Instruction) (*Message, error) {
	type acctFlags struct {
		signer   bool
		writable bool
	}
	order := []Pubkey{feePayer}
	flags := map[Pubkey]*acctFlags{feePayer: {signer: true, writable: true}}

	ensure := func(pk Pubkey, signer, writable bool) {
		f, ok := flags[pk]
		if !ok {
			f = &acctFlags{}
			flags[pk] = f
			order = append(order, pk)
		}
		if signer {
			f.signer = true
		}
		if writable {
			f.writable = true
		}
	}
	for _, ix := range ixs {
		ensure(ix.ProgramID, false, false)
		for _, a := range ix.Accounts {
			ensure(a.Pubkey, a.IsSigner, a.IsWritable)
		}
	}

	// Partition into signer-writable, signer-readonly, nonsigner-writable,
	// nonsigner-readonly while preserving first-seen order within each group.
	var signersW, signersRO, othersW, othersRO []Pubkey
	for _, pk := range order {
		f := flags[pk]
		switch {
		case f.signer && f.writable:
			signersW = append(signersW, pk)
		case f.signer && !f.writable:
			signersRO = append(signersRO, pk)
		case !f.signer && f.writable:
			othersW = append(othersW, pk)
		default:
			othersRO = append(othersRO, pk)
		}
	}

	accountKeys := append(append(append(signersW, signersRO...), othersW...), othersRO...)
	index := make(map[Pubkey]uint8, len(accountKeys))
	for i, pk := range accountKeys {
		index[pk] = uint8(i)
	}

	compiled := make([]CompiledInstruction, 0, len(ixs))
	for _, ix := range ixs {
		idxs := make([]uint8, len(ix.Accounts))
		for i, a := range ix.Accounts {
			idxs[i] = index[a.Pubkey]
		}
		compiled = append(compiled, CompiledInstruction{
			ProgramIDIndex: index[ix.ProgramID],
			AccountIndexes: idxs,
			Data:           ix.Data,
		})
	}

	return &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(signersW) + len(signersRO)),
			NumReadonlySignedAccounts:   uint8(len(signersRO)),
			NumReadonlyUnsignedAccounts: uint8(len(othersRO)),
		},
		AccountKeys:     accountKeys,
		RecentBlockhash: recentBlockhash,
		Instructions:    compiled,
	}, nil
}

// Serialize renders the message in the on-wire legacy transaction format.
func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	buf.Write(EncodeShortU16(len(m.AccountKeys)))
	for _, k := range m.AccountKeys {
		buf.Write(k[:])
	}

	buf.Write(m.RecentBlockhash[:])

	buf.Write(EncodeShortU16(len(m.Instructions)))
	for _, ix := range m.Instructions {
		buf.WriteByte(ix.ProgramIDIndex)
		buf.Write(EncodeShortU16(len(ix.AccountIndexes)))
		buf.Write(ix.AccountIndexes)
		buf.Write(EncodeShortU16(len(ix.Data)))
		buf.Write(ix.Data)
	}
	return buf.Bytes()
}

// Transaction pairs a compiled Message with one signature per required
// signer, in AccountKeys order.
type Transaction struct {
	Signatures []Signature
	Message    *Message
}

// Sign produces a signature for every required-signer account found in
// signers, in message account order, using the stdlib ed25519
// implementation -- there is no third-party ed25519 signer in this stack,
// and crypto/ed25519 is the correct, idiomatic tool for this job.
func (t *Transaction) Sign(signers map[Pubkey]ed25519.PrivateKey) error {
	msgBytes := t.Message.Serialize()
	n := int(t.Message.Header.NumRequiredSignatures)
	sigs := make([]Signature, n)
	for i := 0; i < n; i++ {
		pk := t.Message.AccountKeys[i]
		priv, ok := signers[pk]
		if !ok {
			return fmt.Errorf("missing private key for required signer %s", pk)
		}
		sig := ed25519.Sign(priv, msgBytes)
		copy(sigs[i][:], sig)
	}
	t.Signatures = sigs
	return nil
}

// Serialize renders the full wire transaction: compact signature array
// followed by the serialized message.
func (t *Transaction) Serialize() []byte {
	var buf bytes.Buffer
	buf.Write(EncodeShortU16(len(t.Signatures)))
	for _, s := range t.Signatures {
		buf.Write(s[:])
	}
	buf.Write(t.Message.Serialize())
	return buf.Bytes()
}
