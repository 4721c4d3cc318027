// Package types holds the wire-level data structures of the ledger protocol:
// transactions, blocks and the tagged inner-message envelope payloads.
// All hash preimages are string concatenations of decimal renderings and are
// fixed by the protocol; peers must compute byte-identical digests.
package types

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerlink/go-ledgerlink/crypto"
)

var (
	// ErrBadHash is returned when a recomputed digest does not match the
	// carried hash field.
	ErrBadHash = errors.New("types: hash mismatch")

	// ErrBadSignature is returned when a signature does not verify under the
	// sender's public key.
	ErrBadSignature = errors.New("types: signature mismatch")
)

// Transaction is a signed value transfer. Immutable once constructed: Hash
// commits to all value fields and Signature commits to Hash under the
// sender's key.
type Transaction struct {
	Nonce     uint64 `json:"nonce"`
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// TxHash computes the transaction digest over nonce‖sender‖receiver‖amount,
// with the integers rendered in decimal.
func TxHash(nonce uint64, sender, receiver string, amount uint64) string {
	data := strconv.FormatUint(nonce, 10) + sender + receiver + strconv.FormatUint(amount, 10)
	return crypto.HashData([]byte(data))
}

// NewTransaction builds and signs a transfer of amount from the holder of key
// to receiver. sender must be the canonical text encoding of key's public
// half; the pair is not cross-checked here, an inconsistent pair simply
// produces a transaction that fails verification.
func NewTransaction(nonce, amount uint64, sender, receiver string, key *btcec.PrivateKey) *Transaction {
	hash := TxHash(nonce, sender, receiver, amount)
	return &Transaction{
		Nonce:     nonce,
		Amount:    amount,
		Sender:    sender,
		Receiver:  receiver,
		Hash:      hash,
		Signature: crypto.EncodeSignature(crypto.Sign(hash, key)),
	}
}

// VerifyHash reports whether the carried Hash equals the recomputed digest.
func (tx *Transaction) VerifyHash() bool {
	return tx.Hash == TxHash(tx.Nonce, tx.Sender, tx.Receiver, tx.Amount)
}

// VerifySignature checks the carried Signature over Hash under the sender's
// public key. Undecodable key or signature material counts as a failed
// verification, wrapped for context.
func (tx *Transaction) VerifySignature() error {
	pub, err := crypto.DecodePublicKey(tx.Sender)
	if err != nil {
		return fmt.Errorf("%w: sender: %v", ErrBadSignature, err)
	}
	sig, err := crypto.DecodeSignature(tx.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !crypto.Verify(tx.Hash, sig, pub) {
		return ErrBadSignature
	}
	return nil
}

// Verify runs the full structural check: recomputed hash plus signature.
func (tx *Transaction) Verify() error {
	if !tx.VerifyHash() {
		return ErrBadHash
	}
	return tx.VerifySignature()
}
