package types

import (
	"fmt"
	"strconv"

	"github.com/ledgerlink/go-ledgerlink/crypto"
	"github.com/ledgerlink/go-ledgerlink/params"
)

// Block is an ordered transaction batch. Immutable once appended to a chain:
// Hash commits to the header fields and to every contained transaction hash.
type Block struct {
	Index        uint64         `json:"index"`
	Timestamp    uint64         `json:"timestamp"`
	PrevHash     string         `json:"prev_hash"`
	Hash         string         `json:"hash"`
	Transactions []*Transaction `json:"transactions"`
}

// BlockHash computes the block digest over
// index‖timestamp‖prev_hash‖concat(tx.hash), integers rendered in decimal.
func BlockHash(index, timestamp uint64, prevHash string, txs []*Transaction) string {
	data := strconv.FormatUint(index, 10) + strconv.FormatUint(timestamp, 10) + prevHash
	for _, tx := range txs {
		data += tx.Hash
	}
	return crypto.HashData([]byte(data))
}

// NewBlock builds a block and seals its hash.
func NewBlock(index, timestamp uint64, prevHash string, txs []*Transaction) *Block {
	return &Block{
		Index:        index,
		Timestamp:    timestamp,
		PrevHash:     prevHash,
		Hash:         BlockHash(index, timestamp, prevHash, txs),
		Transactions: txs,
	}
}

// Genesis returns the canonical genesis block. Peers converge on this exact
// block regardless of what an index-0 announcement carried.
func Genesis() *Block {
	return NewBlock(0, 0, params.GenesisPrevHash, nil)
}

// VerifyHash reports whether the carried Hash equals the recomputed digest.
func (b *Block) VerifyHash() bool {
	return b.Hash == BlockHash(b.Index, b.Timestamp, b.PrevHash, b.Transactions)
}

// Verify checks the block digest and every contained transaction. Chain
// linkage and ledger rules (nonce continuity, balances) are the chain's
// concern, not the block's.
func (b *Block) Verify() error {
	if !b.VerifyHash() {
		return ErrBadHash
	}
	for i, tx := range b.Transactions {
		if err := tx.Verify(); err != nil {
			return fmt.Errorf("transaction %d (%s): %w", i, tx.Hash, err)
		}
	}
	return nil
}
