package core

import (
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/ledgerlink/go-ledgerlink/core/types"
)

// ErrPoolFull is returned when the mempool is at capacity and the candidate
// does not supersede an existing entry.
var ErrPoolFull = errors.New("core: transaction pool is full")

// TxPool is the FIFO mempool of admitted-but-uncommitted transactions.
// Admission checks replay and structure only; balances are re-verified at
// mint time because intervening commits may invalidate a previously fundable
// transaction. The node event loop is the sole mutator.
type TxPool struct {
	mu      sync.RWMutex
	chain   *BlockChain
	maxSize int
	pending []*types.Transaction
	known   mapset.Set // hashes of everything currently pending
}

// NewTxPool creates an empty pool bounded at maxSize entries, validating
// admissions against chain.
func NewTxPool(chain *BlockChain, maxSize int) *TxPool {
	return &TxPool{
		chain:   chain,
		maxSize: maxSize,
		known:   mapset.NewSet(),
	}
}

// Add admits tx into the pool.
//
// Replayed nonces (at or below the sender's committed nonce) and exact
// duplicates are rejected with ErrAlreadySeen. A pending transaction with
// the same (sender, nonce) is superseded in place, keeping its arrival slot.
func (p *TxPool) Add(tx *types.Transaction) error {
	if tx == nil {
		return ErrInvalidTransaction
	}
	if committed := p.chain.Nonce(tx.Sender); tx.Nonce <= committed {
		return fmt.Errorf("%w: nonce %d at or below committed %d", ErrAlreadySeen, tx.Nonce, committed)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.known.Contains(tx.Hash) {
		return fmt.Errorf("%w: transaction %s pending", ErrAlreadySeen, tx.Hash)
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	for i, old := range p.pending {
		if old.Sender == tx.Sender && old.Nonce == tx.Nonce {
			p.known.Remove(old.Hash)
			p.known.Add(tx.Hash)
			p.pending[i] = tx
			return nil
		}
	}
	if len(p.pending) >= p.maxSize {
		return ErrPoolFull
	}
	p.pending = append(p.pending, tx)
	p.known.Add(tx.Hash)
	return nil
}

// Drain removes and returns up to n transactions in arrival order.
func (p *TxPool) Drain(n int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.pending) {
		n = len(p.pending)
	}
	out := make([]*types.Transaction, n)
	copy(out, p.pending[:n])
	p.pending = append(p.pending[:0], p.pending[n:]...)
	for _, tx := range out {
		p.known.Remove(tx.Hash)
	}
	return out
}

// Restore puts drained transactions back at the head of the queue, in their
// original order. Used when a minted block unexpectedly fails to commit.
func (p *TxPool) Restore(txs []*types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	restored := make([]*types.Transaction, 0, len(txs)+len(p.pending))
	restored = append(restored, txs...)
	restored = append(restored, p.pending...)
	p.pending = restored
	for _, tx := range txs {
		p.known.Add(tx.Hash)
	}
}

// EvictCommitted drops every pending transaction whose nonce is no longer
// reachable: committed by a block, or superseded by a commit at an equal or
// higher nonce. Called after every successful block import.
func (p *TxPool) EvictCommitted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.pending[:0]
	for _, tx := range p.pending {
		if tx.Nonce <= p.chain.Nonce(tx.Sender) {
			p.known.Remove(tx.Hash)
			continue
		}
		kept = append(kept, tx)
	}
	p.pending = kept
}

// Len returns the number of pending transactions.
func (p *TxPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}

// Has reports whether a transaction with the given hash is pending.
func (p *TxPool) Has(hash string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.known.Contains(hash)
}
