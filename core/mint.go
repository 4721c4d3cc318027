package core

import (
	"sort"

	"github.com/ledgerlink/go-ledgerlink/core/types"
)

// MintBlock drains up to max transactions from pool and commits a new block
// at tip+1 carrying the ones that still apply cleanly.
//
// Drained transactions are re-checked against the committed state: structure
// and signature, nonce contiguity from the sender's committed nonce, and
// balance. Transactions invalidated by intervening commits are dropped
// silently. Same-sender transactions are considered in ascending nonce order
// regardless of their arrival interleaving, so a sender's contiguous run is
// never split by its own out-of-order arrivals.
func (bc *BlockChain) MintBlock(pool *TxPool, timestamp uint64, max int) (*types.Block, error) {
	tip := bc.Tip()
	if tip == nil {
		return nil, ErrNoGenesis
	}
	drained := pool.Drain(max)
	if len(drained) == 0 {
		return nil, ErrNoTransactions
	}

	balances, nonces := bc.stateCopy()
	var accepted []*types.Transaction
	for _, tx := range orderBySenderNonce(drained) {
		if err := tx.Verify(); err != nil {
			bc.logger.Debug("Dropping malformed pending transaction", "hash", tx.Hash, "err", err)
			continue
		}
		if tx.Nonce != nonces[tx.Sender]+1 {
			bc.logger.Debug("Dropping unreachable pending transaction", "hash", tx.Hash, "nonce", tx.Nonce, "expected", nonces[tx.Sender]+1)
			continue
		}
		if balances[tx.Sender] < tx.Amount {
			bc.logger.Debug("Dropping unfunded pending transaction", "hash", tx.Hash, "amount", tx.Amount, "balance", balances[tx.Sender])
			continue
		}
		balances[tx.Sender] -= tx.Amount
		balances[tx.Receiver] += tx.Amount
		nonces[tx.Sender] = tx.Nonce
		accepted = append(accepted, tx)
	}
	if len(accepted) == 0 {
		return nil, ErrNoTransactions
	}

	b := types.NewBlock(tip.Index+1, timestamp, tip.Hash, accepted)
	if err := bc.AddBlock(b); err != nil {
		// Unreachable while the event loop is the sole mutator; restore the
		// drained set rather than lose it.
		pool.Restore(drained)
		return nil, err
	}
	return b, nil
}

// stateCopy snapshots the balance and nonce tables for tentative application.
func (bc *BlockChain) stateCopy() (map[string]uint64, map[string]uint64) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	balances := make(map[string]uint64, len(bc.balances))
	for account, balance := range bc.balances {
		balances[account] = balance
	}
	nonces := make(map[string]uint64, len(bc.nonces))
	for account, nonce := range bc.nonces {
		nonces[account] = nonce
	}
	return balances, nonces
}

// orderBySenderNonce reorders txs so that same-sender entries appear in
// ascending nonce order while the overall arrival interleaving of senders is
// preserved.
func orderBySenderNonce(txs []*types.Transaction) []*types.Transaction {
	bySender := make(map[string][]*types.Transaction)
	for _, tx := range txs {
		bySender[tx.Sender] = append(bySender[tx.Sender], tx)
	}
	for _, queue := range bySender {
		sort.Slice(queue, func(i, j int) bool { return queue[i].Nonce < queue[j].Nonce })
	}
	next := make(map[string]int, len(bySender))
	out := make([]*types.Transaction, 0, len(txs))
	for _, tx := range txs {
		queue := bySender[tx.Sender]
		out = append(out, queue[next[tx.Sender]])
		next[tx.Sender]++
	}
	return out
}
