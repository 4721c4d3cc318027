// Package core implements the deterministic ledger state machine: the block
// chain with its derived balance and nonce tables, the orphan pool, the
// pending-transaction mempool and block minting. Every peer must compute the
// same accept/reject decision for the same input, so everything in this
// package is deliberately free of wall-clock or ordering nondeterminism.
package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerlink/go-ledgerlink/core/types"
	"github.com/ledgerlink/go-ledgerlink/log"
)

var (
	ErrAlreadySeen         = errors.New("core: already seen")
	ErrInvalidTransaction  = errors.New("core: invalid transaction")
	ErrInvalidBlock        = errors.New("core: invalid block")
	ErrForkRejected        = errors.New("core: fork rejected")
	ErrInsufficientBalance = errors.New("core: insufficient balance")
	ErrNonceGap            = errors.New("core: nonce gap")
	ErrNoGenesis           = errors.New("core: chain has no genesis block")
	ErrNoTransactions      = errors.New("core: no mintable transactions")
)

// GenesisAlloc pre-seeds account balances. The protocol has no issuance, so
// without an allocation every transfer is unfundable; clusters agree on the
// allocation out of band.
type GenesisAlloc map[string]uint64

// BlockChain is the append-only block sequence plus the state derived from
// it. The node event loop is the sole mutator; the RWMutex only serializes
// concurrent readers (operators, tests) against that single writer.
type BlockChain struct {
	mu       sync.RWMutex
	blocks   []*types.Block
	balances map[string]uint64
	nonces   map[string]uint64
	orphans  map[uint64]*types.Block

	logger log.Logger
}

// NewBlockChain creates an empty chain with the given balance allocation.
// The chain has no blocks until a genesis announcement arrives via AddBlock.
func NewBlockChain(alloc GenesisAlloc) *BlockChain {
	bc := &BlockChain{
		balances: make(map[string]uint64, len(alloc)),
		nonces:   make(map[string]uint64),
		orphans:  make(map[uint64]*types.Block),
		logger:   log.New("module", "chain"),
	}
	for account, balance := range alloc {
		bc.balances[account] = balance
	}
	return bc
}

// Depth returns the number of committed blocks.
func (bc *BlockChain) Depth() uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return uint64(len(bc.blocks))
}

// Tip returns the highest committed block, or nil before genesis.
func (bc *BlockChain) Tip() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip()
}

func (bc *BlockChain) tip() *types.Block {
	if len(bc.blocks) == 0 {
		return nil
	}
	return bc.blocks[len(bc.blocks)-1]
}

// GetBlock returns the committed block at index, or nil.
func (bc *BlockChain) GetBlock(index uint64) *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if index >= uint64(len(bc.blocks)) {
		return nil
	}
	return bc.blocks[index]
}

// Blocks returns a snapshot of the committed chain.
func (bc *BlockChain) Blocks() []*types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	out := make([]*types.Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// Balance returns the committed balance of account; absent accounts hold 0.
func (bc *BlockChain) Balance(account string) uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.balances[account]
}

// Nonce returns the highest committed nonce of account; absent accounts are
// at 0, meaning the next expected nonce is 1.
func (bc *BlockChain) Nonce(account string) uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.nonces[account]
}

// AddBlock validates b against the current tip and commits it atomically.
//
// An index-0 announcement on an empty chain installs the canonical genesis
// regardless of the announcement's other fields. A block further ahead than
// tip+1 is parked in the orphan pool and reported as accepted; it is
// revisited after every successful append. A block at or behind the tip is
// a replay; a block whose prev_hash does not match the tip is a fork.
func (bc *BlockChain) AddBlock(b *types.Block) error {
	if b == nil {
		return ErrInvalidBlock
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tip := bc.tip()
	if tip == nil {
		if b.Index == 0 {
			bc.blocks = append(bc.blocks, types.Genesis())
			bc.sweepOrphans()
			return nil
		}
		// No tip to link against yet; park until genesis arrives.
		bc.orphans[b.Index] = b
		return nil
	}

	switch {
	case b.Index > tip.Index+1:
		bc.orphans[b.Index] = b
		return nil
	case b.Index <= tip.Index:
		return fmt.Errorf("%w: block %d at depth %d", ErrAlreadySeen, b.Index, len(bc.blocks))
	}

	if err := bc.connect(b); err != nil {
		return err
	}
	bc.sweepOrphans()
	return nil
}

// connect links and commits a block at exactly tip+1. Caller holds the lock.
func (bc *BlockChain) connect(b *types.Block) error {
	tip := bc.tip()
	if b.PrevHash != tip.Hash {
		return fmt.Errorf("%w: block %d links %s, tip is %s", ErrForkRejected, b.Index, b.PrevHash, tip.Hash)
	}
	if !b.VerifyHash() {
		return fmt.Errorf("%w: block %d hash mismatch", ErrInvalidBlock, b.Index)
	}
	balances, nonces, err := bc.applyTransactions(b.Transactions)
	if err != nil {
		return err
	}
	bc.balances = balances
	bc.nonces = nonces
	bc.blocks = append(bc.blocks, b)
	return nil
}

// applyTransactions validates and applies txs in order against working copies
// of the balance and nonce tables. Either every transaction applies and the
// copies are returned for an atomic swap, or the first offending transaction
// is reported and no state changes.
func (bc *BlockChain) applyTransactions(txs []*types.Transaction) (map[string]uint64, map[string]uint64, error) {
	balances := make(map[string]uint64, len(bc.balances))
	for account, balance := range bc.balances {
		balances[account] = balance
	}
	nonces := make(map[string]uint64, len(bc.nonces))
	for account, nonce := range bc.nonces {
		nonces[account] = nonce
	}

	for _, tx := range txs {
		if err := tx.Verify(); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalidTransaction, tx.Hash, err)
		}
		if expected := nonces[tx.Sender] + 1; tx.Nonce != expected {
			return nil, nil, fmt.Errorf("%w: %s has nonce %d, expected %d", ErrNonceGap, tx.Hash, tx.Nonce, expected)
		}
		if balances[tx.Sender] < tx.Amount {
			return nil, nil, fmt.Errorf("%w: %s spends %d, sender holds %d", ErrInsufficientBalance, tx.Hash, tx.Amount, balances[tx.Sender])
		}
		balances[tx.Sender] -= tx.Amount
		balances[tx.Receiver] += tx.Amount
		nonces[tx.Sender] = tx.Nonce
	}
	return balances, nonces, nil
}

// sweepOrphans repeatedly promotes the orphan at tip+1 until no progress is
// made. An orphan that fails to connect is discarded; the sender will
// re-announce on its next mint. Caller holds the lock.
func (bc *BlockChain) sweepOrphans() {
	for {
		next, ok := bc.orphans[bc.tip().Index+1]
		if !ok {
			return
		}
		delete(bc.orphans, next.Index)
		if err := bc.connect(next); err != nil {
			bc.logger.Warn("Dropping unconnectable orphan", "index", next.Index, "err", err)
			return
		}
		bc.logger.Debug("Promoted orphan block", "index", next.Index, "txs", len(next.Transactions))
	}
}

// Verify re-validates the entire committed chain: positional indices, block
// digests, per-transaction structure and predecessor linkage. O(total
// transactions).
func (bc *BlockChain) Verify() bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	for i, b := range bc.blocks {
		if b.Index != uint64(i) {
			return false
		}
		if err := b.Verify(); err != nil {
			return false
		}
		if i > 0 && b.PrevHash != bc.blocks[i-1].Hash {
			return false
		}
	}
	return true
}
