package core

import (
	"errors"
	"testing"
)

func TestPoolAdmitAndReplay(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	tx := transfer(a, b, 1, 30)
	if err := pool.Add(tx); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if pool.Len() != 1 || !pool.Has(tx.Hash) {
		t.Fatalf("pool does not hold the admitted transaction")
	}

	// Commit nonce 1; the same nonce is now a replay at admission.
	if err := bc.AddBlock(sealBlock(t, bc, tx)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := pool.Add(transfer(a, b, 1, 5)); !errors.Is(err, ErrAlreadySeen) {
		t.Errorf("replayed nonce: want ErrAlreadySeen, got %v", err)
	}
}

func TestPoolDuplicate(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	tx := transfer(a, b, 1, 30)
	if err := pool.Add(tx); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	if err := pool.Add(tx); !errors.Is(err, ErrAlreadySeen) {
		t.Errorf("duplicate: want ErrAlreadySeen, got %v", err)
	}
	if pool.Len() != 1 {
		t.Errorf("pool holds %d entries, want 1", pool.Len())
	}
}

func TestPoolRejectsInvalid(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	bad := transfer(a, b, 1, 30)
	bad.Signature = transfer(b, a, 1, 30).Signature
	if err := pool.Add(bad); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("want ErrInvalidTransaction, got %v", err)
	}
	if pool.Len() != 0 {
		t.Errorf("invalid transaction entered the pool")
	}
}

// TestPoolNoBalanceCheck confirms admission does not look at balances; the
// mint-time re-check owns that decision.
func TestPoolNoBalanceCheck(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{b.id: 30})
	pool := NewTxPool(bc, 16)

	if err := pool.Add(transfer(b, a, 1, 50)); err != nil {
		t.Errorf("underfunded transaction should be admitted, got %v", err)
	}
}

func TestPoolSupersede(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	first := transfer(a, b, 1, 10)
	second := transfer(a, b, 2, 10)
	replacement := transfer(a, b, 1, 99)

	if err := pool.Add(first); err != nil {
		t.Fatalf("admit first: %v", err)
	}
	if err := pool.Add(second); err != nil {
		t.Fatalf("admit second: %v", err)
	}
	if err := pool.Add(replacement); err != nil {
		t.Fatalf("supersede: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("pool holds %d entries, want 2", pool.Len())
	}
	if pool.Has(first.Hash) || !pool.Has(replacement.Hash) {
		t.Errorf("superseded entry still pending")
	}

	// The replacement keeps the original arrival slot.
	drained := pool.Drain(2)
	if drained[0].Hash != replacement.Hash || drained[1].Hash != second.Hash {
		t.Errorf("drain order %v, want replacement first", []string{drained[0].Hash, drained[1].Hash})
	}
}

func TestPoolBound(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 2)

	if err := pool.Add(transfer(a, b, 1, 1)); err != nil {
		t.Fatalf("admit 1: %v", err)
	}
	if err := pool.Add(transfer(a, b, 2, 1)); err != nil {
		t.Fatalf("admit 2: %v", err)
	}
	if err := pool.Add(transfer(a, b, 3, 1)); !errors.Is(err, ErrPoolFull) {
		t.Errorf("want ErrPoolFull, got %v", err)
	}
	// Superseding still works at capacity.
	if err := pool.Add(transfer(a, b, 2, 7)); err != nil {
		t.Errorf("supersede at capacity: %v", err)
	}
}

func TestPoolEvictCommitted(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	tx1 := transfer(a, b, 1, 10)
	tx2 := transfer(a, b, 2, 10)
	if err := pool.Add(tx1); err != nil {
		t.Fatalf("admit 1: %v", err)
	}
	if err := pool.Add(tx2); err != nil {
		t.Fatalf("admit 2: %v", err)
	}

	if err := bc.AddBlock(sealBlock(t, bc, tx1)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	pool.EvictCommitted()

	if pool.Has(tx1.Hash) {
		t.Errorf("committed transaction still pending")
	}
	if !pool.Has(tx2.Hash) || pool.Len() != 1 {
		t.Errorf("reachable transaction was evicted")
	}
}

func TestPoolDrainRestore(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	bc := newChain(t, GenesisAlloc{a.id: 100})
	pool := NewTxPool(bc, 16)

	txs := []*struct{ nonce uint64 }{{1}, {2}, {3}}
	for _, e := range txs {
		if err := pool.Add(transfer(a, b, e.nonce, 1)); err != nil {
			t.Fatalf("admit %d: %v", e.nonce, err)
		}
	}
	drained := pool.Drain(2)
	if len(drained) != 2 || drained[0].Nonce != 1 || drained[1].Nonce != 2 {
		t.Fatalf("drain returned wrong slice")
	}
	if pool.Len() != 1 {
		t.Fatalf("pool holds %d entries after drain, want 1", pool.Len())
	}
	pool.Restore(drained)
	restored := pool.Drain(3)
	if restored[0].Nonce != 1 || restored[1].Nonce != 2 || restored[2].Nonce != 3 {
		t.Errorf("restore broke the queue order")
	}
}
