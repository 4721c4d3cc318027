package core

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerlink/go-ledgerlink/core/types"
	"github.com/ledgerlink/go-ledgerlink/crypto"
)

// testAccount bundles a keypair with its canonical text identity.
type testAccount struct {
	key *btcec.PrivateKey
	id  string
}

func newAccount(t *testing.T) testAccount {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return testAccount{key: key, id: crypto.EncodePublicKey(key.PubKey())}
}

// transfer builds a signed transaction from one test account to another.
func transfer(from testAccount, to testAccount, nonce, amount uint64) *types.Transaction {
	return types.NewTransaction(nonce, amount, from.id, to.id, from.key)
}

// newChain creates a chain with the allocation and its genesis committed.
func newChain(t *testing.T, alloc GenesisAlloc) *BlockChain {
	t.Helper()
	bc := NewBlockChain(alloc)
	if err := bc.AddBlock(types.Genesis()); err != nil {
		t.Fatalf("install genesis: %v", err)
	}
	return bc
}

// sealBlock builds a valid successor of the current tip carrying txs.
func sealBlock(t *testing.T, bc *BlockChain, txs ...*types.Transaction) *types.Block {
	t.Helper()
	tip := bc.Tip()
	if tip == nil {
		t.Fatalf("sealBlock on a chain without genesis")
	}
	return types.NewBlock(tip.Index+1, tip.Timestamp+1, tip.Hash, txs)
}
