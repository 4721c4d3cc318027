// Package node hosts the event loop that owns the ledger. All ledger
// mutation is serialized through one goroutine: inbound peer messages, mint
// ticks and operator submissions are demultiplexed by a single select, so
// block application is trivially atomic and no lock ordering exists between
// the chain and the mempool.
package node

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/ledgerlink/go-ledgerlink/core"
	"github.com/ledgerlink/go-ledgerlink/core/types"
	"github.com/ledgerlink/go-ledgerlink/crypto"
	"github.com/ledgerlink/go-ledgerlink/log"
	"github.com/ledgerlink/go-ledgerlink/p2p"
	"github.com/ledgerlink/go-ledgerlink/params"
)

// ErrStopped is returned by SubmitTransaction after the node has shut down.
var ErrStopped = errors.New("node: stopped")

// Node ties the ledger engine to the peer transport. It is the sole writer
// to chain and pool state.
type Node struct {
	cfg  Config
	key  *btcec.PrivateKey
	self string // canonical public-key text, the node identity

	chain *core.BlockChain
	pool  *core.TxPool
	peers *p2p.PeerSet
	srv   *p2p.Server

	inbound chan []byte
	quit    chan struct{}
	wg      sync.WaitGroup
	seen    *lru.Cache // gossip (type, hash) suppression

	logger log.Logger
}

// New validates cfg and assembles a node. The decoded private key must match
// the configured public identity; a mismatched pair would sign envelopes no
// peer accepts.
func New(cfg Config) (*Node, error) {
	cfg = cfg.withDefaults()

	key, err := crypto.DecodePrivateKey(cfg.KeyPriv)
	if err != nil {
		return nil, fmt.Errorf("node: KEY_PRIV: %w", err)
	}
	pub, err := crypto.DecodePublicKey(cfg.KeyPub)
	if err != nil {
		return nil, fmt.Errorf("node: KEY_PUB: %w", err)
	}
	if !bytes.Equal(key.PubKey().SerializeCompressed(), pub.SerializeCompressed()) {
		return nil, errors.New("node: KEY_PRIV does not match KEY_PUB")
	}
	peers, err := p2p.NewPeerSet(cfg.Peers)
	if err != nil {
		return nil, err
	}

	chain := core.NewBlockChain(cfg.Alloc)
	seen, _ := lru.New(params.SeenCacheSize)

	n := &Node{
		cfg:     cfg,
		key:     key,
		self:    cfg.KeyPub,
		chain:   chain,
		pool:    core.NewTxPool(chain, cfg.MaxPoolSize),
		peers:   peers,
		inbound: make(chan []byte, params.InboundQueue),
		quit:    make(chan struct{}),
		seen:    seen,
		logger:  log.New("module", "node"),
	}
	n.srv = p2p.NewServer(n.self, key, peers, n.inbound)
	return n, nil
}

// Start binds the transport and spawns the event loop.
func (n *Node) Start() error {
	if err := n.srv.Start(n.cfg.ListenAddr); err != nil {
		return err
	}
	n.wg.Add(1)
	go n.loop()
	n.logger.Info("Node started", "peers", n.peers.Len(), "mintInterval", n.cfg.MintIntervalSec)
	return nil
}

// Stop shuts the transport, drains the inbound queue and waits for the loop.
func (n *Node) Stop() {
	n.srv.Stop()
	close(n.quit)
	n.wg.Wait()
}

// Chain exposes the ledger for read access (operators, tests).
func (n *Node) Chain() *core.BlockChain { return n.chain }

// Pool exposes the mempool for read access.
func (n *Node) Pool() *core.TxPool { return n.pool }

// Self returns the node's canonical identity.
func (n *Node) Self() string { return n.self }

// ListenAddr returns the transport bind address, valid after Start.
func (n *Node) ListenAddr() string { return n.srv.ListenAddr() }

// SubmitTransaction enqueues a locally constructed transaction through the
// same inbound path as peer traffic, preserving single-writer ordering.
func (n *Node) SubmitTransaction(tx *types.Transaction) error {
	raw, err := types.EncodeMessage(tx)
	if err != nil {
		return err
	}
	select {
	case n.inbound <- raw:
		return nil
	case <-n.quit:
		return ErrStopped
	}
}

func (n *Node) loop() {
	defer n.wg.Done()
	ticker := time.NewTicker(time.Duration(n.cfg.MintIntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case raw := <-n.inbound:
			n.handleMessage(raw)
		case <-ticker.C:
			n.mint()
		case <-n.quit:
			// The transport is already down; drain what it forwarded.
			for {
				select {
				case raw := <-n.inbound:
					n.handleMessage(raw)
				default:
					return
				}
			}
		}
	}
}

// handleMessage decodes and dispatches one inbound payload. Ledger errors
// are logged and dropped; nothing a peer sends may abort the loop.
func (n *Node) handleMessage(raw []byte) {
	msg, err := types.DecodeMessage(raw)
	if err != nil {
		n.logger.Debug("Dropping undecodable message", "err", err)
		return
	}
	switch m := msg.(type) {
	case *types.Transaction:
		if err := n.pool.Add(m); err != nil {
			n.logger.Debug("Rejected transaction", "hash", m.Hash, "nonce", m.Nonce, "err", err)
			return
		}
		n.logger.Debug("Admitted transaction", "hash", m.Hash, "nonce", m.Nonce, "pooled", n.pool.Len())
		n.gossip(types.MsgTransaction, m.Hash, raw)

	case *types.Block:
		if err := n.chain.AddBlock(m); err != nil {
			n.logger.Debug("Rejected block", "index", m.Index, "hash", m.Hash, "err", err)
			return
		}
		n.pool.EvictCommitted()
		n.logger.Info("Imported block", "index", m.Index, "txs", len(m.Transactions), "depth", n.chain.Depth())
		n.gossip(types.MsgBlock, m.Hash, raw)
	}
}

// mint assembles a block from the mempool on each tick. Every node mints on
// its own timer; losing minters are corrected by ForkRejected at their peers.
func (n *Node) mint() {
	if n.pool.Len() == 0 {
		return
	}
	b, err := n.chain.MintBlock(n.pool, uint64(time.Now().Unix()), n.cfg.MaxBlockTxs)
	if err != nil {
		if errors.Is(err, core.ErrNoTransactions) || errors.Is(err, core.ErrNoGenesis) {
			n.logger.Debug("Mint tick skipped", "err", err)
		} else {
			n.logger.Warn("Mint failed", "err", err)
		}
		return
	}
	n.pool.EvictCommitted()
	n.logger.Info("Minted block", "index", b.Index, "txs", len(b.Transactions))

	raw, err := types.EncodeMessage(b)
	if err != nil {
		n.logger.Error("Minted block marshal failed", "err", err)
		return
	}
	n.seen.Add(types.MsgBlock+"/"+b.Hash, nil)
	n.broadcast(raw)
}

// gossip re-announces an accepted item to the neighbors, suppressing items
// already relayed via the seen-set so broadcast loops die out.
func (n *Node) gossip(kind, hash string, raw []byte) {
	key := kind + "/" + hash
	if ok, _ := n.seen.ContainsOrAdd(key, nil); ok {
		return
	}
	n.broadcast(raw)
}

// broadcast fans the message out without blocking the event loop; the
// goroutine holds only the immutable message bytes.
func (n *Node) broadcast(raw []byte) {
	if n.peers.Len() == 0 {
		return
	}
	go p2p.Broadcast(n.self, n.key, n.peers.Peers(), raw, n.logger)
}
