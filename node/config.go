package node

import (
	"github.com/ledgerlink/go-ledgerlink/core"
	"github.com/ledgerlink/go-ledgerlink/p2p"
	"github.com/ledgerlink/go-ledgerlink/params"
)

// Config collects everything a node needs to come up. Zero values fall back
// to DefaultConfig; key material has no default and missing keys are a fatal
// configuration error.
type Config struct {
	// KeyPub is the base64 DER SubjectPublicKeyInfo of the local identity.
	KeyPub string

	// KeyPriv is the base64 DER PKCS#8 of the local signing key.
	KeyPriv string

	// ListenAddr is the TCP bind address of the peer transport.
	ListenAddr string

	// Peers is the static neighbor directory.
	Peers []p2p.Peer

	// MintIntervalSec is the period of the mint ticker in seconds.
	MintIntervalSec uint64

	// MaxBlockTxs caps the transactions drained into one minted block.
	MaxBlockTxs int

	// MaxPoolSize bounds the mempool.
	MaxPoolSize int

	// Alloc pre-seeds balances; the protocol itself has no issuance.
	Alloc core.GenesisAlloc
}

// DefaultConfig holds the stock tunables.
var DefaultConfig = Config{
	ListenAddr:      params.DefaultListenAddr,
	MintIntervalSec: params.DefaultMintIntervalSec,
	MaxBlockTxs:     params.DefaultMaxBlockTxs,
	MaxPoolSize:     params.DefaultPoolSize,
}

// withDefaults fills unset tunables from DefaultConfig.
func (cfg Config) withDefaults() Config {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig.ListenAddr
	}
	if cfg.MintIntervalSec == 0 {
		cfg.MintIntervalSec = DefaultConfig.MintIntervalSec
	}
	if cfg.MaxBlockTxs == 0 {
		cfg.MaxBlockTxs = DefaultConfig.MaxBlockTxs
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = DefaultConfig.MaxPoolSize
	}
	return cfg
}
