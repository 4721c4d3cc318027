// Copyright 2024 The go-ledgerlink Authors
// This file is part of the go-ledgerlink library.
//
// The go-ledgerlink library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ledgerlink library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ledgerlink library. If not, see <http://www.gnu.org/licenses/>.

package params

import "time"

const (
	// GenesisPrevHash is the prev_hash carried by the genesis block. Every
	// node must construct a byte-identical genesis, so the literal is fixed
	// by the wire protocol.
	GenesisPrevHash = "0"

	MaxHeaderBytes = 8 * 1024    // Maximum size of the header section of a peer frame.
	MaxBodyBytes   = 1024 * 1024 // Maximum Content-Length accepted on a peer frame.

	InboundQueue  = 100  // Capacity of the transport → node loop message channel.
	SeenCacheSize = 1024 // Entries kept in the gossip (type, hash) seen-set.

	DefaultMaxBlockTxs = 10   // Transactions drained from the mempool per minted block.
	DefaultPoolSize    = 4096 // Pending transactions admitted before the mempool rejects.

	DefaultListenAddr = "0.0.0.0:8080" // Default TCP bind for the peer transport.

	// DefaultMintIntervalSec is the default period of the mint ticker. Every
	// node mints on its own timer; duplicate blocks at the same index are
	// resolved by first-writer-wins at the receivers.
	DefaultMintIntervalSec = 5
)

const (
	ReadTimeout   = 30 * time.Second // Idle socket deadline before a connection is dropped without a response.
	DialTimeout   = 5 * time.Second  // Outbound connection establishment budget.
	ShutdownGrace = 3 * time.Second  // How long Stop waits for in-flight connection handlers.
)
