// Package p2p implements the authenticated peer transport: length-framed
// request/response exchanges between a fixed, mutually known peer set, with
// an identity-signed envelope around every message. Connections carry exactly
// one request and one response.
package p2p

import "fmt"

// Peer identifies a neighbor: its canonical public-key text encoding and the
// TCP address it accepts requests on.
type Peer struct {
	PubKey string
	Addr   string
}

// PeerSet is the static peer directory, populated once at startup and
// read-only for the lifetime of the process.
type PeerSet struct {
	peers []Peer
	byKey map[string]Peer
}

// NewPeerSet builds a directory from the configured peers. A duplicate
// public key is a configuration error.
func NewPeerSet(peers []Peer) (*PeerSet, error) {
	ps := &PeerSet{
		peers: make([]Peer, len(peers)),
		byKey: make(map[string]Peer, len(peers)),
	}
	copy(ps.peers, peers)
	for _, p := range peers {
		if _, dup := ps.byKey[p.PubKey]; dup {
			return nil, fmt.Errorf("p2p: duplicate peer key %.24q", p.PubKey)
		}
		ps.byKey[p.PubKey] = p
	}
	return ps, nil
}

// Contains reports whether pubKey belongs to a known peer.
func (ps *PeerSet) Contains(pubKey string) bool {
	_, ok := ps.byKey[pubKey]
	return ok
}

// Peers returns a copy of the directory in configuration order.
func (ps *PeerSet) Peers() []Peer {
	out := make([]Peer, len(ps.peers))
	copy(out, ps.peers)
	return out
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	return len(ps.peers)
}
