package p2p

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerlink/go-ledgerlink/log"
	"github.com/ledgerlink/go-ledgerlink/params"
	"golang.org/x/sync/errgroup"
)

// ErrRemoteStatus is returned when a peer answers with a non-200 envelope.
var ErrRemoteStatus = errors.New("p2p: request rejected by peer")

// Send opens a fresh connection to addr, performs one framed request and
// reads the framed response. The connection is closed either way.
func Send(addr string, env *Envelope) (*Envelope, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout("tcp", addr, params.DialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(params.ReadTimeout))
	if err := WriteFrame(conn, body); err != nil {
		return nil, err
	}
	respBody, err := ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	resp := new(Envelope)
	if err := json.Unmarshal(respBody, resp); err != nil {
		return nil, fmt.Errorf("p2p: undecodable response: %v", err)
	}
	if resp.Status != 200 {
		return resp, fmt.Errorf("%w: %d %s", ErrRemoteStatus, resp.Status, resp.Message)
	}
	return resp, nil
}

// Broadcast delivers message to every peer in parallel, one connection per
// neighbor. Delivery is best-effort: failures are logged and never retried;
// the next block announcement re-synchronizes lagging peers.
func Broadcast(self string, key *btcec.PrivateKey, peers []Peer, message []byte, logger log.Logger) {
	if logger == nil {
		logger = log.Root()
	}
	var g errgroup.Group
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			env := NewEnvelope(peer.PubKey, self, key, message)
			if _, err := Send(peer.Addr, env); err != nil {
				logger.Warn("Broadcast delivery failed", "peer", peer.Addr, "err", err)
			}
			return nil
		})
	}
	g.Wait()
}
