package p2p

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerlink/go-ledgerlink/log"
	"github.com/ledgerlink/go-ledgerlink/params"
)

// Rejection reasons carried in the response envelope. The literals are part
// of the wire protocol.
const (
	reasonBadEncoding      = "Bad encoding"
	reasonUnknownRecipient = "Unknown recipient"
	reasonUnknownSender    = "Unknown sender"
	reasonInvalidSignature = "Invalid signature"
)

// Server is the long-running acceptor of the peer transport. Each accepted
// connection is handled by its own goroutine, processes exactly one
// authenticated request, writes one response and closes. Authenticated
// payloads are forwarded to the node loop through the bounded inbound
// channel; a full channel blocks the connection handler, which peers
// experience as backpressure rather than message loss.
type Server struct {
	self    string // local identity, canonical public-key text
	key     *btcec.PrivateKey
	peers   *PeerSet
	inbound chan<- []byte

	ln     net.Listener
	quit   chan struct{}
	wg     sync.WaitGroup
	logger log.Logger
}

// NewServer creates a transport server for the local identity.
func NewServer(self string, key *btcec.PrivateKey, peers *PeerSet, inbound chan<- []byte) *Server {
	return &Server{
		self:    self,
		key:     key,
		peers:   peers,
		inbound: inbound,
		quit:    make(chan struct{}),
		logger:  log.New("module", "p2p"),
	}
}

// Start binds addr and begins accepting connections.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("Peer transport listening", "addr", ln.Addr())
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// ListenAddr returns the bound address, valid after Start.
func (s *Server) ListenAddr() string {
	return s.ln.Addr().String()
}

// Stop closes the listener and waits for in-flight connection handlers, up
// to the shutdown grace period; stragglers are abandoned.
func (s *Server) Stop() {
	close(s.quit)
	if s.ln != nil {
		s.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(params.ShutdownGrace):
		s.logger.Warn("Abandoning in-flight peer connections")
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			s.logger.Warn("Accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

// serve handles one connection: read, authenticate, forward, respond.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(params.ReadTimeout))
	body, err := ReadFrame(bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrBadFrame) {
			s.respond(conn, 500, err.Error())
		}
		// Idle timeouts and truncated streams get no response.
		s.logger.Debug("Dropping connection", "remote", conn.RemoteAddr(), "err", err)
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.logger.Debug("Undecodable envelope", "remote", conn.RemoteAddr(), "err", err)
		s.respond(conn, 500, reasonBadEncoding)
		return
	}
	if env.To != s.self {
		s.logger.Debug("Envelope for another recipient", "remote", conn.RemoteAddr())
		s.respond(conn, 500, reasonUnknownRecipient)
		return
	}
	if !s.peers.Contains(env.From) {
		s.logger.Debug("Envelope from outside the peer set", "remote", conn.RemoteAddr())
		s.respond(conn, 500, reasonUnknownSender)
		return
	}
	if err := env.VerifySender(); err != nil {
		s.logger.Debug("Envelope signature rejected", "remote", conn.RemoteAddr(), "err", err)
		s.respond(conn, 500, reasonInvalidSignature)
		return
	}

	select {
	case s.inbound <- []byte(env.Message):
	case <-s.quit:
		return
	}
	s.respond(conn, 200, "OK")
}

// respond writes a sealed response envelope. Best-effort: the requester may
// already be gone.
func (s *Server) respond(conn net.Conn, status int, reason string) {
	resp := NewEnvelope("", s.self, s.key, []byte(reason))
	resp.Status = status
	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Response marshal failed", "err", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(params.ReadTimeout))
	if err := WriteFrame(conn, body); err != nil {
		s.logger.Debug("Response write failed", "remote", conn.RemoteAddr(), "err", err)
	}
}
