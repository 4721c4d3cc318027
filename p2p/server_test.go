package p2p

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlink/go-ledgerlink/crypto"
)

type testIdentity struct {
	key *btcec.PrivateKey
	id  string
}

func newIdentity(t *testing.T) testIdentity {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testIdentity{key: key, id: crypto.EncodePublicKey(key.PubKey())}
}

// startTestServer brings up a server for self that trusts peer, returning the
// address and the inbound channel the transport forwards into.
func startTestServer(t *testing.T, self, peer testIdentity) (string, chan []byte) {
	t.Helper()
	inbound := make(chan []byte, 4)
	peers, err := NewPeerSet([]Peer{{PubKey: peer.id, Addr: "127.0.0.1:1"}})
	require.NoError(t, err)
	srv := NewServer(self.id, self.key, peers, inbound)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(srv.Stop)
	return srv.ListenAddr(), inbound
}

func TestServerAcceptsAuthenticatedRequest(t *testing.T) {
	self, peer := newIdentity(t), newIdentity(t)
	addr, inbound := startTestServer(t, self, peer)

	env := NewEnvelope(self.id, peer.id, peer.key, []byte(`{"type":"Probe"}`))
	resp, err := Send(addr, env)
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)
	require.Equal(t, self.id, resp.From)
	require.NoError(t, resp.VerifySender(), "response envelope must be signed by the server")

	select {
	case msg := <-inbound:
		require.Equal(t, `{"type":"Probe"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("payload never reached the inbound channel")
	}
}

func TestServerRejectsUnknownRecipient(t *testing.T) {
	self, peer := newIdentity(t), newIdentity(t)
	addr, inbound := startTestServer(t, self, peer)

	// Addressed to the peer itself instead of the local node.
	env := NewEnvelope(peer.id, peer.id, peer.key, []byte("x"))
	resp, err := Send(addr, env)
	require.ErrorIs(t, err, ErrRemoteStatus)
	require.Equal(t, 500, resp.Status)
	require.Equal(t, "Unknown recipient", resp.Message)
	require.Empty(t, inbound)
}

func TestServerRejectsUnknownSender(t *testing.T) {
	self, peer := newIdentity(t), newIdentity(t)
	stranger := newIdentity(t)
	addr, inbound := startTestServer(t, self, peer)

	env := NewEnvelope(self.id, stranger.id, stranger.key, []byte("x"))
	resp, err := Send(addr, env)
	require.ErrorIs(t, err, ErrRemoteStatus)
	require.Equal(t, 500, resp.Status)
	require.Equal(t, "Unknown sender", resp.Message)
	require.Empty(t, inbound)
}

// TestServerRejectsSpoofedSignature sends a well-formed envelope claiming a
// known peer as sender, signed by somebody else's key.
func TestServerRejectsSpoofedSignature(t *testing.T) {
	self, peer := newIdentity(t), newIdentity(t)
	stranger := newIdentity(t)
	addr, inbound := startTestServer(t, self, peer)

	env := NewEnvelope(self.id, peer.id, stranger.key, []byte(`{"type":"Transaction"}`))
	resp, err := Send(addr, env)
	require.ErrorIs(t, err, ErrRemoteStatus)
	require.Equal(t, 500, resp.Status)
	require.Equal(t, "Invalid signature", resp.Message)
	require.Empty(t, inbound, "spoofed payload must not reach the node")
}

func TestServerRejectsGarbageBody(t *testing.T) {
	self, peer := newIdentity(t), newIdentity(t)
	addr, inbound := startTestServer(t, self, peer)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, WriteFrame(conn, []byte("this is not json")))

	respBody, err := ReadFrame(bufio.NewReader(conn))
	require.NoError(t, err)
	var resp Envelope
	require.NoError(t, json.Unmarshal(respBody, &resp))
	require.Equal(t, 500, resp.Status)
	require.Equal(t, "Bad encoding", resp.Message)
	require.Empty(t, inbound)
}

func TestEnvelopeVerifySender(t *testing.T) {
	peer := newIdentity(t)
	env := NewEnvelope("someone", peer.id, peer.key, []byte("payload"))
	require.NoError(t, env.VerifySender())

	tampered := *env
	tampered.From = "someone else"
	require.Error(t, tampered.VerifySender())

	unsigned := *env
	unsigned.Signature = "deadbeef"
	require.Error(t, unsigned.VerifySender())
}
