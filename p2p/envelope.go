package p2p

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerlink/go-ledgerlink/crypto"
)

// ErrInvalidSignature is returned when an envelope's identity signature does
// not verify under the claimed sender key.
var ErrInvalidSignature = errors.New("p2p: invalid envelope signature")

// Envelope is the outer frame of every peer exchange. The signature covers
// the literal From string, a liveness check against identity spoofing at the
// envelope layer; payload signatures are checked independently by the
// ledger. Status is zero on requests; responses carry 200 for success or 500
// with a human-readable Message for any rejection.
type Envelope struct {
	To        string `json:"to"`
	From      string `json:"from"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
	Status    int    `json:"status,omitempty"`
}

// NewEnvelope builds a request envelope from the local identity, signing the
// From string with key.
func NewEnvelope(to, from string, key *btcec.PrivateKey, message []byte) *Envelope {
	return &Envelope{
		To:        to,
		From:      from,
		Signature: crypto.EncodeSignature(crypto.Sign(from, key)),
		Message:   string(message),
	}
}

// VerifySender checks the envelope signature over the literal From string
// under the From identity itself.
func (e *Envelope) VerifySender() error {
	pub, err := crypto.DecodePublicKey(e.From)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	sig, err := crypto.DecodeSignature(e.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !crypto.Verify(e.From, sig, pub) {
		return ErrInvalidSignature
	}
	return nil
}
