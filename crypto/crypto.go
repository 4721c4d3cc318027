// Package crypto wraps the signature and digest primitives of the ledger
// protocol: SHA-256 hex digests, secp256k1 ECDSA, and the base64/DER text
// encodings peers exchange key material and signatures in.
//
// Signing operates on the UTF-8 bytes of the text handed in (normally a hex
// digest), not on raw digest bytes. The encoding is fixed by the wire
// protocol and must not be changed.
package crypto

import (
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	becdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	lru "github.com/hashicorp/golang-lru"
)

// ErrBadEncoding is returned whenever base64, DER or hex parsing of untrusted
// input fails. Callers can rely on decode helpers never panicking.
var ErrBadEncoding = errors.New("crypto: bad encoding")

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// inmemorySignatures bounds the verified-signature cache. Blocks are
// re-validated on import and again on chain verification, so the same
// (digest, signature, key) triple is checked repeatedly.
const inmemorySignatures = 4096

var sigCache, _ = lru.NewARC(inmemorySignatures)

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier `asn1:"optional"`
}

// subjectPublicKeyInfo is the X.509 SPKI shell around an EC point.
type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

// pkcs8 is the PKCS#8 PrivateKeyInfo shell around a SEC1 ECPrivateKey.
type pkcs8 struct {
	Version    int
	Algorithm  algorithmIdentifier
	PrivateKey []byte
}

// ecPrivateKey is the SEC1 ECPrivateKey structure (RFC 5915).
type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

// HashData returns the lowercase hex SHA-256 digest of data.
func HashData(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sign signs the UTF-8 bytes of data with key. data is normally a hex digest
// produced by HashData; the hex string itself is the signed message.
func Sign(data string, key *btcec.PrivateKey) *becdsa.Signature {
	digest := sha256.Sum256([]byte(data))
	return becdsa.Sign(key, digest[:])
}

// Verify reports whether sig is a valid signature over the UTF-8 bytes of
// data under key. Positive results are cached; peers re-verify the same
// transaction at admission, import and chain-verification time.
func Verify(data string, sig *becdsa.Signature, key *btcec.PublicKey) bool {
	der := sig.Serialize()
	cacheKey := data + string(der) + string(key.SerializeCompressed())
	if sigCache.Contains(cacheKey) {
		return true
	}
	digest := sha256.Sum256([]byte(data))
	if !sig.Verify(digest[:], key) {
		return false
	}
	sigCache.Add(cacheKey, nil)
	return true
}

// DecodePublicKey parses a base64 DER SubjectPublicKeyInfo into a secp256k1
// public key.
func DecodePublicKey(text string) (*btcec.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: public key base64: %v", ErrBadEncoding, err)
	}
	var spki subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(der, &spki)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: public key DER", ErrBadEncoding)
	}
	if !spki.Algorithm.Algorithm.Equal(oidECPublicKey) || !spki.Algorithm.Parameters.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("%w: not a secp256k1 SubjectPublicKeyInfo", ErrBadEncoding)
	}
	pub, err := btcec.ParsePubKey(spki.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: public key point: %v", ErrBadEncoding, err)
	}
	return pub, nil
}

// DecodePrivateKey parses a base64 DER PKCS#8 PrivateKeyInfo into a secp256k1
// signing key.
func DecodePrivateKey(text string) (*btcec.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: private key base64: %v", ErrBadEncoding, err)
	}
	var info pkcs8
	rest, err := asn1.Unmarshal(der, &info)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: private key DER", ErrBadEncoding)
	}
	if !info.Algorithm.Algorithm.Equal(oidECPublicKey) || !info.Algorithm.Parameters.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("%w: not a secp256k1 PrivateKeyInfo", ErrBadEncoding)
	}
	var ec ecPrivateKey
	rest, err = asn1.Unmarshal(info.PrivateKey, &ec)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: embedded ECPrivateKey DER", ErrBadEncoding)
	}
	if len(ec.PrivateKey) == 0 || len(ec.PrivateKey) > 32 {
		return nil, fmt.Errorf("%w: private scalar size %d", ErrBadEncoding, len(ec.PrivateKey))
	}
	scalar := make([]byte, 32)
	copy(scalar[32-len(ec.PrivateKey):], ec.PrivateKey)
	priv, _ := btcec.PrivKeyFromBytes(scalar)
	return priv, nil
}

// EncodePublicKey renders key as a base64 DER SubjectPublicKeyInfo, the
// canonical text identity used across the peer protocol.
func EncodePublicKey(key *btcec.PublicKey) string {
	point := key.SerializeUncompressed()
	der, err := asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: algorithmIdentifier{Algorithm: oidECPublicKey, Parameters: oidSecp256k1},
		PublicKey: asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	})
	if err != nil {
		// Marshaling a fixed structure over a valid point cannot fail.
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// EncodePrivateKey renders key as a base64 DER PKCS#8 PrivateKeyInfo.
func EncodePrivateKey(key *btcec.PrivateKey) string {
	point := key.PubKey().SerializeUncompressed()
	inner, err := asn1.Marshal(ecPrivateKey{
		Version:       1,
		PrivateKey:    key.Serialize(),
		NamedCurveOID: oidSecp256k1,
		PublicKey:     asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	})
	if err != nil {
		panic(err)
	}
	der, err := asn1.Marshal(pkcs8{
		Version:    0,
		Algorithm:  algorithmIdentifier{Algorithm: oidECPublicKey, Parameters: oidSecp256k1},
		PrivateKey: inner,
	})
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// EncodeSignature renders sig as lowercase hex DER.
func EncodeSignature(sig *becdsa.Signature) string {
	return hex.EncodeToString(sig.Serialize())
}

// DecodeSignature parses a lowercase hex DER ECDSA signature.
func DecodeSignature(text string) (*becdsa.Signature, error) {
	der, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: signature hex: %v", ErrBadEncoding, err)
	}
	sig, err := becdsa.ParseDERSignature(der)
	if err != nil {
		return nil, fmt.Errorf("%w: signature DER: %v", ErrBadEncoding, err)
	}
	return sig, nil
}

// GenerateKey creates a fresh secp256k1 keypair.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}
