// Package secp provides the secp256k1 primitives the rest of the SDK is built
// on: x-only public key derivation, BIP-340 Schnorr signatures, and ECDH
// shared secrets.
//
// All public keys are x-only (32 bytes); the full point is reconstructed by
// solving the curve equation for the even-y root, per the BIP-340 convention.
// Signing is deterministic: the nonce is a tagged hash of the normalized
// secret key, the public key, and the message, with no auxiliary randomness,
// so identical inputs always produce identical signatures.
package secp

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	SecretKeySize = 32 // SecretKeySize is the length of a secret key in bytes.
	PublicKeySize = 32 // PublicKeySize is the length of an x-only public key in bytes.
	SignatureSize = 64 // SignatureSize is the length of a Schnorr signature in bytes.
	MessageSize   = 32 // MessageSize is the length of a signable message in bytes.
)

var (
	// ErrInvalidKey is returned when a secret key is not a canonical scalar in
	// [1, n-1] or a public key is not 32 bytes.
	ErrInvalidKey = errors.New("invalid key")

	// ErrPointNotOnCurve is returned when an x coordinate has no matching
	// point on the curve.
	ErrPointNotOnCurve = errors.New("point not on curve")

	// ErrInvalidMessageLength is returned when a message to be signed is not
	// exactly 32 bytes.
	ErrInvalidMessageLength = errors.New("message must be 32 bytes")

	// ErrZeroNonce is returned in the cryptographically negligible case that
	// the derived signing nonce is zero. It is not retried.
	ErrZeroNonce = errors.New("derived nonce is zero")
)

// Tagged hash labels from BIP-340. The tag prevents cross-protocol collisions.
const (
	nonceTag     = "BIP0340/nonce"
	challengeTag = "BIP0340/challenge"
)

// PublicKey returns the 32-byte x-only public key for the given secret key.
func PublicKey(sk []byte) ([]byte, error) {
	d, err := parseSecretKey(sk)
	if err != nil {
		return nil, err
	}

	// Calculate P = d*G.
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(d, &p)
	p.ToAffine()

	// The x-only public key is P.x; the y parity is implicit.
	var pk [PublicKeySize]byte
	p.X.PutBytes(&pk)

	return pk[:], nil
}

// Sign returns a 64-byte Schnorr signature (R.x || s) of the given 32-byte
// message. Signing is deterministic; repeated calls with the same inputs
// return the same signature.
func Sign(msg, sk []byte) ([]byte, error) {
	if len(msg) != MessageSize {
		return nil, ErrInvalidMessageLength
	}

	d, err := parseSecretKey(sk)
	if err != nil {
		return nil, err
	}

	// Calculate P = d*G.
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(d, &p)
	p.ToAffine()

	// Negate d so the effective signing key always has an even-y public
	// point.
	if p.Y.IsOdd() {
		d.Negate()
		secp256k1.ScalarBaseMultNonConst(d, &p)
		p.ToAffine()
	}

	var px, db [32]byte
	p.X.PutBytes(&px)
	d.PutBytes(&db)

	// Derive the nonce k from the normalized secret key, the public key, and
	// the message.
	var k secp256k1.ModNScalar
	k.SetByteSlice(taggedHash(nonceTag, db[:], px[:], msg))

	if k.IsZero() {
		return nil, ErrZeroNonce
	}

	// Calculate R = k*G.
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k, &r)
	r.ToAffine()

	// R.x goes into the signature before any nonce negation.
	var rx [32]byte
	r.X.PutBytes(&rx)

	// Negate k if R has an odd y.
	if r.Y.IsOdd() {
		k.Negate()
	}

	// Challenge e = H(R.x || P.x || msg), signature scalar s = k + e*d.
	var e secp256k1.ModNScalar
	e.SetByteSlice(taggedHash(challengeTag, rx[:], px[:], msg))

	s := new(secp256k1.ModNScalar).Mul2(&e, d).Add(&k)

	var sb [32]byte
	s.PutBytes(&sb)

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, rx[:]...)
	sig = append(sig, sb[:]...)

	k.Zero()
	d.Zero()

	return sig, nil
}

// Verify reports whether sig is a valid Schnorr signature of the given 32-byte
// message under the given x-only public key. It never panics; malformed input
// of any shape verifies as false.
func Verify(sig, msg, pk []byte) bool {
	if len(sig) != SignatureSize || len(msg) != MessageSize || len(pk) != PublicKeySize {
		return false
	}

	// Parse R.x, rejecting values >= the field prime.
	var rx secp256k1.FieldVal
	if rx.SetByteSlice(sig[:32]) {
		return false
	}

	// Parse s, rejecting values >= the group order.
	var s secp256k1.ModNScalar
	if s.SetByteSlice(sig[32:]) {
		return false
	}

	// Reconstruct P from its x coordinate with even y.
	p, err := liftX(pk)
	if err != nil {
		return false
	}

	// Challenge e = H(R.x || P.x || msg).
	var e secp256k1.ModNScalar
	e.SetByteSlice(taggedHash(challengeTag, sig[:32], pk, msg))

	// R = s*G - e*P.
	var sg, ep, r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s, &sg)
	e.Negate()
	secp256k1.ScalarMultNonConst(&e, p, &ep)
	secp256k1.AddNonConst(&sg, &ep, &r)

	if (r.X.IsZero() && r.Y.IsZero()) || r.Z.IsZero() {
		return false
	}

	r.ToAffine()

	// Accept iff R has even y and its x coordinate matches the signature.
	if r.Y.IsOdd() {
		return false
	}

	return r.X.Equals(&rx)
}

// SharedX performs an ECDH exchange between the given secret key and x-only
// public key and returns the 32-byte x coordinate of the shared point. The
// peer's point is reconstructed with even y, matching the signing convention.
func SharedX(sk, pk []byte) ([]byte, error) {
	d, err := parseSecretKey(sk)
	if err != nil {
		return nil, err
	}

	p, err := liftX(pk)
	if err != nil {
		return nil, err
	}

	// Calculate S = d*P.
	var s secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(d, p, &s)
	s.ToAffine()

	var x [32]byte
	s.X.PutBytes(&x)

	d.Zero()

	return x[:], nil
}

// liftX reconstructs the even-y curve point with the given 32-byte x
// coordinate.
func liftX(xb []byte) (*secp256k1.JacobianPoint, error) {
	if len(xb) != PublicKeySize {
		return nil, ErrInvalidKey
	}

	// Reject x coordinates >= the field prime.
	var x secp256k1.FieldVal
	if x.SetByteSlice(xb) {
		return nil, ErrPointNotOnCurve
	}

	// Solve y² = x³ + 7 for the even root; fails if x³ + 7 is a non-residue.
	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(&x, false, &y) {
		return nil, ErrPointNotOnCurve
	}

	var p secp256k1.JacobianPoint
	p.X.Set(&x)
	p.Y.Set(y.Normalize())
	p.Z.SetInt(1)

	return &p, nil
}

// parseSecretKey parses a 32-byte secret key, rejecting zero and
// out-of-range scalars.
func parseSecretKey(sk []byte) (*secp256k1.ModNScalar, error) {
	if len(sk) != SecretKeySize {
		return nil, ErrInvalidKey
	}

	var d secp256k1.ModNScalar
	if d.SetByteSlice(sk) || d.IsZero() {
		return nil, ErrInvalidKey
	}

	return &d, nil
}

// taggedHash implements the BIP-340 tagged hash:
// SHA-256(SHA-256(tag) || SHA-256(tag) || data...).
func taggedHash(tag string, data ...[]byte) []byte {
	th := sha256.Sum256([]byte(tag))

	h := sha256.New()
	_, _ = h.Write(th[:])
	_, _ = h.Write(th[:])

	for _, d := range data {
		_, _ = h.Write(d)
	}

	return h.Sum(nil)
}
