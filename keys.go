package nostr

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/unicitynetwork/nostr-sdk/internal/secp"
	"github.com/unicitynetwork/nostr-sdk/nip19"
)

// ErrInvalidKey is returned when key material is malformed: the wrong length,
// zero, or out of the scalar range.
var ErrInvalidKey = errors.New("invalid key")

// KeyPair is a secp256k1 signing identity: a 32-byte secret scalar and its
// derived x-only public key. The public key is a pure function of the secret
// key.
//
// Ephemeral key pairs must be destroyed with Zero by their sole user
// immediately after their one signature.
type KeyPair struct {
	sk    [secp.SecretKeySize]byte
	pk    [secp.PublicKeySize]byte
	pkHex string
}

// GenerateKeyPair creates a new random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	var sk [secp.SecretKeySize]byte

	if _, err := rand.Read(sk[:]); err != nil {
		return nil, err
	}

	return NewKeyPair(sk[:])
}

// NewKeyPair creates a key pair from an existing 32-byte secret key.
func NewKeyPair(sk []byte) (*KeyPair, error) {
	pk, err := secp.PublicKey(sk)
	if err != nil {
		return nil, ErrInvalidKey
	}

	var kp KeyPair
	copy(kp.sk[:], sk)
	copy(kp.pk[:], pk)
	kp.pkHex = hex.EncodeToString(pk)

	return &kp, nil
}

// KeyPairFromHex creates a key pair from a hex-encoded secret key.
func KeyPairFromHex(s string) (*KeyPair, error) {
	sk, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidKey
	}

	return NewKeyPair(sk)
}

// KeyPairFromNsec creates a key pair from a bech32 nsec string.
func KeyPairFromNsec(s string) (*KeyPair, error) {
	sk, err := nip19.DecodeSecretKey(s)
	if err != nil {
		return nil, fmt.Errorf("invalid nsec: %w", err)
	}

	return NewKeyPair(sk)
}

// SecretKey returns a copy of the 32-byte secret key.
func (kp *KeyPair) SecretKey() []byte {
	sk := make([]byte, len(kp.sk))
	copy(sk, kp.sk[:])

	return sk
}

// SecretKeyHex returns the secret key as lowercase hex.
func (kp *KeyPair) SecretKeyHex() string {
	return hex.EncodeToString(kp.sk[:])
}

// PublicKey returns a copy of the 32-byte x-only public key.
func (kp *KeyPair) PublicKey() []byte {
	pk := make([]byte, len(kp.pk))
	copy(pk, kp.pk[:])

	return pk
}

// PublicKeyHex returns the public key as lowercase hex.
func (kp *KeyPair) PublicKeyHex() string {
	return kp.pkHex
}

// Nsec returns the secret key in bech32 nsec form.
func (kp *KeyPair) Nsec() string {
	return nip19.EncodeSecretKey(kp.sk[:])
}

// Npub returns the public key in bech32 npub form.
func (kp *KeyPair) Npub() string {
	return nip19.EncodePublicKey(kp.pk[:])
}

// Sign returns a 64-byte Schnorr signature of the given 32-byte message.
// Signing is deterministic: identical inputs produce identical signatures.
func (kp *KeyPair) Sign(msg []byte) ([]byte, error) {
	return secp.Sign(msg, kp.sk[:])
}

// SignHex signs the given 32-byte message and returns the signature as
// lowercase hex.
func (kp *KeyPair) SignHex(msg []byte) (string, error) {
	sig, err := kp.Sign(msg)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig), nil
}

// SharedSecret derives the legacy shared secret with another party: the
// SHA-256 hash of the ECDH x coordinate.
func (kp *KeyPair) SharedSecret(theirPublicKey []byte) ([]byte, error) {
	x, err := secp.SharedX(kp.sk[:], theirPublicKey)
	if err != nil {
		return nil, err
	}

	secret := sha256.Sum256(x)

	return secret[:], nil
}

// Zero overwrites the secret key. The key pair cannot sign afterwards.
func (kp *KeyPair) Zero() {
	for i := range kp.sk {
		kp.sk[i] = 0
	}
}

// String returns the public identity of the key pair. The secret key is never
// printed.
func (kp *KeyPair) String() string {
	return kp.Npub()
}

var _ fmt.Stringer = &KeyPair{}

// VerifySignature reports whether the hex signature is valid for the given
// 32-byte message under the hex public key. Malformed input of any shape
// verifies as false.
func VerifySignature(sigHex string, msg []byte, pubHex string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	pk, err := hex.DecodeString(pubHex)
	if err != nil {
		return false
	}

	return secp.Verify(sig, msg, pk)
}
