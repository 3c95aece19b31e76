// Package nip44 implements the modern authenticated encryption layer for
// private messages: a per-pair conversation key derived with ECDH and HKDF,
// and per-message ChaCha20 encryption with length-hiding padding and a keyed
// MAC.
//
// The conversation key is symmetric in the two parties: the HKDF salt is the
// pair of x-only public keys in ascending byte order, so either side derives
// the same key regardless of who initiates.
package nip44

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"github.com/unicitynetwork/nostr-sdk/internal/secp"
)

const (
	// Version is the payload version byte. Unknown versions are rejected;
	// there is no fallback.
	Version = 0x02

	// MinPlaintextSize and MaxPlaintextSize bound the plaintext length in
	// bytes.
	MinPlaintextSize = 1
	MaxPlaintextSize = 65535

	nonceSize     = 24
	macSize       = 16
	minPaddedSize = 32

	// minPayloadSize is version(1) + nonce(24) + the smallest ciphertext
	// (2-byte length prefix + 32-byte bucket, less the prefix accounted in
	// minPaddedSize) + mac(16).
	minPayloadSize = 1 + nonceSize + minPaddedSize + macSize

	conversationKeyInfo = "nip44-v2"
)

var (
	// ErrInvalidPlaintextLength is returned when a plaintext is empty or
	// longer than 65535 bytes.
	ErrInvalidPlaintextLength = errors.New("plaintext must be between 1 and 65535 bytes")

	// ErrInvalidPayload is returned for payloads that are not valid base64,
	// are too short, or carry inconsistent padding.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUnsupportedVersion is returned for payloads with an unknown version
	// byte.
	ErrUnsupportedVersion = errors.New("unsupported payload version")

	// ErrAuthenticationFailed is returned when the MAC does not verify. No
	// plaintext, partial or otherwise, is returned alongside it.
	ErrAuthenticationFailed = errors.New("message authentication failed")
)

// ConversationKey derives the 32-byte symmetric key shared between the two
// identities. It is recomputed on demand and never persisted by this layer.
func ConversationKey(mySecretKey, theirPublicKey []byte) ([]byte, error) {
	sharedX, err := secp.SharedX(mySecretKey, theirPublicKey)
	if err != nil {
		return nil, err
	}

	myPublicKey, err := secp.PublicKey(mySecretKey)
	if err != nil {
		return nil, err
	}

	// Salt is the two public keys in ascending byte order, making the key
	// independent of which party derives it.
	salt := make([]byte, 0, 2*secp.PublicKeySize)
	if lessBytes(myPublicKey, theirPublicKey) {
		salt = append(append(salt, myPublicKey...), theirPublicKey...)
	} else {
		salt = append(append(salt, theirPublicKey...), myPublicKey...)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedX, salt, []byte(conversationKeyInfo)), key); err != nil {
		return nil, err
	}

	return key, nil
}

// Encrypt encrypts a message with a conversation key derived from the two
// parties' keys.
func Encrypt(message string, mySecretKey, theirPublicKey []byte) (string, error) {
	key, err := ConversationKey(mySecretKey, theirPublicKey)
	if err != nil {
		return "", err
	}

	return EncryptWithKey(message, key)
}

// Decrypt decrypts a message with a conversation key derived from the two
// parties' keys.
func Decrypt(payload string, mySecretKey, theirPublicKey []byte) (string, error) {
	key, err := ConversationKey(mySecretKey, theirPublicKey)
	if err != nil {
		return "", err
	}

	return DecryptWithKey(payload, key)
}

// EncryptWithKey encrypts a message under a pre-derived conversation key and
// returns the base64 payload: version(1) || nonce(24) || ciphertext ||
// mac(16).
func EncryptWithKey(message string, conversationKey []byte) (string, error) {
	padded, err := pad([]byte(message))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	encKey, encNonce, macKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}

	stream, err := chacha20.NewUnauthenticatedCipher(encKey, encNonce)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, len(padded))
	stream.XORKeyStream(ciphertext, padded)

	payload := make([]byte, 0, 1+nonceSize+len(ciphertext)+macSize)
	payload = append(payload, Version)
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)
	payload = append(payload, mac(macKey, nonce, ciphertext)...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecryptWithKey decrypts a base64 payload under a pre-derived conversation
// key. The MAC is verified in constant time before any decryption happens.
func DecryptWithKey(payload string, conversationKey []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidPayload
	}

	if len(raw) < minPayloadSize {
		return "", ErrInvalidPayload
	}

	if raw[0] != Version {
		return "", fmt.Errorf("%w: %#x", ErrUnsupportedVersion, raw[0])
	}

	nonce := raw[1 : 1+nonceSize]
	ciphertext := raw[1+nonceSize : len(raw)-macSize]
	tag := raw[len(raw)-macSize:]

	encKey, encNonce, macKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}

	if !hmac.Equal(tag, mac(macKey, nonce, ciphertext)) {
		return "", ErrAuthenticationFailed
	}

	stream, err := chacha20.NewUnauthenticatedCipher(encKey, encNonce)
	if err != nil {
		return "", err
	}

	padded := make([]byte, len(ciphertext))
	stream.XORKeyStream(padded, ciphertext)

	message, err := unpad(padded)
	if err != nil {
		return "", err
	}

	return string(message), nil
}

// messageKeys expands the conversation key and message nonce into the
// per-message key block: ChaCha20 key(32) || ChaCha20 nonce(12) || MAC
// key(32).
func messageKeys(conversationKey, nonce []byte) (encKey, encNonce, macKey []byte, err error) {
	if len(conversationKey) != 32 {
		return nil, nil, nil, errors.New("conversation key must be 32 bytes")
	}

	block := make([]byte, 76)
	if _, err := io.ReadFull(hkdf.New(sha256.New, conversationKey, nonce, nil), block); err != nil {
		return nil, nil, nil, err
	}

	return block[0:32], block[32:44], block[44:76], nil
}

// mac computes the 16-byte message authentication tag: HMAC-SHA256 over
// nonce || ciphertext, truncated.
func mac(key, nonce, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(nonce)
	_, _ = h.Write(ciphertext)

	return h.Sum(nil)[:macSize]
}

// PaddedLen returns the padded size for a plaintext of the given length,
// excluding the 2-byte length prefix. Buckets grow with the plaintext so the
// exact length is hidden: a minimum of 32 bytes, then multiples of
// max(32, nextPowerOfTwo(n-1)/8).
func PaddedLen(n int) (int, error) {
	if n < MinPlaintextSize || n > MaxPlaintextSize {
		return 0, ErrInvalidPlaintextLength
	}

	if n <= minPaddedSize {
		return minPaddedSize, nil
	}

	nextPow2 := 1 << bits.Len(uint(n-1))

	chunk := nextPow2 / 8
	if chunk < minPaddedSize {
		chunk = minPaddedSize
	}

	return ((n + chunk - 1) / chunk) * chunk, nil
}

// pad prefixes the plaintext with its 2-byte big-endian length and zero-fills
// to the bucket boundary.
func pad(plaintext []byte) ([]byte, error) {
	paddedLen, err := PaddedLen(len(plaintext))
	if err != nil {
		return nil, err
	}

	padded := make([]byte, 2+paddedLen)
	binary.BigEndian.PutUint16(padded, uint16(len(plaintext)))
	copy(padded[2:], plaintext)

	return padded, nil
}

// unpad reads the length prefix and checks that it reproduces the recorded
// bucket size, rejecting length tampering.
func unpad(padded []byte) ([]byte, error) {
	if len(padded) < 2+minPaddedSize {
		return nil, ErrInvalidPayload
	}

	n := int(binary.BigEndian.Uint16(padded))

	paddedLen, err := PaddedLen(n)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	if len(padded) != 2+paddedLen {
		return nil, ErrInvalidPayload
	}

	return padded[2 : 2+n], nil
}

// lessBytes reports whether a sorts before b lexicographically.
func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return len(a) < len(b)
}
