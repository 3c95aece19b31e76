// Package nip19 implements the bech32 text encoding for raw 32-byte keys:
// npub for public keys and nsec for secret keys. The distinct prefixes keep
// the two from being pasted into the wrong place, and the bech32 checksum
// catches transcription errors.
package nip19

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// PublicKeyPrefix is the human-readable part of an encoded public key.
	PublicKeyPrefix = "npub"

	// SecretKeyPrefix is the human-readable part of an encoded secret key.
	SecretKeyPrefix = "nsec"
)

var (
	// ErrInvalidEncoding is returned when a string is not valid bech32 or
	// does not decode to 32 bytes.
	ErrInvalidEncoding = errors.New("invalid bech32 encoding")

	// ErrWrongPrefix is returned when a string decodes but carries the wrong
	// human-readable prefix for the requested key type.
	ErrWrongPrefix = errors.New("wrong bech32 prefix")
)

// EncodePublicKey encodes a 32-byte x-only public key as npub text.
func EncodePublicKey(pk []byte) string {
	return encode(PublicKeyPrefix, pk)
}

// EncodeSecretKey encodes a 32-byte secret key as nsec text.
func EncodeSecretKey(sk []byte) string {
	return encode(SecretKeyPrefix, sk)
}

// DecodePublicKey decodes npub text into a 32-byte public key.
func DecodePublicKey(s string) ([]byte, error) {
	return decode(PublicKeyPrefix, s)
}

// DecodeSecretKey decodes nsec text into a 32-byte secret key.
func DecodeSecretKey(s string) ([]byte, error) {
	return decode(SecretKeyPrefix, s)
}

func encode(hrp string, data []byte) string {
	grouped, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		// 8-to-5 bit regrouping of a byte slice cannot fail.
		panic(err)
	}

	s, err := bech32.Encode(hrp, grouped)
	if err != nil {
		panic(err)
	}

	return s
}

func decode(hrp, s string) ([]byte, error) {
	prefix, grouped, err := bech32.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	if prefix != hrp {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongPrefix, prefix, hrp)
	}

	data, err := bech32.ConvertBits(grouped, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	if len(data) != 32 {
		return nil, fmt.Errorf("%w: %d-byte payload", ErrInvalidEncoding, len(data))
	}

	return data, nil
}
