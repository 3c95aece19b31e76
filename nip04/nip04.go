// Package nip04 implements the legacy encrypted direct-message scheme:
// AES-256-CBC keyed by the hash of an ECDH shared secret, with transparent
// gzip compression of large payloads.
//
// The scheme is intentionally unauthenticated; there is no MAC. That is a
// known limitation of the legacy format and is preserved for interoperability
// with existing peers, not fixed here. New code should use nip44.
package nip04

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/unicitynetwork/nostr-sdk/internal/secp"
)

// compressThreshold is the plaintext size above which payloads are
// gzip-compressed before encryption.
const compressThreshold = 1024

// compressPrefix marks a ciphertext whose plaintext was compressed before
// encryption. The 3-character prefix is part of the wire format.
const compressPrefix = "gz:"

// ErrDecrypt is returned for every decryption failure: malformed wire format,
// bad padding, or failed decompression. From the outside, "wrong key" and
// "corrupt payload" are indistinguishable and deliberately stay that way.
var ErrDecrypt = errors.New("unable to decrypt message")

// Encrypt encrypts a message for the holder of theirPublicKey, returning the
// wire form [gz:]base64(ciphertext)?iv=base64(iv). Plaintexts over 1 KiB are
// compressed first and marked with the gz: prefix.
func Encrypt(message string, mySecretKey, theirPublicKey []byte) (string, error) {
	secret, err := sharedSecret(mySecretKey, theirPublicKey)
	if err != nil {
		return "", err
	}

	plaintext := []byte(message)

	compressed := false
	if len(plaintext) > compressThreshold {
		plaintext, err = compress(plaintext)
		if err != nil {
			return "", err
		}

		compressed = true
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return "", err
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	out := base64.StdEncoding.EncodeToString(ciphertext) + "?iv=" + base64.StdEncoding.EncodeToString(iv)
	if compressed {
		out = compressPrefix + out
	}

	return out, nil
}

// Decrypt reverses Encrypt. All failures past key derivation collapse into
// ErrDecrypt.
func Decrypt(content string, mySecretKey, theirPublicKey []byte) (string, error) {
	secret, err := sharedSecret(mySecretKey, theirPublicKey)
	if err != nil {
		return "", err
	}

	compressed := strings.HasPrefix(content, compressPrefix)
	content = strings.TrimPrefix(content, compressPrefix)

	ct, iv, ok := splitPayload(content)
	if !ok {
		return "", ErrDecrypt
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return "", err
	}

	plaintext := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ct)

	plaintext, ok = unpad(plaintext)
	if !ok {
		return "", ErrDecrypt
	}

	if compressed {
		plaintext, err = decompress(plaintext)
		if err != nil {
			return "", ErrDecrypt
		}
	}

	return string(plaintext), nil
}

// sharedSecret derives the symmetric key: SHA-256 of the ECDH x coordinate.
func sharedSecret(sk, pk []byte) ([]byte, error) {
	x, err := secp.SharedX(sk, pk)
	if err != nil {
		return nil, err
	}

	secret := sha256.Sum256(x)

	return secret[:], nil
}

// splitPayload parses base64(ciphertext)?iv=base64(iv), requiring a full AES
// block IV and block-aligned, non-empty ciphertext.
func splitPayload(content string) (ct, iv []byte, ok bool) {
	parts := strings.SplitN(content, "?iv=", 2)
	if len(parts) != 2 {
		return nil, nil, false
	}

	ct, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, false
	}

	iv, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, false
	}

	if len(iv) != aes.BlockSize || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, nil, false
	}

	return ct, iv, true
}

// pad applies PKCS#7 padding to a whole number of AES blocks.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize

	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips and validates PKCS#7 padding.
func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}

	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}

	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}

	return b[:len(b)-n], true
}

func compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	if err := zr.Close(); err != nil {
		return nil, err
	}

	return out, nil
}
