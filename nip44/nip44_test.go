package nip44

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"

	"github.com/unicitynetwork/nostr-sdk/internal/secp"
)

func testKeys(t testing.TB) (skA, pkA, skB, pkB []byte) {
	t.Helper()

	skA = make([]byte, secp.SecretKeySize)
	skB = make([]byte, secp.SecretKeySize)

	if _, err := rand.Read(skA); err != nil {
		t.Fatal(err)
	}

	if _, err := rand.Read(skB); err != nil {
		t.Fatal(err)
	}

	pkA, err := secp.PublicKey(skA)
	if err != nil {
		t.Fatal(err)
	}

	pkB, err = secp.PublicKey(skB)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	skA, pkA, skB, pkB := testKeys(t)

	message := "an absolutely private communiqué"

	payload, err := Encrypt(message, skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	plaintext, err := Decrypt(payload, skB, pkA)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "plaintext", message, plaintext)
}

func TestConversationKeySymmetry(t *testing.T) {
	t.Parallel()

	skA, pkA, skB, pkB := testKeys(t)

	kAB, err := ConversationKey(skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	kBA, err := ConversationKey(skB, pkA)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "conversation key", kAB, kBA)
}

func TestEncryptDistinctPayloads(t *testing.T) {
	t.Parallel()

	skA, _, _, pkB := testKeys(t)

	// Fresh nonce per message, so identical plaintexts must not collide.
	a, err := Encrypt("same message", skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Encrypt("same message", skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	if a == b {
		t.Error("identical payloads for identical plaintexts")
	}
}

func TestPaddedLen(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		n, want int
	}{
		{1, 32},
		{32, 32},
		{33, 64},
		{64, 64},
		{65, 96},
		{100, 128},
		{200, 224},
		{320, 320},
		{1000, 1024},
		{65535, 65536},
	} {
		got, err := PaddedLen(tc.n)
		if err != nil {
			t.Fatal(err)
		}

		if got != tc.want {
			t.Errorf("PaddedLen(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestPlaintextBounds(t *testing.T) {
	t.Parallel()

	skA, _, _, pkB := testKeys(t)

	if _, err := Encrypt("", skA, pkB); !errors.Is(err, ErrInvalidPlaintextLength) {
		t.Errorf("empty plaintext: expected ErrInvalidPlaintextLength, got %v", err)
	}

	if _, err := Encrypt(strings.Repeat("x", MaxPlaintextSize+1), skA, pkB); !errors.Is(err, ErrInvalidPlaintextLength) {
		t.Errorf("oversized plaintext: expected ErrInvalidPlaintextLength, got %v", err)
	}

	if _, err := Encrypt("x", skA, pkB); err != nil {
		t.Errorf("single byte plaintext: %v", err)
	}
}

func TestDecryptTampered(t *testing.T) {
	t.Parallel()

	skA, pkA, skB, pkB := testKeys(t)

	payload, err := Encrypt("untouchable", skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatal(err)
	}

	// Every single-bit flip past the version byte must fail authentication.
	for _, i := range []int{1, 1 + nonceSize, len(raw) - macSize - 1, len(raw) - 1} {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		if _, err := DecryptWithKey(base64.StdEncoding.EncodeToString(tampered), mustKey(t, skB, pkA)); !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("flip at %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
}

func TestDecryptWrongVersion(t *testing.T) {
	t.Parallel()

	skA, pkA, skB, pkB := testKeys(t)

	payload, err := Encrypt("versioned", skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatal(err)
	}

	raw[0] = 0x01

	if _, err := Decrypt(base64.StdEncoding.EncodeToString(raw), skB, pkA); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecryptMalformed(t *testing.T) {
	t.Parallel()

	key := make([]byte, 32)

	for _, payload := range []string{
		"",
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte{Version}),
		base64.StdEncoding.EncodeToString(make([]byte, minPayloadSize-1)),
	} {
		if _, err := DecryptWithKey(payload, key); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%q: expected ErrInvalidPayload, got %v", payload, err)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	t.Parallel()

	skA, _, _, pkB := testKeys(t)

	payload, err := Encrypt("addressed elsewhere", skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	other := make([]byte, 32)
	if _, err := rand.Read(other); err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptWithKey(payload, other); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestRoundTripLarge(t *testing.T) {
	t.Parallel()

	skA, pkA, skB, pkB := testKeys(t)

	message := strings.Repeat("z", MaxPlaintextSize)

	payload, err := Encrypt(message, skA, pkB)
	if err != nil {
		t.Fatal(err)
	}

	plaintext, err := Decrypt(payload, skB, pkA)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "plaintext length", len(message), len(plaintext))
}

func mustKey(t testing.TB, sk, pk []byte) []byte {
	t.Helper()

	key, err := ConversationKey(sk, pk)
	if err != nil {
		t.Fatal(err)
	}

	return key
}

func BenchmarkEncrypt(b *testing.B) {
	skA, _, _, pkB := testKeys(b)

	key, err := ConversationKey(skA, pkB)
	if err != nil {
		b.Fatal(err)
	}

	message := strings.Repeat("m", 1024)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = EncryptWithKey(message, key)
	}
}

func BenchmarkDecrypt(b *testing.B) {
	skA, _, _, pkB := testKeys(b)

	key, err := ConversationKey(skA, pkB)
	if err != nil {
		b.Fatal(err)
	}

	payload, err := EncryptWithKey(strings.Repeat("m", 1024), key)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = DecryptWithKey(payload, key)
	}
}
