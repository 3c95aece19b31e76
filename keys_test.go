package nostr

import (
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"
)

func TestKeyPairFromHex(t *testing.T) {
	t.Parallel()

	// The generator point's scalar, from the BIP-340 test vectors.
	kp, err := KeyPairFromHex("0000000000000000000000000000000000000000000000000000000000000003")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "public key",
		"f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
		kp.PublicKeyHex())
}

func TestKeyPairFromHexInvalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"",
		"zz",
		"00", // short
		"0000000000000000000000000000000000000000000000000000000000000000", // zero scalar
		"fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe", // past the order
	} {
		if _, err := KeyPairFromHex(s); err == nil {
			t.Errorf("accepted %q", s)
		}
	}
}

func TestNsecRoundTrip(t *testing.T) {
	t.Parallel()

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(kp.Nsec(), "nsec1") {
		t.Errorf("nsec is %q", kp.Nsec())
	}

	got, err := KeyPairFromNsec(kp.Nsec())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "secret key", kp.SecretKeyHex(), got.SecretKeyHex())
	assert.Equal(t, "public key", kp.PublicKeyHex(), got.PublicKeyHex())
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	msg := make([]byte, 32)
	msg[0] = 0x42

	sig, err := kp.SignHex(msg)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifySignature(sig, msg, kp.PublicKeyHex()) {
		t.Error("signature does not verify")
	}

	msg[0] = 0x43
	if VerifySignature(sig, msg, kp.PublicKeyHex()) {
		t.Error("signature verifies for a different message")
	}
}

func TestVerifySignatureMalformed(t *testing.T) {
	t.Parallel()

	msg := make([]byte, 32)

	if VerifySignature("not hex", msg, "also not hex") {
		t.Error("malformed input verifies")
	}

	if VerifySignature("", msg, "") {
		t.Error("empty input verifies")
	}
}

func TestSharedSecretSymmetry(t *testing.T) {
	t.Parallel()

	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	ab, err := alice.SharedSecret(bob.PublicKey())
	if err != nil {
		t.Fatal(err)
	}

	ba, err := bob.SharedSecret(alice.PublicKey())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "shared secret", ab, ba)
}

func TestZero(t *testing.T) {
	t.Parallel()

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	kp.Zero()

	msg := make([]byte, 32)
	if _, err := kp.Sign(msg); err == nil {
		t.Error("zeroed key pair still signs")
	}
}

func TestStringHidesSecret(t *testing.T) {
	t.Parallel()

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	s := kp.String()

	if strings.Contains(s, kp.SecretKeyHex()) || strings.Contains(s, kp.Nsec()) {
		t.Error("String leaks the secret key")
	}

	assert.Equal(t, "string", kp.Npub(), s)
}
