package nip17

import (
	"errors"
	"testing"

	"github.com/codahale/gubbins/assert"

	nostr "github.com/unicitynetwork/nostr-sdk"
)

func testIdentities(t testing.TB) (alice, bob *nostr.KeyPair) {
	t.Helper()

	alice, err := nostr.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	bob, err = nostr.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "wrapped and sealed", nil)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "kind", nostr.KindGiftWrap, wrap.Kind)
	assert.Equal(t, "recipient tag", bob.PublicKeyHex(), wrap.TagValue("p"))

	if wrap.PubKey == alice.PublicKeyHex() {
		t.Error("wrap is signed by the sender, not an ephemeral key")
	}

	if !wrap.Verify() {
		t.Error("wrap signature does not verify")
	}

	msg, err := Unwrap(wrap, bob)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "content", "wrapped and sealed", msg.Content)
	assert.Equal(t, "sender", alice.PublicKeyHex(), msg.SenderPubKey)
	assert.Equal(t, "kind", nostr.KindChatMessage, msg.Kind)
	assert.Equal(t, "envelope id", wrap.ID, msg.EnvelopeID)
}

func TestOptionsPropagate(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "in reply", &Options{
		ReplyTo:       "cafebabe",
		SenderNametag: "alice@unicity",
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := Unwrap(wrap, bob)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "reply to", "cafebabe", msg.ReplyTo)
	assert.Equal(t, "nametag", "alice@unicity", msg.SenderNametag)
}

func TestReadReceipt(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	wrap, err := CreateReadReceipt(bob, alice.PublicKey(), "deadbeef")
	if err != nil {
		t.Fatal(err)
	}

	msg, err := Unwrap(wrap, alice)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "kind", nostr.KindReadReceipt, msg.Kind)
	assert.Equal(t, "message id", "deadbeef", msg.ReplyTo)
	assert.Equal(t, "content", "", msg.Content)
}

func TestUnwrapNotForRecipient(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	eve, err := nostr.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "for bob only", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Unwrap(wrap, eve); !errors.Is(err, ErrNotForRecipient) {
		t.Errorf("expected ErrNotForRecipient, got %v", err)
	}

	// Not even the sender can reopen it.
	if _, err := Unwrap(wrap, alice); !errors.Is(err, ErrNotForRecipient) {
		t.Errorf("expected ErrNotForRecipient, got %v", err)
	}
}

func TestUnwrapWrongKind(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	note := &nostr.Event{
		Kind:    nostr.KindTextNote,
		Content: "public",
	}
	if err := note.Sign(alice); err != nil {
		t.Fatal(err)
	}

	if _, err := Unwrap(note, bob); !errors.Is(err, ErrWrongEventKind) {
		t.Errorf("expected ErrWrongEventKind, got %v", err)
	}
}

func TestUnwrapTampered(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "fragile", nil)
	if err != nil {
		t.Fatal(err)
	}

	tampered := *wrap
	b := []byte(tampered.Content)
	b[len(b)/2] ^= 0x01
	tampered.Content = string(b)

	if _, err := Unwrap(&tampered, bob); err == nil {
		t.Error("unwrapped a tampered envelope")
	}
}

func TestWrapsAreUnlinkable(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	a, err := CreateChatMessage(alice, bob.PublicKey(), "same words", nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := CreateChatMessage(alice, bob.PublicKey(), "same words", nil)
	if err != nil {
		t.Fatal(err)
	}

	if a.ID == b.ID {
		t.Error("wrap ids collide")
	}

	if a.PubKey == b.PubKey {
		t.Error("ephemeral keys were reused")
	}
}

func TestTimestampsRandomized(t *testing.T) {
	t.Parallel()

	alice, bob := testIdentities(t)

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "when?", nil)
	if err != nil {
		t.Fatal(err)
	}

	msg, err := Unwrap(wrap, bob)
	if err != nil {
		t.Fatal(err)
	}

	// The outer timestamp lands within the two-day window around the true
	// one; the rumor keeps the true time. A few seconds of slack for the
	// clock advancing between the two draws.
	delta := wrap.CreatedAt - msg.Timestamp
	if delta < -timestampWindow-5 || delta > timestampWindow+5 {
		t.Errorf("wrap timestamp offset %d outside window", delta)
	}
}

func TestRumorComputeID(t *testing.T) {
	t.Parallel()

	r := &Rumor{
		PubKey:    "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		CreatedAt: 1700000000,
		Kind:      nostr.KindChatMessage,
		Tags:      [][]string{{"p", "beef"}},
		Content:   "hi",
	}

	id, err := r.ComputeID()
	if err != nil {
		t.Fatal(err)
	}

	// The rumor id matches the id of an identical signed event.
	e := &nostr.Event{
		PubKey:    r.PubKey,
		CreatedAt: r.CreatedAt,
		Kind:      r.Kind,
		Tags:      r.Tags,
		Content:   r.Content,
	}

	want, err := e.ComputeID()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "rumor id", want, id)
}

func BenchmarkCreateGiftWrap(b *testing.B) {
	alice, bob := testIdentities(b)
	pk := bob.PublicKey()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = CreateChatMessage(alice, pk, "benchmark message", nil)
	}
}

func BenchmarkUnwrap(b *testing.B) {
	alice, bob := testIdentities(b)

	wrap, err := CreateChatMessage(alice, bob.PublicKey(), "benchmark message", nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = Unwrap(wrap, bob)
	}
}
