// Package nip17 implements private messages as three nested envelopes: an
// unsigned rumor carrying the message, a seal signed by the sender, and a
// gift wrap signed by a single-use ephemeral key.
//
// Only the innermost rumor carries the true timestamp. The seal and the gift
// wrap each get an independently randomized timestamp, and the gift wrap's
// author is an ephemeral key destroyed after one signature, so an observer of
// the outer event learns the recipient and nothing else.
package nip17

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip44"
)

// timestampWindow is the half-width, in seconds, of the interval the seal and
// gift wrap timestamps are drawn from. Two days.
const timestampWindow = 172800

// nametagTag is the tag name carrying the sender's human-readable label
// inside the rumor.
const nametagTag = "nametag"

var (
	// ErrWrongEventKind is returned when the outer event is not a gift wrap.
	ErrWrongEventKind = errors.New("wrong event kind")

	// ErrNotForRecipient is returned when the gift wrap cannot be opened with
	// the recipient's key. A wrap addressed to someone else fails here.
	ErrNotForRecipient = errors.New("message is not for this recipient")

	// ErrMalformedEnvelope is returned when an envelope opens but its contents
	// are not the expected structure.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrSealSignatureInvalid is returned when the seal's signature does not
	// verify. The seal signature is the only authenticity check in the whole
	// envelope; a failure here means the claimed sender did not write the
	// message.
	ErrSealSignatureInvalid = errors.New("invalid seal signature")
)

// Rumor is the innermost, unsigned layer: the plaintext event. Its id is
// computed the same way as a signed event's, but it never carries a
// signature. Authenticity comes from the seal around it.
type Rumor struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
}

// ComputeID returns the canonical id of the rumor.
func (r *Rumor) ComputeID() (string, error) {
	b, err := nostr.SerializeCanonical(r.PubKey, r.CreatedAt, r.Kind, r.Tags, r.Content)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:]), nil
}

// PrivateMessage is the decrypted result of unwrapping a gift wrap.
type PrivateMessage struct {
	// EnvelopeID is the id of the outer gift wrap event, used for
	// deduplication of the wire event. Distinct wraps of the same rumor have
	// distinct envelope ids.
	EnvelopeID string

	// SenderPubKey is the hex public key of the seal's author, the verified
	// sender of the message.
	SenderPubKey string

	// SenderNametag is the sender's self-declared label, if any. It is carried
	// inside the encrypted rumor but is not independently verified.
	SenderNametag string

	// Content is the message body.
	Content string

	// Timestamp is the rumor's true creation time, in Unix seconds.
	Timestamp int64

	// Kind is the rumor's event kind: a chat message or a read receipt.
	Kind int

	// ReplyTo is the id of the message this one replies to, or "".
	ReplyTo string
}

// Options carries the optional parts of a private message.
type Options struct {
	// ReplyTo is the rumor id of the message being replied to.
	ReplyTo string

	// SenderNametag is a human-readable label for the sender, carried inside
	// the encrypted rumor.
	SenderNametag string
}

// CreateGiftWrap builds the full three-layer envelope around a message from
// the sender to the holder of recipientPublicKey. The returned event is the
// outer gift wrap, ready to publish. The ephemeral wrapping key is destroyed
// before returning, on every path.
func CreateGiftWrap(sender *nostr.KeyPair, recipientPublicKey []byte, content string, kind int, opts *Options) (*nostr.Event, error) {
	if opts == nil {
		opts = &Options{}
	}

	recipientHex := hex.EncodeToString(recipientPublicKey)

	rumor, err := buildRumor(sender.PublicKeyHex(), recipientHex, content, kind, opts)
	if err != nil {
		return nil, err
	}

	seal, err := sealRumor(sender, recipientPublicKey, rumor)
	if err != nil {
		return nil, err
	}

	return wrapSeal(seal, recipientPublicKey, recipientHex)
}

// CreateChatMessage wraps a chat message.
func CreateChatMessage(sender *nostr.KeyPair, recipientPublicKey []byte, content string, opts *Options) (*nostr.Event, error) {
	return CreateGiftWrap(sender, recipientPublicKey, content, nostr.KindChatMessage, opts)
}

// CreateReadReceipt wraps a read receipt for the message with the given rumor
// id.
func CreateReadReceipt(sender *nostr.KeyPair, recipientPublicKey []byte, messageID string) (*nostr.Event, error) {
	return CreateGiftWrap(sender, recipientPublicKey, "", nostr.KindReadReceipt, &Options{ReplyTo: messageID})
}

// Unwrap opens a gift wrap addressed to the recipient and returns the
// verified private message inside.
//
// The gates, in order: the outer event must be a gift wrap; it must decrypt
// with the recipient's key; the inner event must be a seal with a valid
// signature; and the seal must decrypt to a well-formed rumor. The seal
// signature is what binds the message to its sender.
func Unwrap(giftWrap *nostr.Event, recipient *nostr.KeyPair) (*PrivateMessage, error) {
	if giftWrap.Kind != nostr.KindGiftWrap {
		return nil, ErrWrongEventKind
	}

	wrapperPub, err := hex.DecodeString(giftWrap.PubKey)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	rsk := recipient.SecretKey()
	defer zero(rsk)

	sealJSON, err := nip44.Decrypt(giftWrap.Content, rsk, wrapperPub)
	if err != nil {
		return nil, ErrNotForRecipient
	}

	var seal nostr.Event
	if err := json.Unmarshal([]byte(sealJSON), &seal); err != nil {
		return nil, ErrMalformedEnvelope
	}

	if seal.Kind != nostr.KindSeal {
		return nil, ErrMalformedEnvelope
	}

	if !seal.Verify() {
		return nil, ErrSealSignatureInvalid
	}

	senderPub, err := hex.DecodeString(seal.PubKey)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	rumorJSON, err := nip44.Decrypt(seal.Content, rsk, senderPub)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	var rumor Rumor
	if err := json.Unmarshal([]byte(rumorJSON), &rumor); err != nil {
		return nil, ErrMalformedEnvelope
	}

	msg := &PrivateMessage{
		EnvelopeID:   giftWrap.ID,
		SenderPubKey: seal.PubKey,
		Content:      rumor.Content,
		Timestamp:    rumor.CreatedAt,
		Kind:         rumor.Kind,
	}

	for _, tag := range rumor.Tags {
		switch {
		case len(tag) >= 4 && tag[0] == "e" && tag[3] == "reply":
			msg.ReplyTo = tag[1]
		case len(tag) >= 2 && tag[0] == nametagTag:
			msg.SenderNametag = tag[1]
		}
	}

	return msg, nil
}

// buildRumor assembles the unsigned inner event with the true timestamp.
func buildRumor(senderHex, recipientHex, content string, kind int, opts *Options) (*Rumor, error) {
	tags := [][]string{{"p", recipientHex}}

	if opts.ReplyTo != "" {
		tags = append(tags, []string{"e", opts.ReplyTo, "", "reply"})
	}

	if opts.SenderNametag != "" {
		tags = append(tags, []string{nametagTag, opts.SenderNametag})
	}

	rumor := &Rumor{
		PubKey:    senderHex,
		CreatedAt: time.Now().Unix(),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}

	id, err := rumor.ComputeID()
	if err != nil {
		return nil, err
	}

	rumor.ID = id

	return rumor, nil
}

// sealRumor encrypts the rumor to the recipient and signs the result as the
// sender. The seal carries no tags and a randomized timestamp.
func sealRumor(sender *nostr.KeyPair, recipientPublicKey []byte, rumor *Rumor) (*nostr.Event, error) {
	rumorJSON, err := json.Marshal(rumor)
	if err != nil {
		return nil, err
	}

	ssk := sender.SecretKey()
	defer zero(ssk)

	sealed, err := nip44.Encrypt(string(rumorJSON), ssk, recipientPublicKey)
	if err != nil {
		return nil, err
	}

	createdAt, err := randomizedTimestamp()
	if err != nil {
		return nil, err
	}

	seal := &nostr.Event{
		CreatedAt: createdAt,
		Kind:      nostr.KindSeal,
		Tags:      [][]string{},
		Content:   sealed,
	}

	if err := seal.Sign(sender); err != nil {
		return nil, err
	}

	return seal, nil
}

// wrapSeal encrypts the seal to the recipient under a fresh ephemeral key and
// signs the wrap with it. The ephemeral secret is zeroed on every exit path.
func wrapSeal(seal *nostr.Event, recipientPublicKey []byte, recipientHex string) (*nostr.Event, error) {
	sealJSON, err := json.Marshal(seal)
	if err != nil {
		return nil, err
	}

	ephemeral, err := nostr.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer ephemeral.Zero()

	esk := ephemeral.SecretKey()
	defer zero(esk)

	wrapped, err := nip44.Encrypt(string(sealJSON), esk, recipientPublicKey)
	if err != nil {
		return nil, err
	}

	createdAt, err := randomizedTimestamp()
	if err != nil {
		return nil, err
	}

	wrap := &nostr.Event{
		CreatedAt: createdAt,
		Kind:      nostr.KindGiftWrap,
		Tags:      [][]string{{"p", recipientHex}},
		Content:   wrapped,
	}

	if err := wrap.Sign(ephemeral); err != nil {
		return nil, err
	}

	return wrap, nil
}

// randomizedTimestamp draws a timestamp uniformly from now ± two days, from
// the system CSPRNG. The seal and the wrap each draw independently so their
// timestamps do not correlate.
func randomizedTimestamp() (int64, error) {
	offset, err := rand.Int(rand.Reader, big.NewInt(2*timestampWindow+1))
	if err != nil {
		return 0, err
	}

	return time.Now().Unix() - timestampWindow + offset.Int64(), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
