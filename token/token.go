// Package token implements token transfers over signed events: the token's
// JSON payload is encrypted to the recipient with the legacy scheme, whose
// transparent gzip compression matters here because token payloads routinely
// run to tens of kilobytes.
//
// Amount and symbol travel as unencrypted tags. They are advisory metadata
// for wallet list views; the encrypted token JSON is authoritative.
package token

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip04"
)

// messagePrefix marks the decrypted content as a token transfer. Part of the
// wire format.
const messagePrefix = "token_transfer:"

var (
	// ErrWrongEventKind is returned when the event is not a token transfer.
	ErrWrongEventKind = errors.New("event is not a token transfer")

	// ErrMalformedTransfer is returned when the content decrypts but does not
	// carry the token transfer prefix.
	ErrMalformedTransfer = errors.New("malformed token transfer")

	// ErrDecryptTransfer is returned when neither decryption nor the legacy
	// plain-hex fallback can recover the content.
	ErrDecryptTransfer = errors.New("unable to decrypt token transfer")
)

// Options carries the optional unencrypted metadata tags of a transfer.
type Options struct {
	// Amount is the transferred amount in the token's smallest unit.
	Amount int64

	// Symbol is the token's display symbol. Amount and Symbol are tagged
	// together or not at all.
	Symbol string
}

// CreateTransferEvent builds a signed token transfer event carrying the token
// JSON, encrypted to the holder of recipientPublicKey.
func CreateTransferEvent(sender *nostr.KeyPair, recipientPublicKey []byte, tokenJSON string, opts *Options) (*nostr.Event, error) {
	sk := sender.SecretKey()
	defer zero(sk)

	encrypted, err := nip04.Encrypt(messagePrefix+tokenJSON, sk, recipientPublicKey)
	if err != nil {
		return nil, err
	}

	recipientHex := hex.EncodeToString(recipientPublicKey)

	tags := [][]string{
		{"p", recipientHex},
		{"type", "token_transfer"},
	}

	if opts != nil && opts.Symbol != "" {
		tags = append(tags,
			[]string{"amount", strconv.FormatInt(opts.Amount, 10)},
			[]string{"symbol", opts.Symbol},
		)
	}

	e := &nostr.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      nostr.KindTokenTransfer,
		Tags:      tags,
		Content:   encrypted,
	}

	if err := e.Sign(sender); err != nil {
		return nil, err
	}

	return e, nil
}

// ParseTransfer decrypts a token transfer event and returns the token JSON.
//
// Early peers published transfers as plain hex-encoded content; when
// decryption fails, that legacy form is tried before giving up.
func ParseTransfer(e *nostr.Event, recipient *nostr.KeyPair) (string, error) {
	if e.Kind != nostr.KindTokenTransfer {
		return "", ErrWrongEventKind
	}

	senderPub, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return "", ErrMalformedTransfer
	}

	sk := recipient.SecretKey()
	defer zero(sk)

	content, err := nip04.Decrypt(e.Content, sk, senderPub)
	if err != nil {
		raw, hexErr := hex.DecodeString(e.Content)
		if hexErr != nil {
			return "", ErrDecryptTransfer
		}

		content = string(raw)
	}

	if !strings.HasPrefix(content, messagePrefix) {
		return "", ErrMalformedTransfer
	}

	return strings.TrimPrefix(content, messagePrefix), nil
}

// Amount returns the advisory amount tag of a transfer event.
func Amount(e *nostr.Event) (int64, bool) {
	s := e.TagValue("amount")
	if s == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// Symbol returns the advisory symbol tag of a transfer event, or "".
func Symbol(e *nostr.Event) string {
	return e.TagValue("symbol")
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
