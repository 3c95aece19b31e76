// Package payment implements payment requests and their decline/expiry
// responses over signed events.
//
// A request asks the holder of the target key to pay the requester. The
// target either fulfills it with a token transfer referencing the request
// event, answers with a declined response, or lets it lapse past its
// deadline. Acceptance has no response event of its own; the transfer is the
// acceptance.
package payment

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip04"
)

const (
	requestPrefix  = "payment_request:"
	responsePrefix = "payment_request_response:"
)

// DefaultDeadline is how long a request stays valid when the requester does
// not set an explicit deadline.
const DefaultDeadline = 5 * time.Minute

// Status is the outcome carried by a response event.
type Status string

const (
	// StatusDeclined means the target refused the request.
	StatusDeclined Status = "DECLINED"

	// StatusExpired means the request's deadline passed unanswered.
	StatusExpired Status = "EXPIRED"
)

var (
	// ErrWrongEventKind is returned when the event is not of the expected
	// payment kind.
	ErrWrongEventKind = errors.New("wrong event kind")

	// ErrMalformedRequest is returned when the content decrypts but is not a
	// well-formed request or response.
	ErrMalformedRequest = errors.New("malformed payment request")
)

// Request is the decrypted body of a payment request event. Amounts are
// arbitrary-precision: token amounts in smallest units overflow int64 in
// practice.
type Request struct {
	Amount *big.Int `json:"amount"`

	// CoinID identifies the token type precisely; there is no separate
	// symbol field.
	CoinID string `json:"coinId"`

	Message string `json:"message,omitempty"`

	// RecipientNametag names who gets paid, resolved out of band.
	RecipientNametag string `json:"recipientNametag,omitempty"`

	// RequestID correlates the eventual response or transfer with this
	// request.
	RequestID string `json:"requestId"`

	// Deadline is a Unix timestamp in milliseconds; nil means the request
	// never expires.
	Deadline *int64 `json:"deadline,omitempty"`
}

// NewRequest creates a request with a fresh request id and the default
// deadline.
func NewRequest(amount *big.Int, coinID, message, recipientNametag string) (*Request, error) {
	id, err := newRequestID()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(DefaultDeadline).UnixMilli()

	return &Request{
		Amount:           amount,
		CoinID:           coinID,
		Message:          message,
		RecipientNametag: recipientNametag,
		RequestID:        id,
		Deadline:         &deadline,
	}, nil
}

// Expired reports whether the request's deadline has passed. A request
// without a deadline never expires.
func (r *Request) Expired() bool {
	return r.Deadline != nil && time.Now().UnixMilli() > *r.Deadline
}

// Remaining returns the time left until the deadline. The second return is
// false when the request has no deadline.
func (r *Request) Remaining() (time.Duration, bool) {
	if r.Deadline == nil {
		return 0, false
	}

	remaining := time.Until(time.UnixMilli(*r.Deadline))
	if remaining < 0 {
		remaining = 0
	}

	return remaining, true
}

// Response is the decrypted body of a decline or expiry notification.
type Response struct {
	RequestID       string `json:"requestId"`
	OriginalEventID string `json:"originalEventId,omitempty"`
	Status          Status `json:"status"`
	Reason          string `json:"reason,omitempty"`
}

// CreateRequestEvent builds a signed payment request event addressed to the
// holder of targetPublicKey, the party being asked to pay. The amount and
// recipient nametag double as unencrypted tags for wallet list views.
func CreateRequestEvent(sender *nostr.KeyPair, targetPublicKey []byte, req *Request) (*nostr.Event, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	sk := sender.SecretKey()
	defer zero(sk)

	encrypted, err := nip04.Encrypt(requestPrefix+string(body), sk, targetPublicKey)
	if err != nil {
		return nil, err
	}

	tags := [][]string{
		{"p", hex.EncodeToString(targetPublicKey)},
		{"type", "payment_request"},
		{"amount", req.Amount.String()},
	}

	if req.RecipientNametag != "" {
		tags = append(tags, []string{"recipient", req.RecipientNametag})
	}

	e := &nostr.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      nostr.KindPaymentRequest,
		Tags:      tags,
		Content:   encrypted,
	}

	if err := e.Sign(sender); err != nil {
		return nil, err
	}

	return e, nil
}

// ParseRequest decrypts a payment request event.
func ParseRequest(e *nostr.Event, recipient *nostr.KeyPair) (*Request, error) {
	body, err := decryptBody(e, recipient, nostr.KindPaymentRequest, requestPrefix)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, ErrMalformedRequest
	}

	return &req, nil
}

// CreateResponseEvent builds a signed decline or expiry notification
// addressed to the original requester.
func CreateResponseEvent(sender *nostr.KeyPair, targetPublicKey []byte, resp *Response) (*nostr.Event, error) {
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	sk := sender.SecretKey()
	defer zero(sk)

	encrypted, err := nip04.Encrypt(responsePrefix+string(body), sk, targetPublicKey)
	if err != nil {
		return nil, err
	}

	tags := [][]string{
		{"p", hex.EncodeToString(targetPublicKey)},
		{"type", "payment_request_response"},
		{"status", string(resp.Status)},
	}

	if resp.OriginalEventID != "" {
		tags = append(tags, []string{"e", resp.OriginalEventID, "", "reply"})
	}

	e := &nostr.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      nostr.KindPaymentRequestResponse,
		Tags:      tags,
		Content:   encrypted,
	}

	if err := e.Sign(sender); err != nil {
		return nil, err
	}

	return e, nil
}

// ParseResponse decrypts a payment request response event.
func ParseResponse(e *nostr.Event, recipient *nostr.KeyPair) (*Response, error) {
	body, err := decryptBody(e, recipient, nostr.KindPaymentRequestResponse, responsePrefix)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ErrMalformedRequest
	}

	return &resp, nil
}

// Amount returns the advisory amount tag of a request event.
func Amount(e *nostr.Event) (*big.Int, bool) {
	s := e.TagValue("amount")
	if s == "" {
		return nil, false
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}

	return n, true
}

// RecipientNametag returns the advisory recipient tag of a request event, or
// "".
func RecipientNametag(e *nostr.Event) string {
	return e.TagValue("recipient")
}

// ResponseStatus returns the advisory status tag of a response event, or "".
func ResponseStatus(e *nostr.Event) Status {
	return Status(e.TagValue("status"))
}

// OriginalEventID returns the id of the request event a response refers to,
// or "".
func OriginalEventID(e *nostr.Event) string {
	return e.TagValue("e")
}

func decryptBody(e *nostr.Event, recipient *nostr.KeyPair, kind int, prefix string) ([]byte, error) {
	if e.Kind != kind {
		return nil, ErrWrongEventKind
	}

	senderPub, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return nil, ErrMalformedRequest
	}

	sk := recipient.SecretKey()
	defer zero(sk)

	content, err := nip04.Decrypt(e.Content, sk, senderPub)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(content, prefix) {
		return nil, ErrMalformedRequest
	}

	return []byte(strings.TrimPrefix(content, prefix)), nil
}

// newRequestID returns a short random correlation id.
func newRequestID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}

	return hex.EncodeToString(b[:]), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
