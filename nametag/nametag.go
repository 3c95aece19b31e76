// Package nametag implements human-readable identity labels and their
// binding to public keys via replaceable events.
//
// Nametags are published as salted hashes, never as cleartext, so a relay
// operator cannot enumerate who is reachable. Anyone who already knows a
// nametag can hash it and look up the binding; nobody can walk back from the
// published hash to the label. Phone numbers are valid nametags: they are
// normalized to E.164 before hashing so every spelling of the same number
// lands on the same hash.
package nametag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	nostr "github.com/unicitynetwork/nostr-sdk"
)

// hashSalt is the domain separator prefixed to every nametag before hashing.
// Part of the wire format.
const hashSalt = "unicity:nametag:"

// unicitySuffix is stripped from nametags before hashing, so "alice" and
// "alice@unicity" are the same identity.
const unicitySuffix = "@unicity"

// DefaultCountry is the region used to interpret phone numbers written
// without a country code.
const DefaultCountry = "US"

// Hash returns the hex-encoded salted hash of a nametag, as published in
// binding events. defaultCountry interprets phone numbers without a country
// code; pass DefaultCountry when unsure.
func Hash(tag, defaultCountry string) string {
	sum := sha256.Sum256([]byte(hashSalt + Normalize(tag, defaultCountry)))

	return hex.EncodeToString(sum[:])
}

// Normalize canonicalizes a nametag before hashing. Phone numbers become
// E.164; everything else is trimmed, lowercased, and loses its @unicity
// suffix.
func Normalize(tag, defaultCountry string) string {
	trimmed := strings.TrimSpace(tag)

	if likelyPhoneNumber(trimmed) {
		if e164, ok := normalizePhone(trimmed, defaultCountry); ok {
			return e164
		}

		// Not parseable as a phone number; keep the dialable characters so
		// the hash is at least stable across spacing and punctuation.
		return strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) || r == '+' {
				return r
			}

			return -1
		}, trimmed)
	}

	lower := strings.ToLower(trimmed)

	return strings.TrimSuffix(lower, unicitySuffix)
}

// Same reports whether two nametags are the same identity, across formats:
// "(415) 555-2671" and "+14155552671" compare equal.
func Same(a, b, defaultCountry string) bool {
	return Hash(a, defaultCountry) == Hash(b, defaultCountry)
}

// FormatForDisplay renders a nametag for UI display, masking the middle
// digits of phone numbers.
func FormatForDisplay(tag, defaultCountry string) string {
	normalized := Normalize(tag, defaultCountry)

	if likelyPhoneNumber(normalized) && len(normalized) >= 10 {
		return normalized[:5] + "***" + normalized[len(normalized)-4:]
	}

	return tag
}

// bindingContent is the JSON body of a binding event.
type bindingContent struct {
	NametagHash string `json:"nametag_hash"`
	Address     string `json:"address"`
	Verified    int64  `json:"verified"`
}

// CreateBindingEvent publishes the binding from a nametag to the signing key
// and its settlement address. The event is parameterized-replaceable on the
// nametag hash: re-binding the same nametag supersedes the old binding.
func CreateBindingEvent(kp *nostr.KeyPair, tag, address, defaultCountry string) (*nostr.Event, error) {
	hashed := Hash(tag, defaultCountry)

	content, err := json.Marshal(bindingContent{
		NametagHash: hashed,
		Address:     address,
		Verified:    time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	e := &nostr.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      nostr.KindAppData,
		Tags: [][]string{
			{"d", hashed},
			{"nametag", hashed},
			// Relays index "t", making the hash queryable.
			{"t", hashed},
			{"address", address},
		},
		Content: string(content),
	}

	if err := e.Sign(kp); err != nil {
		return nil, err
	}

	return e, nil
}

// LookupFilter returns the filter resolving a nametag to its binding. This is
// the forward direction: you must already know the nametag.
func LookupFilter(tag, defaultCountry string) *nostr.Filter {
	return &nostr.Filter{
		Kinds: []int{nostr.KindAppData},
		TTags: []string{Hash(tag, defaultCountry)},
		Limit: 1,
	}
}

// OwnerFilter returns the filter listing every binding published by a key.
func OwnerFilter(pubkeyHex string) *nostr.Filter {
	return &nostr.Filter{
		Kinds:   []int{nostr.KindAppData},
		Authors: []string{pubkeyHex},
		Limit:   10,
	}
}

// BindingHash extracts the nametag hash from a binding event, or "".
func BindingHash(e *nostr.Event) string {
	if e == nil || e.Kind != nostr.KindAppData {
		return ""
	}

	if v := e.TagValue("nametag"); v != "" {
		return v
	}

	var c bindingContent
	if err := json.Unmarshal([]byte(e.Content), &c); err != nil {
		return ""
	}

	return c.NametagHash
}

// BindingAddress extracts the settlement address from a binding event, or "".
func BindingAddress(e *nostr.Event) string {
	if e == nil || e.Kind != nostr.KindAppData {
		return ""
	}

	if v := e.TagValue("address"); v != "" {
		return v
	}

	var c bindingContent
	if err := json.Unmarshal([]byte(e.Content), &c); err != nil {
		return ""
	}

	return c.Address
}

// normalizePhone parses and validates a phone number, returning its E.164
// form. Numbers with an explicit country code ignore defaultCountry.
func normalizePhone(s, defaultCountry string) (string, bool) {
	region := defaultCountry
	if strings.HasPrefix(s, "+") {
		region = ""
	}

	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return "", false
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}

	return phonenumbers.Format(num, phonenumbers.E164), true
}

// likelyPhoneNumber is a cheap heuristic: a leading +, or mostly digits with
// at least seven of them.
func likelyPhoneNumber(s string) bool {
	if strings.HasPrefix(s, "+") {
		return true
	}

	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}

	return digits >= 7 && len(s) > 0 && float64(digits)/float64(len(s)) > 0.5
}
