package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// Event is the addressable signed unit of the protocol.
//
// Invariants: ID is the SHA-256 hash of the canonical serialization, and Sig
// is a valid Schnorr signature of ID under PubKey. Neither is self-enforcing;
// callers validate both at the trust boundary with CheckID and Verify before
// relying on an event received from the network.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// SerializeCanonical returns the canonical id preimage for an event:
// the UTF-8 JSON array [0,pubkey,created_at,kind,tags,content] with no
// extraneous whitespace and no HTML escaping. Every byte is load-bearing;
// any deviation invalidates every peer's signature check.
func SerializeCanonical(pubkey string, createdAt int64, kind int, tags [][]string, content string) ([]byte, error) {
	if tags == nil {
		tags = [][]string{}
	}

	tagsJSON, err := marshalJSON(tags)
	if err != nil {
		return nil, err
	}

	contentJSON, err := marshalJSON(content)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 64+len(tagsJSON)+len(contentJSON))
	buf = append(buf, `[0,"`...)
	buf = append(buf, pubkey...)
	buf = append(buf, `",`...)
	buf = strconv.AppendInt(buf, createdAt, 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(kind), 10)
	buf = append(buf, ',')
	buf = append(buf, tagsJSON...)
	buf = append(buf, ',')
	buf = append(buf, contentJSON...)
	buf = append(buf, ']')

	return buf, nil
}

// ComputeID returns the hex event id: the SHA-256 hash of the canonical
// serialization.
func (e *Event) ComputeID() (string, error) {
	b, err := SerializeCanonical(e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:]), nil
}

// Sign stamps the event with the key pair's public key, computes its id, and
// signs it.
func (e *Event) Sign(kp *KeyPair) error {
	e.PubKey = kp.PublicKeyHex()

	if e.Tags == nil {
		e.Tags = [][]string{}
	}

	id, err := e.ComputeID()
	if err != nil {
		return err
	}

	e.ID = id

	msg, err := hex.DecodeString(id)
	if err != nil {
		return err
	}

	sig, err := kp.SignHex(msg)
	if err != nil {
		return err
	}

	e.Sig = sig

	return nil
}

// Verify reports whether Sig is a valid signature of ID under PubKey. It does
// not check that ID matches the content; use CheckID for that.
func (e *Event) Verify() bool {
	msg, err := hex.DecodeString(e.ID)
	if err != nil {
		return false
	}

	return VerifySignature(e.Sig, msg, e.PubKey)
}

// CheckID reports whether ID matches the canonical hash of the event's
// content.
func (e *Event) CheckID() bool {
	id, err := e.ComputeID()
	if err != nil {
		return false
	}

	return id == e.ID
}

// TagValue returns the first value of the named tag, or "" if the tag is
// absent. Lookup is by a tag's first element.
func (e *Event) TagValue(name string) string {
	for _, tag := range e.Tags {
		if len(tag) > 1 && tag[0] == name {
			return tag[1]
		}
	}

	return ""
}

// TagValues returns all values of the named tag.
func (e *Event) TagValues(name string) []string {
	var values []string

	for _, tag := range e.Tags {
		if len(tag) > 1 && tag[0] == name {
			values = append(values, tag[1])
		}
	}

	return values
}

// HasTag reports whether the event carries the named tag.
func (e *Event) HasTag(name string) bool {
	for _, tag := range e.Tags {
		if len(tag) > 0 && tag[0] == name {
			return true
		}
	}

	return false
}

// marshalJSON encodes a value as JSON without HTML escaping and without a
// trailing newline. encoding/json's default escaping of <, > and & would
// change the id preimage.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
