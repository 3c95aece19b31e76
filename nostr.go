// Package nostr implements the cryptographic core of the Unicity Nostr SDK:
// signed, content-addressed events exchanged over untrusted relays, a subset
// of which carry end-to-end encrypted, sender-anonymous private messages.
//
// The root package holds the event model, key pairs, and subscription
// filters. Protocol layers live in subpackages: nip04 (legacy encryption),
// nip44 (modern authenticated encryption), nip17 (gift-wrapped private
// messages), and nip19 (bech32 key encoding).
//
// Every operation is a pure function over explicit byte buffers and explicit
// key material; there is no shared mutable state, and all operations are safe
// to call concurrently.
package nostr
