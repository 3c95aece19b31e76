package nostr

import "strconv"

// Event kinds. The reserved private-messaging kinds (KindChatMessage,
// KindReadReceipt, KindSeal, KindGiftWrap) are a wire contract and must match
// every peer exactly.
const (
	KindProfile        = 0
	KindTextNote       = 1
	KindRecommendRelay = 2
	KindContacts       = 3
	KindEncryptedDM    = 4
	KindDeletion       = 5
	KindReaction       = 7
	KindSeal           = 13
	KindChatMessage    = 14
	KindReadReceipt    = 15
	KindGiftWrap       = 1059
	KindRelayList      = 10002
	KindAppData        = 30078

	// Unicity custom kinds (31000-31999 reserved).
	KindAgentProfile           = 31111
	KindAgentLocation          = 31112
	KindTokenTransfer          = 31113
	KindFileMetadata           = 31114
	KindPaymentRequest         = 31115
	KindPaymentRequestResponse = 31116
)

// IsReplaceableKind reports whether relays keep only the most recent event of
// this kind per author.
func IsReplaceableKind(kind int) bool {
	return kind == KindProfile || kind == KindContacts || (kind >= 10000 && kind < 20000)
}

// IsEphemeralKind reports whether relays do not store events of this kind.
func IsEphemeralKind(kind int) bool {
	return kind >= 20000 && kind < 30000
}

// IsParameterizedReplaceableKind reports whether events of this kind are
// replaceable per their "d" tag.
func IsParameterizedReplaceableKind(kind int) bool {
	return kind >= 30000 && kind < 40000
}

// KindName returns a human-readable name for an event kind.
func KindName(kind int) string {
	switch kind {
	case KindProfile:
		return "Profile"
	case KindTextNote:
		return "Text Note"
	case KindRecommendRelay:
		return "Recommend Relay"
	case KindContacts:
		return "Contacts"
	case KindEncryptedDM:
		return "Encrypted DM"
	case KindDeletion:
		return "Deletion"
	case KindReaction:
		return "Reaction"
	case KindSeal:
		return "Seal"
	case KindChatMessage:
		return "Chat Message"
	case KindReadReceipt:
		return "Read Receipt"
	case KindGiftWrap:
		return "Gift Wrap"
	case KindRelayList:
		return "Relay List"
	case KindAppData:
		return "App Data"
	case KindAgentProfile:
		return "Agent Profile"
	case KindAgentLocation:
		return "Agent Location"
	case KindTokenTransfer:
		return "Token Transfer"
	case KindFileMetadata:
		return "File Metadata"
	case KindPaymentRequest:
		return "Payment Request"
	case KindPaymentRequestResponse:
		return "Payment Request Response"
	default:
		return "Unknown (" + strconv.Itoa(kind) + ")"
	}
}
