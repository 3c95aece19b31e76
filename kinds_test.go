package nostr

import (
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"
)

func TestKindClasses(t *testing.T) {
	t.Parallel()

	if !IsReplaceableKind(KindProfile) || !IsReplaceableKind(KindContacts) || !IsReplaceableKind(KindRelayList) {
		t.Error("replaceable kind not recognized")
	}

	if IsReplaceableKind(KindTextNote) {
		t.Error("text note is not replaceable")
	}

	if !IsEphemeralKind(20001) || IsEphemeralKind(KindGiftWrap) {
		t.Error("ephemeral range wrong")
	}

	if !IsParameterizedReplaceableKind(KindAppData) || !IsParameterizedReplaceableKind(KindTokenTransfer) {
		t.Error("parameterized replaceable kind not recognized")
	}

	if IsParameterizedReplaceableKind(KindTextNote) {
		t.Error("text note is not parameterized replaceable")
	}
}

func TestKindName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "name", "Gift Wrap", KindName(KindGiftWrap))
	assert.Equal(t, "name", "Token Transfer", KindName(KindTokenTransfer))

	if !strings.Contains(KindName(424242), "424242") {
		t.Errorf("unknown kind name is %q", KindName(424242))
	}
}
