package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsCanonical(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice|bob", PairKey("bob", "alice"))
}

func TestEdgeSortKey(t *testing.T) {
	assert.Equal(t, "LIKES#bob", EdgeSortKey(EdgeKindLikes, "bob"))
	assert.Equal(t, "MATCHES#carol", EdgeSortKey(EdgeKindMatches, "carol"))
}

func TestParsePostbackPayload(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid like", raw: `{"v":1,"action":"like","targetUserId":"bob"}`},
		{name: "valid settings without target", raw: `{"v":1,"action":"settings"}`},
		{name: "like without target", raw: `{"v":1,"action":"like"}`, wantErr: true},
		{name: "wrong version", raw: `{"v":2,"action":"like","targetUserId":"bob"}`, wantErr: true},
		{name: "missing version", raw: `{"action":"like","targetUserId":"bob"}`, wantErr: true},
		{name: "empty action", raw: `{"v":1,"action":"  "}`, wantErr: true},
		{name: "not json", raw: `like bob`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := ParsePostbackPayload([]byte(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PostbackSchemaVersion, payload.V)
		})
	}
}

func TestInboundEventValidate(t *testing.T) {
	valid := InboundEvent{
		Kind:         EventKindMessage,
		SourceUserID: "alice",
		Message:      &InboundMessage{Type: MessageTypeText, Text: "hi"},
	}
	assert.NoError(t, valid.Validate())

	noUser := valid
	noUser.SourceUserID = " "
	assert.ErrorIs(t, noUser.Validate(), ErrValidation)

	noBody := InboundEvent{Kind: EventKindMessage, SourceUserID: "alice"}
	assert.ErrorIs(t, noBody.Validate(), ErrValidation)

	emptyPostback := InboundEvent{Kind: EventKindPostback, SourceUserID: "alice"}
	assert.ErrorIs(t, emptyPostback.Validate(), ErrValidation)

	unknownKind := InboundEvent{Kind: "sticker", SourceUserID: "alice"}
	assert.ErrorIs(t, unknownKind.Validate(), ErrValidation)
}

func TestNewConversationState(t *testing.T) {
	fresh := NewConversationState("alice", false)
	assert.Equal(t, FlowOnboarding, fresh.Flow)
	assert.Equal(t, StepWelcome, fresh.Step)
	assert.Zero(t, fresh.Version)

	returning := NewConversationState("alice", true)
	assert.Equal(t, FlowMainMenu, returning.Flow)
}

func TestConversationStateVersionRoundTrips(t *testing.T) {
	state := ConversationState{UserID: "alice", Flow: FlowBrowsing, Version: 7}
	raw, err := json.Marshal(&state)
	require.NoError(t, err)

	// The version field name is load-bearing: the store's compare-and-set
	// reads it out of the raw document.
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 7, doc["version"])
}

func TestExternalServiceError(t *testing.T) {
	inner := assert.AnError
	err := NewExternalServiceError("redis", inner)
	assert.True(t, IsExternal(err))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsExternal(inner))
}
