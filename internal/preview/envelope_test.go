package preview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Canonical(t *testing.T) {
	raw := []byte(`{"type":"UPDATE_INVITATION","version":1,"data":{"invitation_title":"Sam & Lee"}}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeUpdate, env.Type)
	assert.Equal(t, 1, env.Version)
	require.NotNil(t, env.Data)
	assert.Equal(t, "Sam & Lee", env.Data.Title)
}

func TestDecodeEnvelope_Ready(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"IFRAME_READY"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeReady, env.Type)
	assert.Nil(t, env.Data)
}

func TestDecodeEnvelope_LegacyPayloadShape(t *testing.T) {
	// The dashboard preview pane historically sent {type, payload}.
	raw := []byte(`{"type":"INVITATION_PREVIEW_UPDATE","payload":{"invitation_title":"Birthday","metadata":{"venue":"Garden"}}}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeUpdate, env.Type, "legacy type must normalize to the canonical one")
	require.NotNil(t, env.Data)
	assert.Equal(t, "Birthday", env.Data.Title)
	assert.Equal(t, "Garden", env.Data.Metadata["venue"])
}

func TestDecodeEnvelope_UnknownTypePreserved(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"FUTURE_MESSAGE"}`))
	require.NoError(t, err, "unknown types decode fine and are dropped by the recipient")
	assert.Equal(t, "FUTURE_MESSAGE", env.Type)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	assert.Error(t, err)
}

func TestUpdateEnvelope_WireShape(t *testing.T) {
	env := UpdateEnvelope(Snapshot{Title: "Sam & Lee", Type: "wedding"})

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"UPDATE_INVITATION","version":1,"data":{"invitation_title":"Sam & Lee","invitation_type":"wedding"}}`,
		string(data))
}

func TestSnapshot_Equal(t *testing.T) {
	a := Snapshot{Title: "T", Metadata: map[string]any{"venue": "Garden"}}
	b := Snapshot{Title: "T", Metadata: map[string]any{"venue": "Garden"}}
	c := Snapshot{Title: "T", Metadata: map[string]any{"venue": "Hall"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Snapshot{Title: "Other"}))
}
