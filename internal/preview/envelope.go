package preview

import (
	"encoding/json"
	"fmt"
)

// Message types carried over the preview channel. The embedded document
// announces itself with TypeReady, the editor pushes edits with TypeUpdate,
// and guest-driven edits flow back with TypeChanged.
const (
	TypeReady   = "IFRAME_READY"
	TypeUpdate  = "UPDATE_INVITATION"
	TypeChanged = "INVITATION_CHANGED"

	// legacyTypeUpdate is the envelope shape the dashboard preview pane
	// historically used ({type, payload} instead of {type, data}). It is
	// accepted on decode and normalized; only the canonical shape is sent.
	legacyTypeUpdate = "INVITATION_PREVIEW_UPDATE"
)

// EnvelopeVersion is the current canonical envelope version.
const EnvelopeVersion = 1

// Envelope is the canonical wire format for preview channel messages.
type Envelope struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Data    *Snapshot `json:"data,omitempty"`
}

// ReadyEnvelope builds the readiness handshake message.
func ReadyEnvelope() Envelope {
	return Envelope{Type: TypeReady, Version: EnvelopeVersion}
}

// UpdateEnvelope wraps a snapshot for delivery to the preview document.
func UpdateEnvelope(s Snapshot) Envelope {
	return Envelope{Type: TypeUpdate, Version: EnvelopeVersion, Data: &s}
}

// ChangedEnvelope wraps a snapshot emitted by the preview document.
func ChangedEnvelope(s Snapshot) Envelope {
	return Envelope{Type: TypeChanged, Version: EnvelopeVersion, Data: &s}
}

// DecodeEnvelope parses a wire message into the canonical envelope,
// normalizing the legacy {type, payload} shape. Unknown types decode
// successfully and are dropped by the recipient, which keeps the protocol
// forward compatible.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var wire struct {
		Type    string    `json:"type"`
		Version int       `json:"version"`
		Data    *Snapshot `json:"data"`
		Payload *Snapshot `json:"payload"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, fmt.Errorf("malformed preview message: %w", err)
	}

	env := Envelope{Type: wire.Type, Version: wire.Version, Data: wire.Data}
	if wire.Type == legacyTypeUpdate {
		env.Type = TypeUpdate
		if env.Data == nil {
			env.Data = wire.Payload
		}
	}
	return env, nil
}
