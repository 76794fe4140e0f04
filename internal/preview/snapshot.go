// Package preview implements the live-preview synchronization protocol
// between the invitation editor and the embedded template document, plus the
// websocket relay that carries it.
package preview

import "reflect"

// Snapshot is the in-progress edit state sent from the editor to the
// preview document. Each change produces a new snapshot that supersedes the
// previous one; snapshots carry no version or identity of their own.
type Snapshot struct {
	Title      string         `json:"invitation_title,omitempty"`
	Message    string         `json:"invitation_message,omitempty"`
	TagLine    string         `json:"invitation_tag_line,omitempty"`
	Type       string         `json:"invitation_type,omitempty"`
	TemplateID string         `json:"invitation_template_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Equal reports whether two snapshots carry identical content. Applying an
// equal snapshot is a no-op on the preview side, so equal snapshots are
// never re-sent.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Title == other.Title &&
		s.Message == other.Message &&
		s.TagLine == other.TagLine &&
		s.Type == other.Type &&
		s.TemplateID == other.TemplateID &&
		reflect.DeepEqual(s.Metadata, other.Metadata)
}
