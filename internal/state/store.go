// Package state holds in-progress preview snapshots between connections.
// It replaces the original ad hoc process-wide store with an explicit
// container: hydrated when an editor attaches, read when a preview document
// becomes ready, and cleared on teardown. Implementations are safe for
// concurrent use.
package state

import (
	"context"

	"github.com/rajsahu24/invitation-frontend/internal/preview"
)

// Store retains the latest snapshot per invitation.
type Store interface {
	// Save replaces the retained snapshot for an invitation.
	Save(ctx context.Context, invitationID string, snap preview.Snapshot) error

	// Load returns the retained snapshot, if any.
	Load(ctx context.Context, invitationID string) (preview.Snapshot, bool, error)

	// Clear removes the retained snapshot.
	Clear(ctx context.Context, invitationID string) error

	// Close releases any underlying resources.
	Close() error
}
