package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajsahu24/invitation-frontend/internal/preview"
)

func TestMemoryStore_SaveLoadClear(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "inv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := preview.Snapshot{Title: "Sam & Lee", Metadata: map[string]any{"venue": "Garden"}}
	require.NoError(t, s.Save(ctx, "inv-1", snap))

	got, ok, err := s.Load(ctx, "inv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.Equal(got))

	require.NoError(t, s.Clear(ctx, "inv-1"))

	_, ok, err = s.Load(ctx, "inv-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_SaveReplaces(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "inv-1", preview.Snapshot{Title: "first"}))
	require.NoError(t, s.Save(ctx, "inv-1", preview.Snapshot{Title: "second"}))

	got, ok, err := s.Load(ctx, "inv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Title)
}
