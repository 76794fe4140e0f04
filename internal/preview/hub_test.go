package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajsahu24/invitation-frontend/internal/logging"
)

// memoryStore is a minimal SnapshotStore for hub tests.
type memoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]Snapshot)}
}

func (s *memoryStore) Save(_ context.Context, id string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[id] = snap
	return nil
}

func (s *memoryStore) Load(_ context.Context, id string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	return snap, ok, nil
}

func (s *memoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

func newHubServer(t *testing.T, store SnapshotStore, allowedOrigins []string) *httptest.Server {
	t.Helper()
	hub := NewHub(store, allowedOrigins, logging.Default(), WithHubDebounce(50*time.Millisecond))
	mux := http.NewServeMux()
	mux.Handle("GET /ws/preview/{invitation_id}", hub.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, invitationID, role string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/preview/" + invitationID + "?role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	return env
}

func TestHub_EditorUpdateReachesPreview(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	previewConn := dial(t, srv, "inv-1", RolePreview)
	editorConn := dial(t, srv, "inv-1", RoleEditor)

	// Give the server a moment to register both connections, then complete
	// the readiness handshake.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, previewConn.WriteJSON(ReadyEnvelope()))
	time.Sleep(50 * time.Millisecond)

	snap := Snapshot{Title: "Sam & Lee", Type: "wedding"}
	require.NoError(t, editorConn.WriteJSON(UpdateEnvelope(snap)))

	env := readEnvelope(t, previewConn)
	assert.Equal(t, TypeUpdate, env.Type)
	require.NotNil(t, env.Data)
	assert.True(t, snap.Equal(*env.Data))
}

func TestHub_EditorBurstCoalesces(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	previewConn := dial(t, srv, "inv-burst", RolePreview)
	editorConn := dial(t, srv, "inv-burst", RoleEditor)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, previewConn.WriteJSON(ReadyEnvelope()))
	time.Sleep(50 * time.Millisecond)

	// A burst of keystroke-speed edits collapses into one broadcast
	// carrying the last state.
	for _, title := range []string{"S", "Sa", "Sam", "Sam &", "Sam & Lee"} {
		require.NoError(t, editorConn.WriteJSON(UpdateEnvelope(Snapshot{Title: title})))
	}

	env := readEnvelope(t, previewConn)
	assert.Equal(t, TypeUpdate, env.Type)
	require.NotNil(t, env.Data)
	assert.Equal(t, "Sam & Lee", env.Data.Title)

	previewConn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err := previewConn.ReadMessage()
	assert.Error(t, err, "the burst produces exactly one broadcast")
}

func TestHub_ReadyForwardedToEditorAndSnapshotReplayed(t *testing.T) {
	store := newMemoryStore()
	srv := newHubServer(t, store, nil)

	editorConn := dial(t, srv, "inv-2", RoleEditor)
	time.Sleep(50 * time.Millisecond)

	// The editor pushes an edit while the preview document is still loading.
	snap := Snapshot{Title: "Early draft"}
	require.NoError(t, editorConn.WriteJSON(UpdateEnvelope(snap)))
	time.Sleep(50 * time.Millisecond)

	previewConn := dial(t, srv, "inv-2", RolePreview)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, previewConn.WriteJSON(ReadyEnvelope()))

	// Editor observes the readiness handshake.
	env := readEnvelope(t, editorConn)
	assert.Equal(t, TypeReady, env.Type)

	// The preview receives the snapshot authored before it was ready,
	// without requiring a further edit.
	env = readEnvelope(t, previewConn)
	assert.Equal(t, TypeUpdate, env.Type)
	require.NotNil(t, env.Data)
	assert.True(t, snap.Equal(*env.Data))
}

func TestHub_NothingSentBeforeReady(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	previewConn := dial(t, srv, "inv-gate", RolePreview)
	editorConn := dial(t, srv, "inv-gate", RoleEditor)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, editorConn.WriteJSON(UpdateEnvelope(Snapshot{Title: "Too soon"})))

	previewConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := previewConn.ReadMessage()
	assert.Error(t, err, "a preview that has not signalled readiness receives nothing")
}

func TestHub_NoReplayWithoutRetainedSnapshot(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	previewConn := dial(t, srv, "inv-3", RolePreview)
	require.NoError(t, previewConn.WriteJSON(ReadyEnvelope()))

	previewConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := previewConn.ReadMessage()
	assert.Error(t, err, "nothing to replay means nothing is sent")
}

func TestHub_ChangedReachesEditorAndIsRetained(t *testing.T) {
	store := newMemoryStore()
	srv := newHubServer(t, store, nil)

	editorConn := dial(t, srv, "inv-4", RoleEditor)
	previewConn := dial(t, srv, "inv-4", RolePreview)
	time.Sleep(50 * time.Millisecond)

	guestEdit := Snapshot{Title: "Guest edit", Metadata: map[string]any{"rsvp": "going"}}
	require.NoError(t, previewConn.WriteJSON(ChangedEnvelope(guestEdit)))

	env := readEnvelope(t, editorConn)
	assert.Equal(t, TypeChanged, env.Type)
	require.NotNil(t, env.Data)
	assert.True(t, guestEdit.Equal(*env.Data))

	snap, ok, err := store.Load(context.Background(), "inv-4")
	require.NoError(t, err)
	require.True(t, ok, "the embedded side is authoritative; its state is retained")
	assert.True(t, guestEdit.Equal(snap))
}

func TestHub_LegacyEnvelopeNormalized(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	previewConn := dial(t, srv, "inv-5", RolePreview)
	editorConn := dial(t, srv, "inv-5", RoleEditor)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, previewConn.WriteJSON(ReadyEnvelope()))
	time.Sleep(50 * time.Millisecond)

	legacy := `{"type":"INVITATION_PREVIEW_UPDATE","payload":{"invitation_title":"Legacy pane"}}`
	require.NoError(t, editorConn.WriteMessage(websocket.TextMessage, []byte(legacy)))

	env := readEnvelope(t, previewConn)
	assert.Equal(t, TypeUpdate, env.Type, "only the canonical envelope is emitted")
	require.NotNil(t, env.Data)
	assert.Equal(t, "Legacy pane", env.Data.Title)
}

func TestHub_RejectsUnknownRole(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), nil)

	resp, err := http.Get(srv.URL + "/ws/preview/inv-6?role=spectator")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub_RejectsDisallowedOrigin(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), []string{"https://templates.invitely.app"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/preview/inv-7?role=preview"

	header := http.Header{"Origin": []string{"https://attacker.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_AllowsConfiguredOrigin(t *testing.T) {
	srv := newHubServer(t, newMemoryStore(), []string{"https://templates.invitely.app"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/preview/inv-8?role=preview"

	header := http.Header{"Origin": []string{"https://templates.invitely.app"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestHub_SnapshotClearedWhenRoomEmpties(t *testing.T) {
	store := newMemoryStore()
	srv := newHubServer(t, store, nil)

	editorConn := dial(t, srv, "inv-9", RoleEditor)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, editorConn.WriteJSON(UpdateEnvelope(Snapshot{Title: "Draft"})))
	time.Sleep(50 * time.Millisecond)

	_, ok, err := store.Load(context.Background(), "inv-9")
	require.NoError(t, err)
	require.True(t, ok)

	editorConn.Close()
	time.Sleep(100 * time.Millisecond)

	_, ok, err = store.Load(context.Background(), "inv-9")
	require.NoError(t, err)
	assert.False(t, ok, "teardown clears the retained snapshot")
}
