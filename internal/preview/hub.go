package preview

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rajsahu24/invitation-frontend/internal/httputil"
	"github.com/rajsahu24/invitation-frontend/internal/logging"
	"github.com/rajsahu24/invitation-frontend/internal/metrics"
)

// Connection roles on the preview channel.
const (
	RoleEditor  = "editor"
	RolePreview = "preview"
)

// SnapshotStore retains the latest snapshot per invitation so it can be
// replayed when a preview document becomes ready. Satisfied by state.Store.
type SnapshotStore interface {
	Save(ctx context.Context, invitationID string, snap Snapshot) error
	Load(ctx context.Context, invitationID string) (Snapshot, bool, error)
	Clear(ctx context.Context, invitationID string) error
}

// Publisher fans snapshots out to other BFF instances.
type Publisher interface {
	Publish(invitationID string, env Envelope) error
}

// Hub relays preview channel envelopes between editor and preview
// connections of the same invitation. Editor→preview traffic carries
// UPDATE_INVITATION; preview→editor traffic carries IFRAME_READY and
// INVITATION_CHANGED. The hub retains the newest snapshot and replays it to
// a preview connection when its IFRAME_READY arrives, so snapshots authored
// before the document finished loading are not lost.
//
// Editor fan-out is debounced per room: snapshots are retained immediately,
// but bursts of edits collapse into a single broadcast.
type Hub struct {
	store    SnapshotStore
	log      *logging.Logger
	upgrader websocket.Upgrader
	debounce time.Duration

	mu        sync.RWMutex
	rooms     map[string]*room
	publisher Publisher
}

type room struct {
	mu       sync.RWMutex
	editors  map[*channelConn]bool
	previews map[*channelConn]bool

	// pending is the newest snapshot awaiting the debounced fan-out.
	pending *Snapshot
	timer   *time.Timer
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubDebounce overrides the editor fan-out debounce interval.
// Zero disables debouncing entirely.
func WithHubDebounce(d time.Duration) HubOption {
	return func(h *Hub) { h.debounce = d }
}

type channelConn struct {
	ws   *websocket.Conn
	role string

	// gorilla permits one concurrent writer per connection
	writeMu sync.Mutex

	mu    sync.Mutex
	ready bool
}

func (c *channelConn) send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(env)
}

func (c *channelConn) markReady() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

func (c *channelConn) isReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// NewHub creates a relay hub. allowedOrigins restricts which origins may
// open a channel; an empty list accepts any origin, which is only intended
// for development setups where the template origin is not known.
func NewHub(store SnapshotStore, allowedOrigins []string, log *logging.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		store:    store,
		log:      log,
		rooms:    make(map[string]*room),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

// SetPublisher attaches the cross-instance bridge. Optional.
func (h *Hub) SetPublisher(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

// Handler upgrades GET /ws/preview/{invitation_id}?role=editor|preview to a
// websocket and joins the connection to the invitation's room.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invitationID := r.PathValue("invitation_id")
		if invitationID == "" {
			httputil.WriteMessage(w, http.StatusBadRequest, "Invitation ID is required")
			return
		}

		role := r.URL.Query().Get("role")
		if role != RoleEditor && role != RolePreview {
			httputil.WriteMessage(w, http.StatusBadRequest, "Role must be editor or preview")
			return
		}

		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response
			h.log.WarnContext(r.Context(), "preview channel upgrade failed",
				"invitation_id", invitationID, "error", err)
			return
		}

		conn := &channelConn{ws: ws, role: role}
		h.join(invitationID, conn)
		metrics.PreviewConnections.WithLabelValues(role).Inc()

		defer func() {
			h.leave(invitationID, conn)
			metrics.PreviewConnections.WithLabelValues(role).Dec()
			ws.Close()
		}()

		h.readLoop(r.Context(), invitationID, conn)
	})
}

func (h *Hub) readLoop(ctx context.Context, invitationID string, conn *channelConn) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			h.log.DebugContext(ctx, "dropping malformed preview message",
				"invitation_id", invitationID, "error", err)
			continue
		}

		switch conn.role {
		case RoleEditor:
			h.handleEditorMessage(ctx, invitationID, env)
		case RolePreview:
			h.handlePreviewMessage(ctx, invitationID, conn, env)
		}
	}
}

func (h *Hub) handleEditorMessage(ctx context.Context, invitationID string, env Envelope) {
	// Editors only push snapshots; anything else is dropped silently.
	if env.Type != TypeUpdate || env.Data == nil {
		return
	}

	metrics.PreviewMessagesTotal.WithLabelValues(env.Type, "editor_to_preview").Inc()

	// Retain immediately so readiness replay is never behind the editor.
	if err := h.store.Save(ctx, invitationID, *env.Data); err != nil {
		h.log.WarnContext(ctx, "snapshot save failed",
			"invitation_id", invitationID, "error", err)
	}

	if h.debounce <= 0 {
		h.fanOut(invitationID, *env.Data)
		return
	}

	h.mu.RLock()
	rm := h.rooms[invitationID]
	h.mu.RUnlock()
	if rm == nil {
		return
	}

	// Single-flight: a new edit replaces the pending timer rather than
	// queuing another fan-out.
	rm.mu.Lock()
	snap := *env.Data
	rm.pending = &snap
	if rm.timer != nil {
		rm.timer.Stop()
	}
	rm.timer = time.AfterFunc(h.debounce, func() { h.flushRoom(invitationID, rm) })
	rm.mu.Unlock()
}

func (h *Hub) flushRoom(invitationID string, rm *room) {
	h.mu.RLock()
	current := h.rooms[invitationID]
	h.mu.RUnlock()
	if current != rm {
		// The room emptied before the timer fired.
		return
	}

	rm.mu.Lock()
	snap := rm.pending
	rm.pending = nil
	rm.mu.Unlock()
	if snap == nil {
		return
	}

	h.fanOut(invitationID, *snap)
}

// fanOut delivers a snapshot to local preview connections and to the
// cross-instance bridge when one is attached.
func (h *Hub) fanOut(invitationID string, snap Snapshot) {
	env := UpdateEnvelope(snap)
	h.broadcast(invitationID, RolePreview, env)

	h.mu.RLock()
	publisher := h.publisher
	h.mu.RUnlock()
	if publisher != nil {
		if err := publisher.Publish(invitationID, env); err != nil {
			h.log.Warn("snapshot bridge publish failed",
				"invitation_id", invitationID, "error", err)
		}
	}
}

func (h *Hub) handlePreviewMessage(ctx context.Context, invitationID string, conn *channelConn, env Envelope) {
	switch env.Type {
	case TypeReady:
		metrics.PreviewMessagesTotal.WithLabelValues(env.Type, "preview_to_editor").Inc()
		conn.markReady()
		h.broadcast(invitationID, RoleEditor, ReadyEnvelope())

		// Replay the retained snapshot so edits made while the document
		// was loading reach it without another keystroke.
		snap, ok, err := h.store.Load(ctx, invitationID)
		if err != nil {
			h.log.WarnContext(ctx, "snapshot load failed",
				"invitation_id", invitationID, "error", err)
			return
		}
		if ok {
			if err := conn.send(UpdateEnvelope(snap)); err != nil {
				h.log.DebugContext(ctx, "snapshot replay failed",
					"invitation_id", invitationID, "error", err)
			}
		}
	case TypeChanged:
		if env.Data == nil {
			return
		}
		metrics.PreviewMessagesTotal.WithLabelValues(env.Type, "preview_to_editor").Inc()

		// The embedded side is authoritative for the fields it edits.
		if err := h.store.Save(ctx, invitationID, *env.Data); err != nil {
			h.log.WarnContext(ctx, "snapshot save failed",
				"invitation_id", invitationID, "error", err)
		}
		h.broadcast(invitationID, RoleEditor, ChangedEnvelope(*env.Data))
	}
}

// Deliver injects an envelope received from another BFF instance into the
// local room, without republishing it to the bridge.
func (h *Hub) Deliver(invitationID string, env Envelope) {
	if env.Type != TypeUpdate || env.Data == nil {
		return
	}
	metrics.PreviewMessagesTotal.WithLabelValues(env.Type, "bridge").Inc()
	h.broadcast(invitationID, RolePreview, UpdateEnvelope(*env.Data))
}

func (h *Hub) broadcast(invitationID, role string, env Envelope) {
	h.mu.RLock()
	rm := h.rooms[invitationID]
	h.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.RLock()
	targets := rm.previews
	if role == RoleEditor {
		targets = rm.editors
	}
	conns := make([]*channelConn, 0, len(targets))
	for c := range targets {
		conns = append(conns, c)
	}
	rm.mu.RUnlock()

	for _, c := range conns {
		// Preview documents receive nothing until their readiness
		// handshake; the retained snapshot is replayed to them then.
		if c.role == RolePreview && !c.isReady() {
			continue
		}
		if err := c.send(env); err != nil {
			h.log.Debug("preview broadcast failed", "invitation_id", invitationID, "error", err)
		}
	}
}

func (h *Hub) join(invitationID string, conn *channelConn) {
	h.mu.Lock()
	rm := h.rooms[invitationID]
	if rm == nil {
		rm = &room{
			editors:  make(map[*channelConn]bool),
			previews: make(map[*channelConn]bool),
		}
		h.rooms[invitationID] = rm
	}
	h.mu.Unlock()

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if conn.role == RoleEditor {
		rm.editors[conn] = true
	} else {
		rm.previews[conn] = true
	}
}

func (h *Hub) leave(invitationID string, conn *channelConn) {
	h.mu.Lock()
	rm := h.rooms[invitationID]
	if rm == nil {
		h.mu.Unlock()
		return
	}

	rm.mu.Lock()
	delete(rm.editors, conn)
	delete(rm.previews, conn)
	empty := len(rm.editors) == 0 && len(rm.previews) == 0
	if empty && rm.timer != nil {
		rm.timer.Stop()
		rm.timer = nil
		rm.pending = nil
	}
	rm.mu.Unlock()

	if empty {
		delete(h.rooms, invitationID)
	}
	h.mu.Unlock()

	if empty {
		// Editing session is over; drop the retained snapshot.
		if err := h.store.Clear(context.Background(), invitationID); err != nil {
			h.log.Warn("snapshot clear failed", "invitation_id", invitationID, "error", err)
		}
	}
}
