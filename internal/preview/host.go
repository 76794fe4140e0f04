package preview

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is how long the host waits after an edit before pushing a
// snapshot, so rapid keystrokes collapse into a single message.
const DefaultDebounce = 150 * time.Millisecond

// Sender delivers an envelope to the embedded preview document.
type Sender interface {
	Send(Envelope) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(Envelope) error

func (f SenderFunc) Send(env Envelope) error { return f(env) }

// HostOption configures a Host.
type HostOption func(*Host)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) HostOption {
	return func(h *Host) { h.debounce = d }
}

// WithOnChanged registers a callback for INVITATION_CHANGED messages from
// the embedded document. The embedded side is authoritative for the fields
// it controls; the callback receives the full replacement snapshot.
func WithOnChanged(fn func(Snapshot)) HostOption {
	return func(h *Host) { h.onChanged = fn }
}

// Host is the editor side of the preview channel for one embedded document
// instance. It retains the latest snapshot, gates sends on the readiness
// handshake, and debounces bursts of edits into a single UPDATE_INVITATION.
//
// A fresh Host starts in the loading state; receipt of IFRAME_READY is the
// only transition to ready. Close detaches the host permanently.
type Host struct {
	sender    Sender
	debounce  time.Duration
	onChanged func(Snapshot)

	mu       sync.Mutex
	timer    *time.Timer
	latest   *Snapshot
	lastSent *Snapshot
	ready    bool
	closed   bool
}

func NewHost(sender Sender, opts ...HostOption) *Host {
	h := &Host{
		sender:   sender,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish records an edit and schedules a debounced push. Only the most
// recent snapshot within the debounce window is ever sent, and nothing is
// sent before the embedded document has signalled readiness — the snapshot
// is retained and delivered when IFRAME_READY arrives.
func (h *Host) Publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	snap := s
	h.latest = &snap

	if !h.ready {
		return
	}

	// Single-flight: a new edit replaces the pending timer rather than
	// queuing another send.
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.debounce, h.flush)
}

// HandleMessage processes an envelope received from the embedded document.
// Unrecognized types are dropped silently.
func (h *Host) HandleMessage(env Envelope) {
	switch env.Type {
	case TypeReady:
		h.mu.Lock()
		h.ready = true
		h.mu.Unlock()
		// Deliver the retained snapshot immediately; edits authored
		// before readiness must not require a further keystroke.
		h.flush()
	case TypeChanged:
		if env.Data == nil {
			return
		}
		h.mu.Lock()
		// Last write wins: the embedded side already renders this
		// state, so record it as both latest and delivered.
		snap := *env.Data
		h.latest = &snap
		h.lastSent = &snap
		cb := h.onChanged
		h.mu.Unlock()
		if cb != nil {
			cb(snap)
		}
	}
}

// Close detaches the host and cancels any pending debounced send so no
// callback fires after teardown.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *Host) flush() {
	h.mu.Lock()
	if h.closed || !h.ready || h.latest == nil {
		h.mu.Unlock()
		return
	}
	// Re-sending an identical snapshot is a no-op on the preview side;
	// skip it entirely.
	if h.lastSent != nil && h.latest.Equal(*h.lastSent) {
		h.mu.Unlock()
		return
	}
	snap := *h.latest
	h.lastSent = &snap
	sender := h.sender
	h.mu.Unlock()

	if err := sender.Send(UpdateEnvelope(snap)); err != nil {
		slog.Warn("preview snapshot send failed", "error", err)
	}
}
