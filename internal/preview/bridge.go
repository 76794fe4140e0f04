package preview

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/rajsahu24/invitation-frontend/internal/logging"
)

// subjectPrefix is the NATS subject space for cross-instance snapshot
// fan-out. Subject pattern: preview.snapshot.{invitation_id}
const subjectPrefix = "preview.snapshot."

// originHeader marks which instance published a message so instances can
// skip their own traffic.
const originHeader = "Origin-Instance"

// BridgeConfig holds NATS connection settings for the snapshot bridge.
type BridgeConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Bridge replicates editor snapshots between BFF instances over NATS, so a
// preview document connected to one instance still receives edits relayed
// through another.
type Bridge struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	log        *logging.Logger
	instanceID string
}

// NewBridge connects to NATS. The connection reconnects indefinitely when
// MaxReconnects is -1.
func NewBridge(cfg BridgeConfig, log *logging.Logger) (*Bridge, error) {
	instanceID := uuid.New().String()

	conn, err := nats.Connect(cfg.URL,
		nats.Name("invitely-web-"+instanceID[:8]),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Bridge{
		conn:       conn,
		log:        log,
		instanceID: instanceID,
	}, nil
}

// Start subscribes to snapshot subjects and feeds foreign messages into the
// hub.
func (b *Bridge) Start(hub *Hub) error {
	sub, err := b.conn.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		if msg.Header.Get(originHeader) == b.instanceID {
			return
		}

		invitationID := strings.TrimPrefix(msg.Subject, subjectPrefix)
		if invitationID == "" || strings.Contains(invitationID, ".") {
			return
		}

		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			b.log.Warn("malformed bridge message", "subject", msg.Subject, "error", err)
			return
		}

		hub.Deliver(invitationID, env)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	b.sub = sub
	b.log.Info("subscribed to preview snapshot bridge", "subject", subjectPrefix+">")
	return nil
}

// Publish fans a snapshot envelope out to the other instances.
func (b *Bridge) Publish(invitationID string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(subjectPrefix + invitationID)
	msg.Header.Set(originHeader, b.instanceID)
	msg.Data = data
	return b.conn.PublishMsg(msg)
}

// Stop unsubscribes and drains the connection.
func (b *Bridge) Stop() error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			return err
		}
	}
	return b.conn.Drain()
}
