// Package realtime provides the messaging connectors a session manager opens
// per login cycle. The NATS connector subscribes to the user's subject tree
// so the platform can push roster, messaging, and evaluation events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	session "github.com/go4itsports/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nats-io/nats.go"
)

const (
	// DefaultSubjectPrefix roots every per-user subject.
	DefaultSubjectPrefix = "go4it.user"
	// PresenceSubject is where connectors announce a session going online.
	PresenceSubject = "go4it.presence"

	defaultMaxReconnects = 10
	defaultReconnectWait = 2 * time.Second
)

// MessageHandler receives every message published to the connected user's
// subject tree.
type MessageHandler func(subject string, data []byte)

// NATSConnector implements session.Connector over a NATS connection. Connect
// dials, subscribes to the user's subjects, and announces presence;
// Disconnect drains the connection so in-flight messages are delivered.
type NATSConnector struct {
	url           string
	subjectPrefix string
	logger        session.Logger
	handler       MessageHandler
	connOpts      []nats.Option

	mu     sync.Mutex
	conn   *nats.Conn
	sub    *nats.Subscription
	userID int64
}

var _ session.Connector = (*NATSConnector)(nil)

// Option customizes the connector.
type Option func(*NATSConnector)

// WithLogger overrides the default logger.
func WithLogger(logger session.Logger) Option {
	return func(c *NATSConnector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMessageHandler registers the callback for inbound messages. Without
// one, messages are logged at debug level and dropped.
func WithMessageHandler(handler MessageHandler) Option {
	return func(c *NATSConnector) {
		c.handler = handler
	}
}

// WithSubjectPrefix overrides the per-user subject root.
func WithSubjectPrefix(prefix string) Option {
	return func(c *NATSConnector) {
		if prefix != "" {
			c.subjectPrefix = prefix
		}
	}
}

// WithConnectOptions appends raw nats.Options (credentials, TLS, timeouts).
func WithConnectOptions(opts ...nats.Option) Option {
	return func(c *NATSConnector) {
		c.connOpts = append(c.connOpts, opts...)
	}
}

// NewNATSConnector returns a connector targeting the given server URL.
func NewNATSConnector(url string, opts ...Option) *NATSConnector {
	if url == "" {
		url = nats.DefaultURL
	}

	c := &NATSConnector{
		url:           url,
		subjectPrefix: DefaultSubjectPrefix,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Connect implements session.Connector.
func (c *NATSConnector) Connect(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return goerrors.New("realtime connection already open", goerrors.CategoryConflict).
			WithTextCode("REALTIME_ALREADY_CONNECTED")
	}

	logger := c.loggerOrDefault()

	opts := []nats.Option{
		nats.MaxReconnects(defaultMaxReconnects),
		nats.ReconnectWait(defaultReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("realtime disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("realtime reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Debug("realtime connection closed")
		}),
	}
	opts = append(opts, c.connOpts...)

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to connect to realtime server").
			WithTextCode("REALTIME_CONNECT_FAILED").
			WithMetadata(map[string]any{"url": c.url})
	}

	subject := c.subjectFor(userID)
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		if c.handler != nil {
			c.handler(msg.Subject, msg.Data)
			return
		}
		logger.Debug("realtime message on %s (%d bytes)", msg.Subject, len(msg.Data))
	})
	if err != nil {
		conn.Close()
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to subscribe to user subjects").
			WithMetadata(map[string]any{"subject": subject})
	}

	c.conn = conn
	c.sub = sub
	c.userID = userID

	c.announce(conn, userID)
	logger.Info("realtime online for user %d on %s", userID, subject)
	return nil
}

// Disconnect implements session.Connector. Draining lets queued messages
// flush before the connection closes; calling it without an open connection
// is a no-op.
func (c *NATSConnector) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	conn := c.conn
	c.conn = nil
	c.sub = nil
	c.userID = 0

	if err := conn.Drain(); err != nil {
		conn.Close()
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to drain realtime connection")
	}
	return nil
}

// Connected reports whether a connection is open.
func (c *NATSConnector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.IsConnected()
}

func (c *NATSConnector) subjectFor(userID int64) string {
	return fmt.Sprintf("%s.%d.>", c.subjectPrefix, userID)
}

// announce is best-effort; a lost presence event only delays the online
// indicator until the next heartbeat.
func (c *NATSConnector) announce(conn *nats.Conn, userID int64) {
	payload, err := json.Marshal(map[string]any{
		"userId": userID,
		"online": true,
		"at":     time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := conn.Publish(PresenceSubject, payload); err != nil {
		c.loggerOrDefault().Debug("presence announce failed: %v", err)
	}
}

func (c *NATSConnector) loggerOrDefault() session.Logger {
	if c.logger != nil {
		return c.logger
	}
	return session.DefaultLogger()
}
