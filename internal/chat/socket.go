package chat

import (
	"net/http"
	"sync"
	"time"

	"github.com/tilapp/til/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const (
	// MaxMessageBytes limits the size of a single incoming frame
	MaxMessageBytes = 4 << 10
	// SendTimeout bounds a single write so a client that stops reading
	// is dropped instead of stalling Broadcast
	SendTimeout = 5 * time.Second
)

// Sanitizer strips markup from chat messages
type Sanitizer interface {
	Sanitize(text string) string
}

// socketConn adapts a websocket to Conn; writes are serialized
type socketConn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
}

func (c *socketConn) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return websocket.Message.Send(c.ws, text)
}

func (c *socketConn) Close() error {
	return c.ws.Close()
}

// NewSocketHandler returns the websocket endpoint: every text frame is sanitized,
// prefixed with the sender's username and broadcast to all registered connections
func NewSocketHandler(registry *Registry, sanitizer Sanitizer, logger *zap.Logger) http.Handler {
	return newSocketHandler(registry, sanitizer, SendTimeout, logger)
}

func newSocketHandler(registry *Registry, sanitizer Sanitizer, sendTimeout time.Duration, logger *zap.Logger) http.Handler {
	return websocket.Server{
		// same-origin checks are left to the session cookie's SameSite policy
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(ws *websocket.Conn) {
			ws.MaxPayloadBytes = MaxMessageBytes
			// drop the server's read/write timeouts inherited by the hijacked connection;
			// Send sets its own write deadline
			_ = ws.SetDeadline(time.Time{})

			sender := "anonymous"
			if user, ok := auth.UserFromContext(ws.Request().Context()); ok {
				sender = user.Username
			}

			id := registry.Register(&socketConn{ws: ws, timeout: sendTimeout})
			defer func() {
				registry.Unregister(id)
				_ = ws.Close()
			}()

			for {
				var text string
				if err := websocket.Message.Receive(ws, &text); err != nil {
					logger.Debug("chat connection closed", zap.String("conn_id", id), zap.Error(err))
					return
				}

				text = sanitizer.Sanitize(text)
				if text == "" {
					continue
				}
				registry.Broadcast(sender + ": " + text)
			}
		},
	}
}
