// Package ws implements the transport port over a plain websocket:
// JSON envelopes for control and state, binary frames for local audio.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
	"github.com/reverielabs/reverie-lite/pkg/core/transport"
)

const (
	writeTimeout = 10 * time.Second

	eventBufferSize   = 64
	audioBufferSize   = 32
	controlBufferSize = 8
)

// Client is a single-session websocket transport.
type Client struct {
	dialer *websocket.Dialer
	logger *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events  chan transport.Event
	audio   chan []byte
	control chan envelope
	done    chan struct{}

	closeOnce sync.Once
}

// Option configures the client.
type Option func(*Client)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an unconnected transport client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		dialer: websocket.DefaultDialer,
		logger: zap.NewNop(),
		events:  make(chan transport.Event, eventBufferSize),
		audio:   make(chan []byte, audioBufferSize),
		control: make(chan envelope, controlBufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the server and starts the read/write pumps.
func (c *Client) Connect(ctx context.Context, serverURL, token string) error {
	wsURL, err := toWebsocketURL(serverURL)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	conn, _, err := c.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return errors.New("transport already connected")
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	go c.writeLoop(conn)

	c.emit(&transport.ConnectedEvent{})
	return nil
}

// Events returns the inbound event stream.
func (c *Client) Events() <-chan transport.Event {
	return c.events
}

// PublishAudio queues a local audio frame for the room. Frames are
// dropped when the write buffer is full rather than blocking capture.
func (c *Client) PublishAudio(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	frame := append([]byte(nil), data...)
	select {
	case c.audio <- frame:
		return nil
	case <-c.done:
		return errors.New("transport closed")
	default:
		c.logger.Debug("audio buffer full, dropping frame", zap.Int("bytes", len(frame)))
		return nil
	}
}

// SetMetadata publishes participant metadata via a control envelope.
func (c *Client) SetMetadata(ctx context.Context, metadata string) error {
	return c.writeJSON(envelope{Type: "participant.metadata", Metadata: metadata})
}

// Close tears the session down. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout),
			)
			_ = conn.Close()
		}
	})
	return nil
}

// envelope is the JSON wire frame for control and state messages.
type envelope struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message,omitempty"`
	State    string `json:"state,omitempty"`
	Metadata string `json:"metadata,omitempty"`

	ID       string `json:"id,omitempty"`
	Origin   string `json:"origin,omitempty"`
	Text     string `json:"text,omitempty"`
	Revision uint64 `json:"revision,omitempty"`
	Final    bool   `json:"final,omitempty"`
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.emit(&transport.DisconnectedEvent{})
		close(c.events)
		_ = c.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("read loop ended", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			// Remote media frames are handled by playback, not here.
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed envelope", zap.Error(err))
			continue
		}
		if event := env.toEvent(); event != nil {
			c.emit(event)
		}
	}
}

// writeLoop is the sole writer on the connection; audio frames and
// control envelopes both funnel through it.
func (c *Client) writeLoop(conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.audio:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.logger.Debug("audio write failed", zap.Error(err))
				_ = c.Close()
				return
			}
		case env := <-c.control:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				c.logger.Debug("control write failed", zap.Error(err))
				_ = c.Close()
				return
			}
		}
	}
}

// writeJSON queues an envelope for the write pump.
func (c *Client) writeJSON(env envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("transport not connected")
	}

	select {
	case c.control <- env:
		return nil
	case <-c.done:
		return errors.New("transport closed")
	}
}

// emit sends an event without blocking the read loop.
func (c *Client) emit(event transport.Event) {
	select {
	case c.events <- event:
	default:
		c.logger.Warn("event buffer full, dropping event", zap.String("type", event.EventType()))
	}
}

func (e envelope) toEvent() transport.Event {
	switch e.Type {
	case "session.connected":
		return &transport.ConnectedEvent{Room: e.Room}
	case "session.disconnected":
		return &transport.DisconnectedEvent{Reason: e.Reason}
	case "media.device_error":
		return &transport.MediaDeviceErrorEvent{Name: e.Name, Message: e.Message}
	case "agent.state":
		return &transport.AgentStateEvent{State: transport.AgentState(e.State)}
	case "transcript.segment":
		origin := transcript.OriginRemoteAgent
		if e.Origin == string(transcript.OriginLocalUser) {
			origin = transcript.OriginLocalUser
		}
		return &transport.TranscriptSegmentEvent{
			ID:       e.ID,
			Origin:   origin,
			Text:     e.Text,
			Revision: e.Revision,
			Final:    e.Final,
		}
	default:
		return nil
	}
}

// toWebsocketURL maps http(s) schemes onto ws(s) and validates the URL.
func toWebsocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	return u.String(), nil
}
