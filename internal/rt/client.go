// Package rt owns the realtime socket session: the single connection to the
// chat gateway, its lifecycle state, and the intent/dispatch contract every
// other component goes through. Nothing outside this package holds the
// connection.
package rt

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/status"
	"github.com/codecommunity/cchat/internal/wire"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by outbound intents while the session is down.
var ErrNotConnected = errors.New("realtime session not connected")

// Conn is the minimal transport surface the client needs. *websocket.Conn
// satisfies it; tests substitute a scripted fake.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes a transport connection authenticated by a bearer token.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

// WebsocketDialer dials the gateway over a websocket, passing the token in
// the Authorization header.
type WebsocketDialer struct{}

func (WebsocketDialer) Dial(ctx context.Context, url, token string) (Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Options configures the realtime client.
type Options struct {
	URL          string
	Token        string
	ReconnectMin time.Duration // first retry delay; doubles per failure
	ReconnectMax time.Duration // delay cap
}

// Client maintains the socket connection, redialing with capped backoff when
// the transport drops. Inbound frames go to the handler; outbound intents are
// fire-and-forget writes.
type Client struct {
	opts    Options
	dialer  Dialer
	machine *status.Machine
	bus     *bus.Bus
	handler func(wire.Frame)
	logger  *zap.Logger

	mu      sync.Mutex // guards conn and writes to it
	conn    Conn
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewClient creates a realtime client. The handler receives every inbound
// frame from the read loop's goroutine.
func NewClient(opts Options, dialer Dialer, machine *status.Machine, b *bus.Bus, handler func(wire.Frame), logger *zap.Logger) *Client {
	if dialer == nil {
		dialer = WebsocketDialer{}
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = 30 * time.Second
	}
	return &Client{
		opts:    opts,
		dialer:  dialer,
		machine: machine,
		bus:     b,
		handler: handler,
		logger:  logger,
	}
}

// Start launches the connect/read loop. Call once per session.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.stopped = make(chan struct{})
	go c.run(ctx)
}

// Stop tears the session down and waits for the loop to exit.
func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close() // unblock the read loop
	}
	c.mu.Unlock()
	<-c.stopped
}

func (c *Client) run(ctx context.Context) {
	defer close(c.stopped)
	delay := c.opts.ReconnectMin

	for {
		if err := c.machine.Transition(status.Connecting); err != nil {
			c.logger.Warn("state machine out of step", zap.Error(err))
		}

		conn, err := c.dialer.Dial(ctx, c.opts.URL, c.opts.Token)
		if err != nil {
			if ctx.Err() != nil {
				_ = c.machine.Transition(status.Disconnected)
				return
			}
			c.logger.Warn("dial failed", zap.String("url", c.opts.URL), zap.Error(err))
			_ = c.machine.Transition(status.Reconnecting)
			if !sleepCtx(ctx, delay) {
				_ = c.machine.Transition(status.Disconnected)
				return
			}
			delay = min(delay*2, c.opts.ReconnectMax)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		_ = c.machine.Transition(status.Connected)
		c.logger.Info("realtime session connected", zap.String("url", c.opts.URL))
		delay = c.opts.ReconnectMin

		readErr := c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()

		if ctx.Err() != nil {
			_ = c.machine.Transition(status.Disconnected)
			c.logger.Info("realtime session closed")
			return
		}
		c.logger.Warn("realtime session dropped", zap.Error(readErr))
		_ = c.machine.Transition(status.Reconnecting)
		if !sleepCtx(ctx, delay) {
			_ = c.machine.Transition(status.Disconnected)
			return
		}
		delay = min(delay*2, c.opts.ReconnectMax)
	}
}

func (c *Client) readLoop(conn Conn) error {
	for {
		var f wire.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		if c.handler != nil {
			c.handler(f)
		}
	}
}

// SendMessage emits a sendMessage intent for the given peer.
func (c *Client) SendMessage(peerID, text string) error {
	return c.emit(wire.EventSendMessage, wire.SendPayload{Receiver: peerID, Message: text})
}

// Typing signals that the local user is typing to the given peer.
func (c *Client) Typing(peerID string) error {
	return c.emit(wire.EventTyping, wire.TypingSignal{To: peerID})
}

// StopTyping signals that the local user stopped typing to the given peer.
func (c *Client) StopTyping(peerID string) error {
	return c.emit(wire.EventStopTyping, wire.TypingSignal{To: peerID})
}

// ReadMessages tells the server the given peer's messages have been read.
func (c *Client) ReadMessages(peerID string) error {
	return c.emit(wire.EventReadMessages, peerID)
}

func (c *Client) emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(wire.NewFrame(event, payload))
}

// sleepCtx waits for d, returning false if the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
