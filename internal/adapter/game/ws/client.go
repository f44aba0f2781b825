package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gardensync/internal/adapter/atoms"
	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

var (
	ErrNotConnected = errors.New("not connected to game")
	ErrTimeout      = errors.New("game did not answer in time")
)

const (
	MsgAtom    = "atom"
	MsgSelect  = "select"
	MsgValue   = "value"
	MsgSet     = "set"
	MsgCommand = "command"
	MsgPing    = "ping"
	MsgPong    = "pong"
	MsgError   = "error"
)

// Message is one frame of the bridge protocol. The game pushes atom frames
// whenever a watched atom changes; select frames are answered with value or
// error frames carrying the same id.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Label   string          `json:"label,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Intent  *garden.Intent  `json:"intent,omitempty"`
	Message string          `json:"message,omitempty"`
}

type Options struct {
	SelectTimeout  time.Duration
	PingInterval   time.Duration
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
	HandshakeLimit time.Duration
	Logger         logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.SelectTimeout <= 0 {
		o.SelectTimeout = 2 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 15 * time.Second
	}
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = 500 * time.Millisecond
	}
	if o.ReconnectMax <= 0 {
		o.ReconnectMax = 30 * time.Second
	}
	if o.HandshakeLimit <= 0 {
		o.HandshakeLimit = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// Client bridges the game's atom store and command channel over a WebSocket.
// Atom values are mirrored locally so reads after the first one are served
// without a round trip.
type Client struct {
	url    string
	opts   Options
	dialer *websocket.Dialer
	cache  *atoms.Store

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	done      chan struct{}

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan Message
	seq       atomic.Uint64
}

var (
	_ ports.StateStore     = (*Client)(nil)
	_ ports.CommandChannel = (*Client)(nil)
)

func New(url string, opts Options) *Client {
	o := opts.withDefaults()
	return &Client{
		url:     url,
		opts:    o,
		dialer:  &websocket.Dialer{HandshakeTimeout: o.HandshakeLimit},
		cache:   atoms.NewStore(),
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("connect to game: %w", err)
	}
	c.attach(conn)
	c.opts.Logger.WithField("url", c.url).Info("connected to game")
	return nil
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	go c.listen(conn)
	go c.keepAlive(conn)
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close stops reconnecting and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	close(c.done)
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

// Select asks the game for the current value of label on every call, so reads
// stay fresh even for atoms the game never pushes. While disconnected it
// answers from the mirror.
func (c *Client) Select(ctx context.Context, label string) (json.RawMessage, error) {
	if !c.IsConnected() {
		if v, err := c.cache.Select(ctx, label); err == nil {
			return v, nil
		}
		return nil, fmt.Errorf("select %s: %w: %w", label, ErrNotConnected, ports.ErrNotReady)
	}

	id := c.nextID()
	ch := make(chan Message, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(Message{ID: id, Type: MsgSelect, Label: label}); err != nil {
		return nil, fmt.Errorf("select %s: %w", label, err)
	}

	timer := time.NewTimer(c.opts.SelectTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("select %s: %w", label, ErrTimeout)
	case reply := <-ch:
		if reply.Type == MsgError || len(reply.Value) == 0 || string(reply.Value) == "null" {
			return nil, fmt.Errorf("select %s: %w", label, ports.ErrNotFound)
		}
		return reply.Value, nil
	}
}

func (c *Client) Subscribe(label string, fn func(json.RawMessage)) func() {
	return c.cache.Subscribe(label, fn)
}

// Set updates the local mirror and forwards the value to the game when a
// connection is up.
func (c *Client) Set(ctx context.Context, label string, value json.RawMessage) error {
	if err := c.cache.Set(ctx, label, value); err != nil {
		return err
	}
	if !c.IsConnected() {
		return nil
	}
	return c.write(Message{Type: MsgSet, Label: label, Value: value})
}

// Send writes a command frame. The game never acknowledges commands.
func (c *Client) Send(ctx context.Context, in garden.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.write(Message{Type: MsgCommand, Intent: &in})
}

func (c *Client) nextID() string {
	return strconv.FormatUint(c.seq.Add(1), 10)
}

func (c *Client) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
		c.mu.RLock()
		current := c.conn == conn && c.connected
		c.mu.RUnlock()
		if !current {
			return
		}
		if err := c.write(Message{ID: c.nextID(), Type: MsgPing}); err != nil {
			c.opts.Logger.WithError(err).Warn("game ping failed")
			return
		}
	}
}

func (c *Client) listen(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				return
			}
			c.opts.Logger.WithError(err).WithField("url", c.url).Warn("game connection lost")
			go c.reconnect(conn)
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.opts.Logger.WithError(err).Debug("unparseable frame from game")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MsgAtom:
		if msg.Label == "" {
			return
		}
		if err := c.cache.Set(context.Background(), msg.Label, msg.Value); err != nil {
			c.opts.Logger.WithError(err).WithField("label", msg.Label).Warn("atom update dropped")
		}
	case MsgValue, MsgError:
		if msg.Type == MsgValue && msg.Label != "" && len(msg.Value) > 0 && string(msg.Value) != "null" {
			_ = c.cache.Set(context.Background(), msg.Label, msg.Value)
		}
		if msg.ID == "" {
			if msg.Type == MsgError {
				c.opts.Logger.WithField("message", msg.Message).Warn("error from game")
			}
			return
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.pendingMu.Unlock()
		if ok {
			ch <- msg
		}
	case MsgPong:
	default:
		c.opts.Logger.WithField("type", msg.Type).Debug("ignoring frame")
	}
}

// reconnect redials with exponential backoff until it succeeds or the client
// is closed.
func (c *Client) reconnect(old *websocket.Conn) {
	c.mu.Lock()
	if c.conn != old || c.closed {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.mu.Unlock()
	_ = old.Close()

	delay := c.opts.ReconnectMin
	for attempt := 1; ; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeLimit)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		cancel()
		if err != nil {
			c.opts.Logger.WithError(err).WithField("attempt", attempt).Debug("reconnect failed")
			delay = min(delay*2, c.opts.ReconnectMax)
			continue
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.mu.Unlock()
		c.attach(conn)
		c.opts.Logger.WithFields(logrus.Fields{"url": c.url, "attempt": attempt}).Info("reconnected to game")
		return
	}
}
