// Package client connects a Go process to a remote sync queue's notify
// endpoint over WebSocket.
//
// Usage:
//
//	c, err := client.Dial("wss://exams.example.com/syncq/notify",
//	    client.WithToken("sq_..."),
//	)
//	defer c.Close()
//
//	failures, err := c.Failures(ctx)
//	for f := range failures {
//	    fmt.Printf("write %s dropped after %d attempts\n", f.ItemID, f.Retries)
//	}
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("syncq/client: closed")

// Client talks to a notify server.
type Client struct {
	url         string
	token       string
	logger      *slog.Logger
	authTimeout time.Duration
	bufferSize  int

	reconnect  bool
	maxRetries int
	baseDelay  time.Duration

	conn      net.Conn
	mu        sync.Mutex // guards conn writes
	closed    atomic.Bool
	done      chan struct{} // closed by Close
	sessionID atomic.Value // string

	// pending correlates request frame IDs with response channels.
	pending sync.Map // frameID → chan *notify.Frame

	subsMu sync.Mutex
	subs   map[string]chan *stream.Event
}

// Dial connects to a notify server and authenticates.
func Dial(url string, opts ...Option) (*Client, error) {
	return DialContext(context.Background(), url, opts...)
}

// DialContext connects to a notify server with a context.
func DialContext(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := &Client{
		url:         url,
		logger:      slog.Default(),
		authTimeout: 10 * time.Second,
		bufferSize:  64,
		maxRetries:  5,
		baseDelay:   time.Second,
		subs:        make(map[string]chan *stream.Event),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connect(ctx); err != nil {
		return nil, fmt.Errorf("syncq/client: dial: %w", err)
	}
	go c.readLoop()
	return c, nil
}

// connect opens the socket and performs the auth handshake. It reads the
// auth response itself because the read loop is not running yet.
func (c *Client) connect(ctx context.Context) error {
	conn, _, _, err := ws.Dial(ctx, c.url)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	authFrame, err := notify.NewRequestFrame(notify.NewFrameID(), notify.MethodAuth, notify.AuthRequest{
		Token:  c.token,
		Format: notify.CodecNameJSON,
	})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("marshal auth request: %w", err)
	}
	authFrame.Token = c.token

	if writeErr := writeFrame(conn, authFrame); writeErr != nil {
		_ = conn.Close()
		return fmt.Errorf("write auth frame: %w", writeErr)
	}

	type readResult struct {
		resp *notify.Frame
		err  error
	}
	resultCh := make(chan readResult, 1)
	go func() {
		data, readErr := wsutil.ReadServerText(conn)
		if readErr != nil {
			resultCh <- readResult{err: fmt.Errorf("read auth response: %w", readErr)}
			return
		}
		var frame notify.Frame
		if unmarshalErr := json.Unmarshal(data, &frame); unmarshalErr != nil {
			resultCh <- readResult{err: fmt.Errorf("unmarshal auth response: %w", unmarshalErr)}
			return
		}
		resultCh <- readResult{resp: &frame}
	}()

	timer := time.NewTimer(c.authTimeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			_ = conn.Close()
			return result.err
		}
		if result.resp.Type == notify.FrameErr {
			_ = conn.Close()
			return fmt.Errorf("auth failed: %s", errorMessage(result.resp))
		}
		var authResp notify.AuthResponse
		if len(result.resp.Data) > 0 {
			if unmarshalErr := json.Unmarshal(result.resp.Data, &authResp); unmarshalErr != nil {
				c.logger.Warn("failed to unmarshal auth response", slog.String("error", unmarshalErr.Error()))
			}
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.sessionID.Store(authResp.SessionID)
		c.logger.Info("syncq client connected",
			slog.String("session_id", authResp.SessionID),
			slog.String("format", authResp.Format),
		)
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case <-timer.C:
		_ = conn.Close()
		return errors.New("auth timeout")
	}
}

// readLoop reads frames until the socket fails, then optionally reconnects.
func (c *Client) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn("syncq client read error", slog.String("error", err.Error()))
			if c.reconnect {
				c.tryReconnect()
			}
			return
		}

		var frame notify.Frame
		if unmarshalErr := json.Unmarshal(data, &frame); unmarshalErr != nil {
			c.logger.Warn("syncq client: invalid frame", slog.String("error", unmarshalErr.Error()))
			continue
		}

		switch frame.Type {
		case notify.FrameResponse, notify.FrameErr:
			if val, ok := c.pending.Load(frame.CorrelID); ok {
				ch := val.(chan *notify.Frame) //nolint:errcheck // pending map always stores chan *notify.Frame
				select {
				case ch <- &frame:
				default:
				}
			}
		case notify.FrameEvent:
			var evt stream.Event
			if json.Unmarshal(frame.Data, &evt) == nil {
				c.dispatch(&evt)
			}
		case notify.FramePong:
		}
	}
}

// dispatch hands evt to every local subscription it matches. Slow
// subscribers lose events.
func (c *Client) dispatch(evt *stream.Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for channel, ch := range c.subs {
		if !evt.Matches(channel) {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

// tryReconnect reconnects with exponential backoff and restores subscriptions.
func (c *Client) tryReconnect() {
	delay := c.baseDelay
	for i := range c.maxRetries {
		c.logger.Info("syncq client reconnecting",
			slog.Int("attempt", i+1),
			slog.Duration("delay", delay),
		)
		time.Sleep(delay)
		if c.closed.Load() {
			return
		}

		if err := c.connect(context.Background()); err != nil {
			c.logger.Warn("syncq client reconnect failed", slog.String("error", err.Error()))
			delay = min(delay*2, 30*time.Second)
			continue
		}

		c.logger.Info("syncq client reconnected")
		go c.readLoop()
		c.resubscribe()
		return
	}
	c.logger.Error("syncq client: max reconnection attempts reached")
}

func (c *Client) resubscribe() {
	c.subsMu.Lock()
	channels := make([]string, 0, len(c.subs))
	for channel := range c.subs {
		channels = append(channels, channel)
	}
	c.subsMu.Unlock()

	for _, channel := range channels {
		ctx, cancel := context.WithTimeout(context.Background(), c.authTimeout)
		_, err := c.request(ctx, notify.MethodSubscribe, notify.SubscribeRequest{Channel: channel})
		cancel()
		if err != nil {
			c.logger.Warn("syncq client resubscribe failed",
				slog.String("channel", channel),
				slog.String("error", err.Error()),
			)
		}
	}
}

// request sends a request frame and waits for the correlated response.
func (c *Client) request(ctx context.Context, method string, data any) (*notify.Frame, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	frame := &notify.Frame{
		ID:        notify.NewFrameID(),
		Type:      notify.FrameRequest,
		Method:    method,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal request data: %w", err)
		}
		frame.Data = raw
	}

	respCh := make(chan *notify.Frame, 1)
	c.pending.Store(frame.ID, respCh)
	defer c.pending.Delete(frame.ID)

	c.mu.Lock()
	err := writeFrame(c.conn, frame)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case resp := <-respCh:
		if resp.Type == notify.FrameErr {
			return nil, fmt.Errorf("notify error: %s", errorMessage(resp))
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func writeFrame(conn net.Conn, frame *notify.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return wsutil.WriteClientText(conn, data)
}

func errorMessage(f *notify.Frame) string {
	if f.Error == nil {
		return "unknown error"
	}
	return f.Error.Message
}

// SessionID returns the session ID assigned by the server.
func (c *Client) SessionID() string {
	s, _ := c.sessionID.Load().(string)
	return s
}

// Close closes the connection and every subscription channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.subsMu.Lock()
	for channel, ch := range c.subs {
		close(ch)
		delete(c.subs, channel)
	}
	c.subsMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
