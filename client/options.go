package client

import (
	"log/slog"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the authentication token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithAuthTimeout bounds the auth handshake. Default 10s.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) { c.authTimeout = d }
}

// WithBufferSize sets the per-subscription channel buffer. Default 64.
func WithBufferSize(n int) Option {
	return func(c *Client) { c.bufferSize = n }
}

// WithReconnect enables automatic reconnection with the given parameters.
func WithReconnect(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.reconnect = true
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}
