// Package notify pushes sync queue events to UI listeners. Clients connect
// over WebSocket (primary), Server-Sent Events (read-only fallback) or a
// one-shot HTTP RPC endpoint and exchange Frames encoded as JSON or
// MessagePack.
package notify

import (
	"encoding/json"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
)

// FrameType identifies the frame category.
type FrameType string

const (
	FrameRequest  FrameType = "request"
	FrameResponse FrameType = "response"
	FrameEvent    FrameType = "event"
	FrameErr      FrameType = "error"
	FramePing     FrameType = "ping"
	FramePong     FrameType = "pong"
)

// Frame is the message envelope exchanged with listeners.
type Frame struct {
	// ID uniquely identifies this frame.
	ID string `json:"id" msgpack:"id"`

	Type FrameType `json:"type" msgpack:"type"`

	// Method names the operation for request frames (e.g. "queue.clear").
	Method string `json:"method,omitempty" msgpack:"method,omitempty"`

	// CorrelID links a response to its originating request.
	CorrelID string `json:"correl_id,omitempty" msgpack:"correl_id,omitempty"`

	// Token carries credentials, typically only on the auth frame.
	Token string `json:"token,omitempty" msgpack:"token,omitempty"`

	Data  json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`
	Error *ErrorDetail    `json:"error,omitempty" msgpack:"error,omitempty"`

	// Channel is the stream topic for event and subscribe frames.
	Channel string `json:"channel,omitempty" msgpack:"channel,omitempty"`

	// Credits replenishes flow-control credits.
	Credits int `json:"credits,omitempty" msgpack:"credits,omitempty"`

	Timestamp time.Time `json:"ts" msgpack:"ts"`
}

// ErrorDetail describes an error in an error frame.
type ErrorDetail struct {
	Code    int    `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
	Details string `json:"details,omitempty" msgpack:"details,omitempty"`
}

// ── Well-known methods ──────────────────────────────

const (
	MethodAuth = "auth"

	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"

	MethodQueueStatus = "queue.status"
	MethodQueueClear  = "queue.clear"
	MethodQueueResume = "queue.resume"

	MethodNetworkStatus = "network.status"
	MethodNetworkSet    = "network.set"

	MethodStats = "stats"
)

// ── Well-known error codes ──────────────────────────

const (
	ErrCodeBadRequest     = 400
	ErrCodeUnauthorized   = 401
	ErrCodeForbidden      = 403
	ErrCodeNotFound       = 404
	ErrCodeMethodNotFound = 405
	ErrCodeInternal       = 500
)

// ── Request/Response payloads ───────────────────────

// AuthRequest is sent by clients as their first frame.
type AuthRequest struct {
	Token  string `json:"token"`
	Format string `json:"format,omitempty"` // "json" (default) or "msgpack"
}

// AuthResponse is returned after successful authentication.
type AuthResponse struct {
	Format    string `json:"format"`
	SessionID string `json:"session_id"`
}

// SubscribeRequest subscribes to a stream topic.
type SubscribeRequest struct {
	Channel string `json:"channel"`
}

// UnsubscribeRequest removes a subscription.
type UnsubscribeRequest struct {
	Channel string `json:"channel"`
}

// SubscriptionResponse confirms a subscribe or unsubscribe.
type SubscriptionResponse struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
}

// QueueStatusResponse is the queue.status result.
type QueueStatusResponse = queue.Status

// ClearResponse reports how many pending items queue.clear discarded.
type ClearResponse struct {
	Discarded int `json:"discarded"`
}

// ResumeResponse reports whether queue.resume started a drain loop.
type ResumeResponse struct {
	Started bool `json:"started"`
	Pending int  `json:"pending"`
}

// NetworkState is the payload of network.status and network.set.
type NetworkState struct {
	Online bool `json:"online"`
}

// NetworkSetResponse reports the state after network.set.
type NetworkSetResponse struct {
	Online  bool `json:"online"`
	Changed bool `json:"changed"`
}

// NewRequestFrame creates a new request frame.
func NewRequestFrame(frameID, method string, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Frame{
		ID:        frameID,
		Type:      FrameRequest,
		Method:    method,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewResponseFrame creates a response to a request.
func NewResponseFrame(correlID string, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Frame{
		ID:        NewFrameID(),
		Type:      FrameResponse,
		CorrelID:  correlID,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewErrorFrame creates an error response to a request.
func NewErrorFrame(correlID string, code int, message string) *Frame {
	return &Frame{
		ID:       NewFrameID(),
		Type:     FrameErr,
		CorrelID: correlID,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewEventFrame creates an event frame for a stream topic.
func NewEventFrame(channel string, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Frame{
		ID:        NewFrameID(),
		Type:      FrameEvent,
		Channel:   channel,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewFrameID returns a new unique frame ID.
func NewFrameID() string { return id.NewFrameID().String() }
