package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

// Backend is the queue surface the handler drives. *engine.Engine
// satisfies it.
type Backend interface {
	Status() queue.Status
	Clear() int
	Resume() bool
	Online() bool
	SetOnline(online bool) bool
}

// Handler dispatches request frames to queue operations.
type Handler struct {
	backend Backend
	broker  *stream.Broker
	conns   *ConnectionManager
	logger  *slog.Logger
}

// NewHandler creates a frame handler. broker may be nil, in which case
// subscriptions are refused.
func NewHandler(backend Backend, broker *stream.Broker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{backend: backend, broker: broker, logger: logger}
}

// Handle processes a single request frame and returns the response.
func (h *Handler) Handle(ctx context.Context, frame *Frame, conn *Connection) *Frame {
	switch frame.Method {
	case MethodSubscribe:
		return h.handleSubscribe(frame)
	case MethodUnsubscribe:
		return h.handleUnsubscribe(frame)
	case MethodQueueStatus:
		return mustResponseFrame(frame.ID, h.backend.Status())
	case MethodQueueClear:
		return h.handleClear(ctx, frame, conn)
	case MethodQueueResume:
		return h.handleResume(frame)
	case MethodNetworkStatus:
		return mustResponseFrame(frame.ID, NetworkState{Online: h.backend.Online()})
	case MethodNetworkSet:
		return h.handleNetworkSet(frame)
	case MethodStats:
		return h.handleStats(frame)
	default:
		return NewErrorFrame(frame.ID, ErrCodeMethodNotFound, "unknown method: "+frame.Method)
	}
}

// mustResponseFrame creates a response frame, returning an error frame on marshal failure.
func mustResponseFrame(frameID string, data any) *Frame {
	resp, err := NewResponseFrame(frameID, data)
	if err != nil {
		return NewErrorFrame(frameID, ErrCodeInternal, "marshal response: "+err.Error())
	}
	return resp
}

func (h *Handler) handleSubscribe(frame *Frame) *Frame {
	if h.broker == nil {
		return NewErrorFrame(frame.ID, ErrCodeNotFound, "event stream not enabled")
	}

	var req SubscribeRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}
	if err := stream.ValidateTopic(req.Channel); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, err.Error())
	}

	// The server loop attaches the topic once the response is accepted.
	return mustResponseFrame(frame.ID, SubscriptionResponse{Channel: req.Channel, Status: "subscribed"})
}

func (h *Handler) handleUnsubscribe(frame *Frame) *Frame {
	var req UnsubscribeRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}
	return mustResponseFrame(frame.ID, SubscriptionResponse{Channel: req.Channel, Status: "unsubscribed"})
}

func (h *Handler) handleClear(_ context.Context, frame *Frame, conn *Connection) *Frame {
	discarded := h.backend.Clear()

	subject := ""
	if conn != nil && conn.Identity != nil {
		subject = conn.Identity.Subject
	}
	h.logger.Info("queue cleared by listener",
		slog.String("subject", subject),
		slog.Int("discarded", discarded),
	)
	return mustResponseFrame(frame.ID, ClearResponse{Discarded: discarded})
}

func (h *Handler) handleResume(frame *Frame) *Frame {
	started := h.backend.Resume()
	return mustResponseFrame(frame.ID, ResumeResponse{
		Started: started,
		Pending: h.backend.Status().QueueLength,
	})
}

func (h *Handler) handleNetworkSet(frame *Frame) *Frame {
	var req NetworkState
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}
	changed := h.backend.SetOnline(req.Online)
	return mustResponseFrame(frame.ID, NetworkSetResponse{Online: h.backend.Online(), Changed: changed})
}

func (h *Handler) handleStats(frame *Frame) *Frame {
	stats := map[string]any{
		"queue_length": h.backend.Status().QueueLength,
		"online":       h.backend.Online(),
	}
	if h.broker != nil {
		stats["broker"] = h.broker.Stats()
	}
	if h.conns != nil {
		stats["connections"] = h.conns.Count()
		stats["listeners"] = h.conns.List()
	}
	return mustResponseFrame(frame.ID, stats)
}
