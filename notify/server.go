package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

// DefaultPath is the default mount point of the notify endpoints.
const DefaultPath = "/syncq/notify"

// Server pushes broker events to listeners and serves their requests.
type Server struct {
	broker       *stream.Broker
	handler      *Handler
	auth         Authenticator
	defaultCodec Codec
	conns        *ConnectionManager
	logger       *slog.Logger
	basePath     string
}

// NewServer creates a notify server. broker may be nil when only the
// request methods are wanted.
func NewServer(broker *stream.Broker, handler *Handler, opts ...Option) *Server {
	s := &Server{
		broker:       broker,
		handler:      handler,
		defaultCodec: &JSONCodec{},
		conns:        NewConnectionManager(),
		logger:       slog.Default(),
		basePath:     DefaultPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth == nil {
		s.auth = &NoopAuthenticator{}
	}
	handler.conns = s.conns
	return s
}

// Broker returns the underlying stream broker.
func (s *Server) Broker() *stream.Broker { return s.broker }

// Connections returns the connection manager.
func (s *Server) Connections() *ConnectionManager { return s.conns }

// Path returns the base path the endpoints are mounted on.
func (s *Server) Path() string { return s.basePath }

// RegisterRoutes mounts the WebSocket, SSE and RPC endpoints on a router.
func (s *Server) RegisterRoutes(router forge.Router) {
	if err := router.WebSocket(s.basePath, s.handleWebSocket); err != nil {
		s.logger.Error("failed to register notify WebSocket", slog.String("error", err.Error()))
	}
	if err := router.EventStream(s.basePath+"/sse", s.handleSSE); err != nil {
		s.logger.Error("failed to register notify SSE", slog.String("error", err.Error()))
	}
	if err := router.POST(s.basePath+"/rpc", s.handleHTTPRPC); err != nil {
		s.logger.Error("failed to register notify RPC", slog.String("error", err.Error()))
	}
}

func (s *Server) handleWebSocket(ctx forge.Context, conn forge.Connection) error {
	session, err := s.handshake(ctx, conn)
	if err != nil {
		return err
	}
	s.conns.Add(session)
	defer func() {
		if s.broker != nil {
			s.broker.RemoveSubscriber(session.ID)
		}
		s.conns.Remove(session.ID)
		s.logger.Info("notify listener disconnected", slog.String("conn_id", session.ID))
	}()

	var sub *stream.Subscriber
	if s.broker != nil {
		sub = s.broker.Subscribe(session.ID)
		go s.forwardEvents(conn, session.Codec, sub)
	}

	for {
		data, readErr := conn.Read()
		if readErr != nil {
			return nil
		}
		session.Touch()

		frame, decErr := session.Codec.Decode(data)
		if decErr != nil {
			s.reply(conn, session.Codec, NewErrorFrame("", ErrCodeBadRequest, "invalid frame: "+decErr.Error()))
			continue
		}
		if resp := s.serveFrame(ctx, session, sub, frame); resp != nil {
			s.reply(conn, session.Codec, resp)
		}
	}
}

// handshake reads the auth frame, authenticates it and negotiates the
// codec. The auth frame itself is always JSON.
func (s *Server) handshake(ctx forge.Context, conn forge.Connection) (*Connection, error) {
	reject := func(correlID string, code int, msg string, cause error) (*Connection, error) {
		//nolint:errcheck // best-effort error response before disconnect
		conn.WriteJSON(NewErrorFrame(correlID, code, msg))
		return nil, fmt.Errorf("notify: %s: %w", msg, cause)
	}

	raw, err := conn.Read()
	if err != nil {
		return nil, fmt.Errorf("notify: read auth frame: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return reject("", ErrCodeBadRequest, "invalid auth frame", err)
	}
	if frame.Method != MethodAuth {
		return reject(frame.ID, ErrCodeBadRequest, "first frame must be auth",
			fmt.Errorf("got method %q", frame.Method))
	}

	var req AuthRequest
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return reject(frame.ID, ErrCodeBadRequest, "invalid auth data", err)
		}
	}
	if req.Token == "" {
		req.Token = frame.Token
	}

	identity, err := s.auth.Authenticate(ctx.Context(), req.Token)
	if err != nil {
		return reject(frame.ID, ErrCodeUnauthorized, "authentication failed", err)
	}

	codec := s.defaultCodec
	if req.Format != "" {
		codec = GetCodec(req.Format)
	}
	session := NewConnection(conn.ID(), identity, codec)

	resp, err := NewResponseFrame(frame.ID, AuthResponse{Format: codec.Name(), SessionID: session.ID})
	if err != nil {
		return nil, fmt.Errorf("notify: marshal auth response: %w", err)
	}
	if err := s.writeFrame(conn, codec, resp); err != nil {
		return nil, err
	}

	s.logger.Info("notify listener authenticated",
		slog.String("conn_id", session.ID),
		slog.String("subject", identity.Subject),
		slog.String("codec", codec.Name()),
	)
	return session, nil
}

// serveFrame answers one inbound frame of a live session. Credit frames
// produce no reply.
func (s *Server) serveFrame(ctx forge.Context, session *Connection, sub *stream.Subscriber, frame *Frame) *Frame {
	switch {
	case frame.Type == FramePing:
		return &Frame{ID: NewFrameID(), Type: FramePong, CorrelID: frame.ID, Timestamp: frame.Timestamp}
	case frame.Credits > 0:
		if sub != nil {
			sub.AddCredits(int64(frame.Credits))
		}
		return nil
	}

	if scope := RequiredScope(frame.Method); scope != "" && !session.Identity.HasScope(scope) {
		return NewErrorFrame(frame.ID, ErrCodeForbidden, "insufficient permissions")
	}

	resp := s.handler.Handle(ctx.Context(), frame, session)
	if resp != nil && resp.Type == FrameResponse {
		s.applySubscription(session.ID, session, frame)
	}
	return resp
}

// applySubscription attaches or detaches broker topics after the handler
// accepted a subscribe or unsubscribe request.
func (s *Server) applySubscription(connID string, session *Connection, frame *Frame) {
	if s.broker == nil {
		return
	}
	switch frame.Method {
	case MethodSubscribe:
		var req SubscribeRequest
		if json.Unmarshal(frame.Data, &req) == nil {
			s.broker.SubscribeTo(connID, req.Channel)
			session.AddSubscription(req.Channel)
		}
	case MethodUnsubscribe:
		var req UnsubscribeRequest
		if json.Unmarshal(frame.Data, &req) == nil {
			s.broker.Unsubscribe(connID, req.Channel)
			session.RemoveSubscription(req.Channel)
		}
	}
}

// forwardEvents writes subscriber events to the socket until either side
// closes. Each written event returns its credit, so credits bound the events
// buffered but not yet written rather than the session's lifetime total.
func (s *Server) forwardEvents(conn forge.Connection, codec Codec, sub *stream.Subscriber) {
	for evt := range sub.C() {
		evtFrame, err := NewEventFrame(evt.Topic, evt)
		if err != nil {
			sub.AddCredits(1)
			continue
		}
		if writeErr := s.writeFrame(conn, codec, evtFrame); writeErr != nil {
			return
		}
		sub.AddCredits(1)
	}
}

func (s *Server) reply(conn forge.Connection, codec Codec, frame *Frame) {
	if err := s.writeFrame(conn, codec, frame); err != nil {
		s.logger.Warn("failed to write notify frame",
			slog.String("type", string(frame.Type)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) writeFrame(conn forge.Connection, codec Codec, frame *Frame) error {
	if codec.Name() == CodecNameJSON {
		return conn.WriteJSON(frame)
	}
	data, err := codec.Encode(frame)
	if err != nil {
		return err
	}
	return conn.Write(data)
}

// handleSSE serves read-only Server-Sent Events for listeners that cannot
// open a WebSocket. The topic defaults to failures.
func (s *Server) handleSSE(ctx forge.Context, sseStream forge.Stream) error {
	if s.broker == nil {
		return errors.New("notify: SSE requires an event stream")
	}

	identity, err := s.auth.Authenticate(ctx.Context(), ctx.Query("token"))
	if err != nil {
		return fmt.Errorf("notify: SSE auth failed: %w", err)
	}
	if !identity.HasScope(ScopeSubscribe) {
		return errors.New("notify: SSE insufficient permissions")
	}

	channel := ctx.Query("channel")
	if channel == "" {
		channel = stream.TopicFailures
	}
	if err := stream.ValidateTopic(channel); err != nil {
		return fmt.Errorf("notify: SSE: %w", err)
	}

	connID := "sse-" + id.NewSubscriberID().String()
	sub := s.broker.Subscribe(connID, channel)
	defer s.broker.RemoveSubscriber(connID)

	for {
		select {
		case evt, ok := <-sub.C():
			if !ok {
				return nil
			}
			if sendErr := sseStream.SendJSON(string(evt.Type), evt); sendErr != nil {
				return sendErr
			}
			if flushErr := sseStream.Flush(); flushErr != nil {
				return flushErr
			}
			sub.AddCredits(1)
		case <-sseStream.Context().Done():
			return nil
		}
	}
}

// handleHTTPRPC serves one-shot request frames over plain HTTP.
func (s *Server) handleHTTPRPC(ctx forge.Context) error {
	var frame Frame
	if err := ctx.Bind(&frame); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(NewErrorFrame("", ErrCodeBadRequest, "invalid request body"))
	}

	token := frame.Token
	if token == "" {
		token = ctx.Header("Authorization")
	}
	identity, err := s.auth.Authenticate(ctx.Context(), token)
	if err != nil {
		return ctx.Status(http.StatusUnauthorized).JSON(NewErrorFrame(frame.ID, ErrCodeUnauthorized, "unauthorized"))
	}

	// Subscriptions need a live session.
	if frame.Method == MethodSubscribe || frame.Method == MethodUnsubscribe {
		return ctx.Status(http.StatusBadRequest).JSON(NewErrorFrame(frame.ID, ErrCodeBadRequest, "subscriptions require a WebSocket session"))
	}

	if reqScope := RequiredScope(frame.Method); reqScope != "" && !identity.HasScope(reqScope) {
		return ctx.Status(http.StatusForbidden).JSON(NewErrorFrame(frame.ID, ErrCodeForbidden, "forbidden"))
	}

	session := NewConnection("rpc-"+NewFrameID(), identity, &JSONCodec{})
	resp := s.handler.Handle(ctx.Context(), &frame, session)
	if resp == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	status := http.StatusOK
	if resp.Type == FrameErr && resp.Error != nil {
		status = resp.Error.Code
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}
	}
	return ctx.Status(status).JSON(resp)
}
