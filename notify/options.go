package notify

import "log/slog"

// Option configures a Server.
type Option func(*Server)

// WithAuth sets the authenticator. Without it NoopAuthenticator is used.
func WithAuth(auth Authenticator) Option {
	return func(s *Server) { s.auth = auth }
}

// WithCodec sets the default codec. Clients can override it in the auth frame.
func WithCodec(codec Codec) Option {
	return func(s *Server) { s.defaultCodec = codec }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPath sets the base path for the endpoints. Default is "/syncq/notify".
func WithPath(path string) Option {
	return func(s *Server) { s.basePath = path }
}
