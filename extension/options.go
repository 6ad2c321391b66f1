package extension

import (
	"log/slog"

	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	mw "github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
	"github.com/chescoreloaded/SistemaExamenes-sub001/network"
	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
)

// ExtOption configures the syncq Forge extension.
type ExtOption func(*Extension)

// WithExtension registers a queue lifecycle extension.
func WithExtension(x ext.Extension) ExtOption {
	return func(e *Extension) {
		e.exts = append(e.exts, x)
	}
}

// WithMiddleware adds attempt middleware to the engine.
func WithMiddleware(m mw.Middleware) ExtOption {
	return func(e *Extension) {
		e.mws = append(e.mws, m)
	}
}

// WithBackoff replaces the fixed retry delay.
func WithBackoff(b backoff.Strategy) ExtOption {
	return func(e *Extension) {
		e.bo = b
	}
}

// WithProbe sets the connectivity probe. It takes precedence over
// Config.ProbeURL.
func WithProbe(p network.Probe) ExtOption {
	return func(e *Extension) {
		e.probe = p
	}
}

// WithBasePath sets the URL prefix for the admin routes.
func WithBasePath(path string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = path
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithNotify enables the notify endpoints. Options are passed to the
// notify server.
func WithNotify(opts ...notify.Option) ExtOption {
	return func(e *Extension) {
		e.config.EnableNotify = true
		e.notifyOpts = append(e.notifyOpts, opts...)
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) ExtOption {
	return func(e *Extension) {
		e.config.RequireConfig = require
	}
}

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}
