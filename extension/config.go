package extension

import (
	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
)

// Config holds configuration for the syncq Forge extension.
type Config struct {
	// BasePath is the URL prefix for the admin API routes.
	BasePath string `default:"" json:"base_path"`

	// DisableRoutes disables the registration of HTTP routes.
	// Useful when the queue is only driven from application code.
	DisableRoutes bool `default:"false" json:"disable_routes"`

	// EnableNotify enables the stream broker and mounts the notify
	// WebSocket, SSE and RPC endpoints.
	EnableNotify bool `default:"false" json:"enable_notify"`

	// NotifyBasePath overrides the notify mount point.
	NotifyBasePath string `default:"/syncq/notify" json:"notify_base_path"`

	// ProbeURL, when set, installs an HTTP HEAD connectivity probe
	// against this URL.
	ProbeURL string `json:"probe_url"`

	// RequireConfig makes Register fail when no config key is present.
	RequireConfig bool `default:"false" json:"require_config"`

	// Queue holds the retry policy.
	Queue syncq.Config `json:"queue"`
}

// DefaultConfig returns the default extension configuration.
func DefaultConfig() Config {
	return Config{
		NotifyBasePath: "/syncq/notify",
		Queue:          syncq.DefaultConfig(),
	}
}
