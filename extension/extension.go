// Package extension provides the Forge extension adapter for syncq.
//
// It implements the forge.Extension interface to mount a sync retry queue
// into a Forge application with route registration, DI and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.syncq" or "syncq" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/api"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/engine"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	mw "github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
	"github.com/chescoreloaded/SistemaExamenes-sub001/network"
	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "syncq"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "In-process retry queue for remote writes made while offline"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts a sync engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	eng          *engine.Engine
	apiHandler   *api.API
	notifyServer *notify.Server
	logger       *slog.Logger
	exts         []ext.Extension
	mws          []mw.Middleware
	notifyOpts   []notify.Option
	bo           backoff.Strategy
	probe        network.Probe
}

// New creates a syncq Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *engine.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// NotifyServer returns the notify server, or nil if notify is not enabled.
func (e *Extension) NotifyServer() *notify.Server { return e.notifyServer }

// Register implements [forge.Extension]. It builds the engine and
// optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.init(fapp); err != nil {
		return err
	}

	// Register the engine in the DI container so other extensions can enqueue.
	if err := vessel.Provide(fapp.Container(), func() (*engine.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("syncq: register engine in container: %w", err)
	}

	return nil
}

// init builds the engine, the API and the notify server.
func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	probe := e.probe
	if probe == nil && e.config.ProbeURL != "" {
		probe = network.HTTPProbe(nil, e.config.ProbeURL)
	}

	engOpts := make([]engine.Option, 0, len(e.exts)+len(e.mws)+5)
	engOpts = append(engOpts,
		engine.WithConfig(e.config.Queue),
		engine.WithLogger(logger),
		engine.WithMetricFactory(fapp.Metrics()),
	)
	for _, x := range e.exts {
		engOpts = append(engOpts, engine.WithExtension(x))
	}
	for _, m := range e.mws {
		engOpts = append(engOpts, engine.WithMiddleware(m))
	}
	if e.bo != nil {
		engOpts = append(engOpts, engine.WithBackoff(e.bo))
	}
	if probe != nil {
		engOpts = append(engOpts, engine.WithProbe(probe))
	}
	if e.config.EnableNotify {
		engOpts = append(engOpts, engine.WithStreamBroker())
	}

	var err error
	e.eng, err = engine.New(engOpts...)
	if err != nil {
		return fmt.Errorf("syncq: build engine: %w", err)
	}

	e.apiHandler = api.New(e.eng, fapp.Router())
	if !e.config.DisableRoutes {
		e.RegisterRoutes(fapp.Router())
	}

	if e.eng.Broker() != nil {
		notifyOptList := make([]notify.Option, 0, len(e.notifyOpts)+2)
		notifyOptList = append(notifyOptList, notify.WithLogger(logger))
		if e.config.NotifyBasePath != "" {
			notifyOptList = append(notifyOptList, notify.WithPath(e.config.NotifyBasePath))
		}
		notifyOptList = append(notifyOptList, e.notifyOpts...)

		handler := notify.NewHandler(e.eng, e.eng.Broker(), logger)
		e.notifyServer = notify.NewServer(e.eng.Broker(), handler, notifyOptList...)

		if !e.config.DisableRoutes {
			e.notifyServer.RegisterRoutes(fapp.Router())
		}
	}

	return nil
}

// Start launches the engine's background loops.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("syncq: extension not initialized")
	}

	if err := e.eng.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop shuts the engine down. Pending writes are discarded.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		e.MarkStopped()
		return nil
	}
	err := e.eng.Stop(ctx)
	e.MarkStopped()
	return err
}

// Health implements [forge.Extension]. Being offline is not unhealthy;
// writes simply wait in the queue.
func (e *Extension) Health(_ context.Context) error {
	if e.eng == nil {
		return errors.New("syncq: extension not initialized")
	}
	if e.eng.Stopped() {
		return syncq.ErrEngineStopped
	}
	return nil
}

// Handler returns the HTTP handler for the admin routes.
// Convenience for standalone use outside Forge.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers the admin routes under BasePath.
func (e *Extension) RegisterRoutes(router forge.Router) {
	if e.apiHandler == nil {
		return
	}
	if e.config.BasePath != "" {
		router = router.Group(e.config.BasePath)
	}
	e.apiHandler.RegisterRoutes(router)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("syncq: configuration is required but not found in config files; " +
				"ensure 'extensions.syncq' or 'syncq' key exists in your config")
		}
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeWithDefaults(e.mergeConfigurations(fileConfig, programmaticConfig))
	}

	e.Logger().Debug("syncq: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("enable_notify", e.config.EnableNotify),
		forge.F("base_path", e.config.BasePath),
		forge.F("max_retries", e.config.Queue.MaxRetries),
		forge.F("retry_delay", e.config.Queue.RetryDelay.String()),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.syncq", "syncq"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("syncq: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("syncq: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults. Zero is never a
// valid MaxRetries or RetryDelay, so it reads as unset. A zero
// AttemptTimeout is meaningful and left alone.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.NotifyBasePath == "" {
		cfg.NotifyBasePath = defaults.NotifyBasePath
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = defaults.Queue.MaxRetries
	}
	if cfg.Queue.RetryDelay == 0 {
		cfg.Queue.RetryDelay = defaults.Queue.RetryDelay
	}
	if cfg.Queue.ProbeInterval == 0 {
		cfg.Queue.ProbeInterval = defaults.Queue.ProbeInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML takes precedence; programmatic bool flags and strings fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.EnableNotify {
		yamlConfig.EnableNotify = true
	}

	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.NotifyBasePath == "" && programmaticConfig.NotifyBasePath != "" {
		yamlConfig.NotifyBasePath = programmaticConfig.NotifyBasePath
	}
	if yamlConfig.ProbeURL == "" && programmaticConfig.ProbeURL != "" {
		yamlConfig.ProbeURL = programmaticConfig.ProbeURL
	}
	if yamlConfig.Queue == (syncq.Config{}) {
		yamlConfig.Queue = programmaticConfig.Queue
	}

	return yamlConfig
}
