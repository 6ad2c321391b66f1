// Package api exposes the sync queue's admin operations over HTTP.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/chescoreloaded/SistemaExamenes-sub001/engine"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
)

// API wires the forge handlers for one engine.
type API struct {
	eng    *engine.Engine
	router forge.Router
}

// New creates an API from an engine.
func New(eng *engine.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers the queue and network routes with OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	a.registerQueueRoutes(router)
	a.registerNetworkRoutes(router)
}

func (a *API) registerQueueRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("queue"))

	_ = g.GET("/queue", a.queueStatus,
		forge.WithSummary("Queue status"),
		forge.WithDescription("Returns the pending writes, their retry counts and whether a drain loop is active."),
		forge.WithOperationID("queueStatus"),
		forge.WithResponseSchema(http.StatusOK, "Queue status", queue.Status{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/queue/clear", a.clearQueue,
		forge.WithSummary("Clear queue"),
		forge.WithDescription("Discards every pending write without failure notifications."),
		forge.WithOperationID("clearQueue"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/queue/resume", a.resumeQueue,
		forge.WithSummary("Resume queue"),
		forge.WithDescription("Starts draining pending writes if no drain loop is active."),
		forge.WithOperationID("resumeQueue"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) registerNetworkRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("network"))

	_ = g.GET("/network", a.networkState,
		forge.WithSummary("Connectivity state"),
		forge.WithDescription("Returns the last known connectivity state."),
		forge.WithOperationID("networkState"),
		forge.WithResponseSchema(http.StatusOK, "Connectivity state", NetworkResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.PUT("/network", a.setNetworkState,
		forge.WithSummary("Set connectivity state"),
		forge.WithDescription("Records a host connectivity signal. Going online resumes the queue."),
		forge.WithOperationID("setNetworkState"),
		forge.WithRequestSchema(SetNetworkRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Connectivity state", NetworkResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/network/check", a.checkNetwork,
		forge.WithSummary("Probe connectivity"),
		forge.WithDescription("Runs the configured connectivity probe once."),
		forge.WithOperationID("checkNetwork"),
		forge.WithResponseSchema(http.StatusOK, "Connectivity state", NetworkResponse{}),
		forge.WithErrorResponses(),
	)
}
