package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
)

func (a *API) networkState(ctx forge.Context) error {
	return ctx.JSON(http.StatusOK, NetworkResponse{Online: a.eng.Online()})
}

func (a *API) setNetworkState(ctx forge.Context) error {
	var req SetNetworkRequest
	if err := ctx.Bind(&req); err != nil {
		return forge.BadRequest("invalid request body")
	}
	if req.Online == nil {
		return forge.BadRequest("online is required")
	}

	changed := a.eng.SetOnline(*req.Online)
	return ctx.JSON(http.StatusOK, NetworkResponse{Online: a.eng.Online(), Changed: changed})
}

func (a *API) checkNetwork(ctx forge.Context) error {
	online, err := a.eng.CheckConnectivity(ctx.Context())
	switch {
	case errors.Is(err, syncq.ErrNoProbe):
		return forge.NotFound("no connectivity probe configured")
	case errors.Is(err, syncq.ErrProbeThrottled):
		return ctx.Status(http.StatusTooManyRequests).JSON(map[string]string{"error": err.Error()})
	}
	// A failed probe is still an answer: offline.
	return ctx.JSON(http.StatusOK, NetworkResponse{Online: online})
}
