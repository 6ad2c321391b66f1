package api

import (
	"net/http"

	"github.com/xraph/forge"
)

func (a *API) queueStatus(ctx forge.Context) error {
	return ctx.JSON(http.StatusOK, a.eng.Status())
}

func (a *API) clearQueue(ctx forge.Context) error {
	a.eng.Clear()
	return ctx.NoContent(http.StatusNoContent)
}

func (a *API) resumeQueue(ctx forge.Context) error {
	a.eng.Resume()
	return ctx.NoContent(http.StatusNoContent)
}
