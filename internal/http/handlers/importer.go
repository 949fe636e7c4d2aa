package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

// HandleImportRun runs one auto-import cycle on demand and returns its
// result. Partial failure is still a 200; the errors ride in the body.
func (h *Handlers) HandleImportRun(c *echo.Context) error {
	if h.Importer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "auto import is not configured")
	}
	return c.JSON(http.StatusOK, h.Importer.CheckAndImportNewEntities(c.Request().Context()))
}
