// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/shieldsync/shieldsync/internal/assetcache"
	"github.com/shieldsync/shieldsync/internal/config"
	"github.com/shieldsync/shieldsync/internal/importer"
	"github.com/shieldsync/shieldsync/internal/instances"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// ImportRunner is the interface for triggering an import cycle on demand.
type ImportRunner interface {
	CheckAndImportNewEntities(ctx context.Context) importer.Result
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg      config.Config
	Cache    *assetcache.Cache
	Importer ImportRunner
	Registry *instances.Registry
}

// HandleHealthz reports liveness.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// RenderError returns a generic JSON error response. Internal details go
// to the log only, keyed by the request reference.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": msg,
		"code":  InternalErrorCode,
	})
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
}

func companyIDParam(c *echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("companyID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid company id")
	}
	return id, nil
}

// ParseBoolQuery parses a query value as a boolean.
func ParseBoolQuery(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
