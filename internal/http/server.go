// Package httpapp wires the JSON API on top of echo.
package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/shieldsync/shieldsync/internal/assetcache"
	"github.com/shieldsync/shieldsync/internal/config"
	"github.com/shieldsync/shieldsync/internal/http/handlers"
	"github.com/shieldsync/shieldsync/internal/instances"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h   *handlers.Handlers
	e   *echo.Echo
	srv *http.Server
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, cache *assetcache.Cache, importer handlers.ImportRunner, reg *instances.Registry) (*EchoServer, error) {
	h := &handlers.Handlers{Cfg: cfg, Cache: cache, Importer: importer, Registry: reg}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HTTPErrorHandler = es.httpErrorHandler
	es.e.Use(middleware.Recover())
	es.e.Use(requestID())
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	api := es.e.Group("/api")
	api.GET("/cache/:companyID", es.h.HandleCacheShow)
	api.POST("/cache/:companyID/sync", es.h.HandleCacheSync)
	api.POST("/cache/:companyID/names", es.h.HandleCacheNames)
	api.POST("/import", es.h.HandleImportRun)
	api.GET("/instances", es.h.HandleInstancesList)
	api.PUT("/instances/:id", es.h.HandleInstanceUpdate)
}

// httpErrorHandler keeps error responses generic: echo errors map to
// their status with a stock message, everything else is a 500 carrying
// only the request reference.
func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if r, _ := echo.UnwrapResponse(c.Response()); r != nil && r.Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			_ = handlers.RenderNotFound(c)
			return
		}
		_ = c.JSON(he.Code, map[string]string{"error": http.StatusText(he.Code)})
		return
	}
	_ = es.h.RenderError(c, err)
}

// requestID tags each request with an id for log correlation and client
// error references.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(handlers.ContextKeyRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.StartServer(&http.Server{Addr: addr})
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	server.Handler = es.e
	es.srv = server
	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	if es.srv == nil {
		return nil
	}
	return es.srv.Shutdown(ctx)
}
