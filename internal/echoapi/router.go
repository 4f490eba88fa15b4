// Package echoapi is a second, independent read-only status surface over
// a *supervisor.Supervisor, built natively on labstack/echo/v4 rather than
// wrapping internal/httpapi's gin handler with echo.WrapHandler the way
// examples/embedded_http_echo wraps internal/server's gin router. Exposing
// the same query data through two distinct web frameworks exercises both
// dependencies directly instead of layering one on the other.
package echoapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// Router provides embeddable read-only echo handlers over a Supervisor.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
}

func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: basePath}
}

// Handler returns an *echo.Echo exposing the same data as
// internal/httpapi.Router under the same relative paths.
func (r *Router) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	group := e.Group(r.basePath)
	group.GET("/services", r.handleList)
	group.GET("/services/:name/status", r.handleStatus)
	group.GET("/services/:name/health", r.handleHealth)
	group.GET("/services/:name/history", r.handleHistory)
	group.GET("/health", r.handleHealthAll)
	return e
}

func (r *Router) handleList(c echo.Context) error {
	if pattern := c.QueryParam("match"); pattern != "" {
		return c.JSON(http.StatusOK, map[string]any{"services": r.sup.ServicesMatching(pattern)})
	}
	return c.JSON(http.StatusOK, map[string]any{"services": r.sup.Services()})
}

func (r *Router) handleHistory(c echo.Context) error {
	name := c.Param("name")
	return c.JSON(http.StatusOK, map[string]any{"name": name, "history": r.sup.ServiceHistory(name)})
}

func (r *Router) handleStatus(c echo.Context) error {
	name := c.Param("name")
	status, err := r.sup.Status(name)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"name": name, "status": status})
}

func (r *Router) handleHealth(c echo.Context) error {
	name := c.Param("name")
	report, err := r.sup.HealthCheckService(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

func (r *Router) handleHealthAll(c echo.Context) error {
	reports := r.sup.HealthCheckAllServices(c.Request().Context())
	return c.JSON(http.StatusOK, reports)
}

// NewServer starts a standalone echo server on addr, mirroring
// internal/httpapi.NewServer's start-then-watch-for-bind-error pattern.
func NewServer(addr, basePath string, sup *supervisor.Supervisor) (*echo.Echo, error) {
	r := NewRouter(sup, basePath)
	e := r.Handler()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	case <-time.After(100 * time.Millisecond):
	}
	return e, nil
}
