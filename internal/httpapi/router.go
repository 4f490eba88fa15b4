// Package httpapi exposes a read-only gin surface over a
// *supervisor.Supervisor, grounded on internal/server/router.go's
// gin.New()+gin.Recovery()+route-group pattern. Unlike that router, every
// endpoint here is GET: this surface only ever queries registry/status/
// health state, never starts, stops, or registers a service — lifecycle
// mutation is out of scope for the embeddable HTTP layer.
package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// Router provides embeddable read-only HTTP handlers over a Supervisor.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
}

// NewRouter constructs a Router rooted at basePath (e.g. "/api"); empty or
// "/" both mean unprefixed, same as internal/server/router.go's sanitizeBase.
func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

func sanitizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}

// Handler returns an http.Handler exposing:
//
//	GET {base}/services               -> list of registered names (optionally filtered by ?match=pattern)
//	GET {base}/services/:name/status  -> ManagedStatus
//	GET {base}/services/:name/health  -> HealthReport
//	GET {base}/services/:name/history -> bounded in-memory lifecycle event history
//	GET {base}/health                 -> HealthReport for every service
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/services", r.handleList)
	group.GET("/services/:name/status", r.handleStatus)
	group.GET("/services/:name/health", r.handleHealth)
	group.GET("/services/:name/history", r.handleHistory)
	group.GET("/health", r.handleHealthAll)
	return g
}

func (r *Router) handleList(c *gin.Context) {
	if pattern := c.Query("match"); pattern != "" {
		c.JSON(http.StatusOK, gin.H{"services": r.sup.ServicesMatching(pattern)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": r.sup.Services()})
}

func (r *Router) handleHistory(c *gin.Context) {
	name := c.Param("name")
	c.JSON(http.StatusOK, gin.H{"name": name, "history": r.sup.ServiceHistory(name)})
}

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Param("name")
	status, err := r.sup.Status(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "status": status})
}

func (r *Router) handleHealth(c *gin.Context) {
	name := c.Param("name")
	report, err := r.sup.HealthCheckService(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleHealthAll(c *gin.Context) {
	reports := r.sup.HealthCheckAllServices(c.Request.Context())
	c.JSON(http.StatusOK, reports)
}

// NewServer starts a standalone HTTP server on addr using this router,
// mirroring internal/server/router.go's NewServer timeouts and its
// start-then-watch-for-an-immediate-bind-error pattern.
func NewServer(addr, basePath string, sup *supervisor.Supervisor) (*http.Server, error) {
	r := NewRouter(sup, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return server, nil
}
