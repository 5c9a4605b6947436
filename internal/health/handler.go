// Package health reports whether the service's backing components are reachable.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 2 * time.Second

const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Component is the health of one backing component.
type Component struct {
	Status string `doc:"healthy or unhealthy" json:"status"`
	Error  string `doc:"Why the check failed" json:"error,omitempty"`
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status     string               `doc:"ok, or degraded when any component is unhealthy" json:"status"`
		Components map[string]Component `json:"components"`
	}
}

// Handler checks named components in parallel, each under its own timeout.
type Handler struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHandler creates a health handler. A non-positive timeout selects DefaultTimeout.
func NewHandler(checkers map[string]Checker, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Handler{checkers: checkers, timeout: timeout}
}

// Check reports every component. An unhealthy component degrades the status; the request
// itself still succeeds.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Components = make(map[string]Component, len(h.checkers))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for name, checker := range h.checkers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			component := h.check(ctx, checker)

			mu.Lock()
			defer mu.Unlock()

			resp.Body.Components[name] = component
			if component.Status != StatusHealthy {
				resp.Body.Status = StatusDegraded
			}
		}()
	}

	wg.Wait()

	return resp, nil
}

func (h *Handler) check(ctx context.Context, checker Checker) Component {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := checker.Ping(ctx); err != nil {
		return Component{Status: StatusUnhealthy, Error: err.Error()}
	}

	return Component{Status: StatusHealthy}
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
