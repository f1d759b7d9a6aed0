package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vibe-music/vibe-music-server/internal/api/dto"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
}

// NewHealthHandler returns a new handler instance. deps maps a dependency
// name such as "postgres" to its probe.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.Success("alive", fiber.Map{
		"service": h.serviceName,
		"version": h.version,
	}))
}

// Ready pings every dependency concurrently and reports 503 unless all of
// them answer.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		status = make(map[string]any, len(h.deps))
		ready  = true
	)
	var g errgroup.Group
	for name, dep := range h.deps {
		name, dep := name, dep
		g.Go(func() error {
			result := "ok"
			if err := dep.Ping(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			status[name] = result
			if result != "ok" {
				ready = false
			}
			return nil
		})
	}
	_ = g.Wait()

	if ready {
		return c.JSON(dto.Success("ready", status))
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(
		dto.Failure("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", status))
}
