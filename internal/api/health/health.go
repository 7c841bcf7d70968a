// Package health provides health check functionality for the dashboard.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is fully operational.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates the component is operational but with issues.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy indicates the component is not operational.
	StatusUnhealthy Status = "unhealthy"
)

// ComponentStatus represents the health status of a single component.
type ComponentStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response represents the health check response.
type Response struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
}

// Pinger is an interface for components that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker performs health checks for the dashboard. A missing scan root
// makes the service unhealthy; a broken history store only degrades it,
// since the dashboard still works without history.
type Checker struct {
	history   Pinger
	scanRoot  string
	startTime time.Time
	version   string
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewChecker creates a new health checker.
func NewChecker(history Pinger, scanRoot, version string) *Checker {
	return &Checker{
		history:   history,
		scanRoot:  scanRoot,
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout sets the timeout for health checks.
func (c *Checker) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Check performs all health checks and returns the aggregated response.
func (c *Checker) Check(ctx context.Context) *Response {
	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	components := map[string]ComponentStatus{
		"scan_root": c.checkScanRoot(),
		"history":   c.checkHistory(checkCtx),
	}

	overallStatus := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
		if comp.Status == StatusDegraded {
			overallStatus = StatusDegraded
		}
	}

	return &Response{
		Status:     overallStatus,
		Components: components,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
	}
}

func (c *Checker) checkScanRoot() ComponentStatus {
	info, err := os.Stat(c.scanRoot)
	if err != nil {
		return ComponentStatus{
			Status:  StatusUnhealthy,
			Message: "scan root unavailable: " + err.Error(),
		}
	}
	if !info.IsDir() {
		return ComponentStatus{
			Status:  StatusUnhealthy,
			Message: "scan root is not a directory",
		}
	}
	return ComponentStatus{Status: StatusHealthy}
}

func (c *Checker) checkHistory(ctx context.Context) ComponentStatus {
	if c.history == nil {
		return ComponentStatus{
			Status:  StatusDegraded,
			Message: "history persistence disabled",
		}
	}
	if err := c.history.Ping(ctx); err != nil {
		return ComponentStatus{
			Status:  StatusDegraded,
			Message: "history ping failed: " + err.Error(),
		}
	}
	return ComponentStatus{Status: StatusHealthy}
}

// Handler returns an HTTP handler for health checks.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")

		switch response.Status {
		case StatusHealthy, StatusDegraded:
			w.WriteHeader(http.StatusOK)
		case StatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}
