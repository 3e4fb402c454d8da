// Package health reports storage reachability and scheduled refresh status.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/matrixise/coinfolio/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pinger is a dependency that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker performs health checks on application dependencies
type Checker struct {
	storage Pinger
	// interval is the expected refresh period; 0 disables the refresh check
	interval time.Duration
	logger   *slog.Logger
	started  time.Time

	mu             sync.RWMutex
	lastRunTime    time.Time
	lastRunSuccess bool
	lastRunError   string
}

// NewChecker creates a new health checker
func NewChecker(storage Pinger, interval time.Duration, l *slog.Logger) *Checker {
	return &Checker{
		storage:  storage,
		interval: interval,
		logger:   logger.OrDefault(l).With("component", "health"),
		started:  time.Now(),
	}
}

// UpdateLastRun records the outcome of a scheduled refresh
func (c *Checker) UpdateLastRun(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRunTime = time.Now()
	c.lastRunSuccess = err == nil
	c.lastRunError = ""
	if err != nil {
		c.lastRunError = err.Error()
	}
}

// CheckStatus represents the health status of a component
type CheckStatus string

const (
	StatusOK       CheckStatus = "ok"
	StatusDegraded CheckStatus = "degraded"
	StatusError    CheckStatus = "error"
)

// HealthResponse is the JSON response structure
type HealthResponse struct {
	Status    CheckStatus            `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckDetail `json:"checks"`
	Uptime    string                 `json:"uptime,omitempty"`
}

// CheckDetail contains details about a specific health check
type CheckDetail struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Check performs all health checks and returns the aggregated status
func (c *Checker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]CheckDetail)
	overallStatus := StatusOK

	storageCheck := c.checkStorage(ctx)
	checks["storage"] = storageCheck
	if storageCheck.Status != StatusOK {
		overallStatus = StatusError
	}

	if c.interval > 0 {
		refreshCheck := c.checkRefresh()
		checks["refresh"] = refreshCheck
		if refreshCheck.Status != StatusOK && overallStatus == StatusOK {
			overallStatus = StatusDegraded
		}
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
	}
}

func (c *Checker) checkStorage(ctx context.Context) CheckDetail {
	if c.storage == nil {
		return CheckDetail{Status: StatusOK, Message: "no storage configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.storage.Ping(ctx); err != nil {
		c.logger.Error("Health check: storage ping failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "storage unreachable: " + err.Error(),
		}
	}

	return CheckDetail{Status: StatusOK, Message: "storage reachable"}
}

// checkRefresh verifies refreshes run on schedule, allowing twice the interval
func (c *Checker) checkRefresh() CheckDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastRunTime.IsZero() {
		return CheckDetail{Status: StatusOK, Message: "refresh not yet executed (startup)"}
	}

	if !c.lastRunSuccess {
		return CheckDetail{Status: StatusDegraded, Message: "last refresh failed: " + c.lastRunError}
	}

	sinceLastRun := time.Since(c.lastRunTime)
	if sinceLastRun > c.interval*2 {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("no refresh in %s (expected every %s)", sinceLastRun.Round(time.Second), c.interval),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("last refreshed %s ago", sinceLastRun.Round(time.Second)),
	}
}

// Handler returns an http.HandlerFunc for the health endpoint
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check(r.Context())

		statusCode := http.StatusOK
		if status.Status == StatusError {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			c.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
