package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Pinger { return pingFunc(func(context.Context) error { return nil }) }

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		storage    Pinger
		interval   time.Duration
		setup      func(*Checker)
		wantStatus CheckStatus
		wantChecks []string
	}{
		{
			name:       "one-shot mode only checks storage",
			storage:    healthy(),
			wantStatus: StatusOK,
			wantChecks: []string{"storage"},
		},
		{
			name:       "startup before the first refresh",
			storage:    healthy(),
			interval:   time.Minute,
			wantStatus: StatusOK,
			wantChecks: []string{"storage", "refresh"},
		},
		{
			name:       "successful refresh",
			storage:    healthy(),
			interval:   time.Minute,
			setup:      func(c *Checker) { c.UpdateLastRun(nil) },
			wantStatus: StatusOK,
		},
		{
			name:       "failed refresh degrades",
			storage:    healthy(),
			interval:   time.Minute,
			setup:      func(c *Checker) { c.UpdateLastRun(errors.New("status 429")) },
			wantStatus: StatusDegraded,
		},
		{
			name:     "stale refresh degrades",
			storage:  healthy(),
			interval: time.Minute,
			setup: func(c *Checker) {
				c.UpdateLastRun(nil)
				c.lastRunTime = time.Now().Add(-3 * time.Minute)
			},
			wantStatus: StatusDegraded,
		},
		{
			name:       "unreachable storage is an error",
			storage:    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			interval:   time.Minute,
			setup:      func(c *Checker) { c.UpdateLastRun(errors.New("boom")) },
			wantStatus: StatusError,
		},
		{
			name:       "no storage",
			wantStatus: StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.storage, tt.interval, nil)
			if tt.setup != nil {
				tt.setup(c)
			}
			resp := c.Check(context.Background())
			assert.Equal(t, tt.wantStatus, resp.Status)
			for _, name := range tt.wantChecks {
				assert.Contains(t, resp.Checks, name)
			}
			if tt.interval == 0 {
				assert.NotContains(t, resp.Checks, "refresh")
			}
		})
	}
}

func TestHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c := NewChecker(healthy(), 0, nil)
		rec := httptest.NewRecorder()
		c.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, StatusOK, resp.Status)
		assert.Equal(t, StatusOK, resp.Checks["storage"].Status)
	})

	t.Run("storage down", func(t *testing.T) {
		c := NewChecker(pingFunc(func(context.Context) error { return errors.New("down") }), 0, nil)
		rec := httptest.NewRecorder()
		c.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		c := NewChecker(healthy(), 0, nil)
		rec := httptest.NewRecorder()
		c.Handler()(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
