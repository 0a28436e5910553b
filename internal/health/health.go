// Package health serves the liveness endpoint and hosts the metrics handler.
package health

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"transformd/internal/logging"
	"transformd/internal/telemetry"
)

// Check reports nil when its subsystem is healthy.
type Check func() error

type Checker struct {
	appName string
	start   time.Time

	mu     sync.RWMutex
	checks map[string]Check
}

func NewChecker(appName string) *Checker {
	return &Checker{appName: appName, start: time.Now(), checks: map[string]Check{}}
}

func (c *Checker) AddCheck(name string, fn Check) {
	c.mu.Lock()
	c.checks[name] = fn
	c.mu.Unlock()
}

type Status struct {
	AppName       string            `json:"app_name"`
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{
		AppName:       c.appName,
		Status:        "healthy",
		UptimeSeconds: time.Since(c.start).Seconds(),
		Checks:        map[string]string{},
	}
	for name, fn := range c.checks {
		if err := fn(); err != nil {
			logging.L().Warn("health check failed", "check", name, "error", err)
			st.Status = "unhealthy"
			st.Checks[name] = err.Error()
			continue
		}
		st.Checks[name] = "ok"
	}
	return st
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	st := c.Status()
	code := http.StatusOK
	if st.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}

// Serve exposes /healthz and /metrics on the given port in the background.
func Serve(port int, checker *Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/healthz", checker)
	mux.Handle("/metrics", telemetry.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("health server stopped", "error", err)
		}
	}()
	return srv
}
