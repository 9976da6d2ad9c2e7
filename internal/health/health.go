// Package health serves liveness and readiness probes for the reporting server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Pinger defines the interface for checking store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health checker.
type Config struct {
	ServiceName string
	Version     string
	Logger      *logrus.Logger
	Store       Pinger
}

// Checker answers /health, /live and /ready.
type Checker struct {
	serviceName string
	version     string
	logger      *logrus.Entry
	store       Pinger
	mu          sync.RWMutex
	ready       bool
}

// NewChecker creates a new health checker. It starts not ready.
func NewChecker(cfg Config) *Checker {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Checker{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		logger:      log.WithField("component", "health"),
		store:       cfg.Store,
	}
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service is ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Register mounts the probe endpoints on router.
func (c *Checker) Register(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/live", c.handleLive).Methods(http.MethodGet)
	router.HandleFunc("/ready", c.handleReady).Methods(http.MethodGet)
}

func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.write(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   c.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
	})
}

// handleLive handles the kubernetes liveness probe.
func (c *Checker) handleLive(w http.ResponseWriter, r *http.Request) {
	c.write(w, http.StatusOK, HealthResponse{Status: "ok", Service: c.serviceName})
}

// handleReady checks the ready flag and store connectivity.
func (c *Checker) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if c.IsReady() {
		checks["service"] = "ok"
	} else {
		allHealthy = false
		checks["service"] = "not_ready"
	}

	if c.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := c.store.Ping(ctx); err != nil {
			allHealthy = false
			checks["store"] = fmt.Sprintf("error: %v", err)
			c.logger.WithError(err).Warn("Store ping failed")
		} else {
			checks["store"] = "ok"
		}
	}

	response := ReadyResponse{
		Status:   "ok",
		Service:  c.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	if !allHealthy {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	c.write(w, status, response)
}

func (c *Checker) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.WithError(err).Warn("Failed to encode health response")
	}
}
