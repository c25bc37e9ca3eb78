package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	health "github.com/hellofresh/health-go/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 2 * time.Second

// NewObservability exposes readiness and metrics. The store check keeps
// /healthz honest about the persistence collaborator.
func NewObservability(config Config, storeCheck func(context.Context) error) (*http.Server, error) {
	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "secret_vault",
			Version: "v1.0.0",
		}),
		health.WithChecks(health.Config{
			Name:    "store",
			Timeout: checkTimeout,
			Check:   storeCheck,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize health checks: %w", err)
	}

	router := http.NewServeMux()
	router.Handle("/healthz", h.Handler())
	router.Handle("/metrics", promhttp.Handler())

	return newServer(config, router), nil
}
