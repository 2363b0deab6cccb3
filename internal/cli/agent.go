package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/presentation/tui"
	httpAdapter "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/aretw0/concierge/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AgentOptions configure the local session agent.
type AgentOptions struct {
	Addr          string
	AllowedOrigin string
}

const shutdownTimeout = 5 * time.Second

// RunAgent serves the session over HTTP until ctx is cancelled.
func RunAgent(ctx context.Context, env Env, opts AgentOptions) error {
	if opts.Addr == "" {
		opts.Addr = env.Config.Agent.Addr
	}
	logger := createLogger(env.Config, env.Debug)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	hooks := metrics.Hooks()
	if env.Debug {
		hooks = observability.Combine(hooks, createDebugHooks(logger))
	}

	client, err := openClient(ctx, env.Config, logger, concierge.WithLifecycleHooks(hooks))
	if err != nil {
		return err
	}
	defer client.Close()
	metrics.SetPhase(client.Status().Phase)

	handler := httpAdapter.NewHandler(client.Controller(), client.Store(),
		httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		httpAdapter.WithAllowedOrigin(opts.AllowedOrigin),
		httpAdapter.WithLogger(logger),
	)

	// Requests inherit ctx so event streams end with it instead of holding up shutdown.
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	if !env.JSON {
		tui.PrintBanner(env.Out, strings.TrimSpace(concierge.Version))
		printSystemMessage(env.Out, "Session agent listening on http://%s", opts.Addr)
		printSystemMessage(env.Out, "API: %s", env.Config.BaseURL)
	}
	logger.Info("agent started", "addr", opts.Addr, "phase", client.Status().Phase)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		if !env.JSON {
			printSystemMessage(env.Out, "Session agent stopped.")
		}
		return nil
	}
}
