package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/pixgrab/internal/config"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/monitoring"
	"github.com/five82/pixgrab/internal/proxy"
)

func newProxyCmd(configPath *string) *cobra.Command {
	var (
		listen string
		target string
		strip  bool
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Forward /api to the backend",
		Long: `Runs only the development proxy: requests under /api are forwarded to the
backend with Host and Origin rewritten, so a page served from another origin
can call it. Unreachable backends answer 502 {"error": "Backend unavailable"}.`,
		Example: `  # Forward :8080/api/* to http://127.0.0.1:5000/api/*
  pixgrab proxy

  # Custom backend, dropping the /api prefix on the way
  pixgrab proxy --target http://10.0.0.7:5000 --strip-prefix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if listen == "" {
				listen = cfg.Listen
			}
			if target == "" {
				target = cfg.ProxyTarget
			}

			log := logger.NewConsole(cfg.LogLevel, "proxy", false)

			var metrics *monitoring.Metrics
			if cfg.MetricsEnabled {
				metrics = monitoring.New()
			}

			handler, err := proxy.New(target, proxy.Options{
				Prefix:      config.ProxyPrefix,
				StripPrefix: strip,
				Metrics:     metrics,
				Logger:      log,
			})
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle(config.ProxyPrefix+"/", handler)
			if metrics != nil {
				mux.Handle("GET /metrics", metrics.Handler())
			}
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					log.Error().Err(err).Msg("unable to write healthcheck")
				}
			})

			server := &http.Server{
				Addr:              listen,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Info().Str("addr", listen).Str("target", target).Msg("proxy listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				log.Info().Msg("shutting down proxy")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on")
	cmd.Flags().StringVar(&target, "target", "", "backend origin to forward to")
	cmd.Flags().BoolVar(&strip, "strip-prefix", false, "remove /api before forwarding")

	return cmd
}
