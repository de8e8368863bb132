package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/config"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/monitoring"
	"github.com/five82/pixgrab/internal/proxy"
	"github.com/five82/pixgrab/internal/web"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		listen  string
		apiBase string
		noProxy bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Starts the pixgrab web interface.

The page posts URLs to the backend and links each image and the zip archive
through /api, which this server forwards to the backend unless --no-proxy is
set. /healthcheck and /metrics are served alongside.`,
		Example: `  # Serve on the configured address (default :8080)
  pixgrab serve

  # Serve on another port
  pixgrab serve --listen :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, apiBase)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if noProxy {
				cfg.ProxyEnabled = false
				if cfg.PublicAPIBaseURL == config.ProxyPrefix {
					cfg.PublicAPIBaseURL = cfg.APIBaseURL
				}
			}

			log := logger.NewConsole(cfg.LogLevel, "serve", false)

			var metrics *monitoring.Metrics
			if cfg.MetricsEnabled {
				metrics = monitoring.New()
			}

			client, err := backend.NewClient(cfg.APIBaseURL,
				backend.WithTimeout(cfg.RequestTimeout),
				backend.WithLogger(log),
				backend.WithUserAgent(userAgent),
			)
			if err != nil {
				return err
			}

			var apiProxy http.Handler
			if cfg.ProxyEnabled {
				apiProxy, err = proxy.New(cfg.ProxyTarget, proxy.Options{
					Prefix:  config.ProxyPrefix,
					Metrics: metrics,
					Logger:  log,
				})
				if err != nil {
					return err
				}
			}

			server := web.New(web.Options{
				Addr:          cfg.Listen,
				Processor:     client,
				PublicBase:    cfg.PublicAPIBaseURL,
				Proxy:         apiProxy,
				Metrics:       metrics,
				Logger:        log,
				Timeout:       cfg.RequestTimeout,
				DefaultLocale: cfg.Locale,
			})
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on")
	cmd.Flags().StringVar(&apiBase, "api", "", "backend API base URL")
	cmd.Flags().BoolVar(&noProxy, "no-proxy", false, "do not forward /api to the backend")

	return cmd
}
