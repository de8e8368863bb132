package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/five82/pixgrab/internal/app"
	"github.com/five82/pixgrab/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		prefsPath   string
		apiBase     string
		pollSeconds int
	)

	cmd := &cobra.Command{
		Use:   "pixgrab",
		Short: "Grab every product image from a page",
		Long: `pixgrab sends a product page URL to the image-extraction backend and
shows the images it found, each downloadable on its own or all together as
a zip archive.

Without a subcommand pixgrab starts the terminal interface.`,
		Example: `  # Terminal interface against the default backend
  pixgrab

  # Point at another backend
  pixgrab --api http://10.0.0.7:5000/api`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, apiBase)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), app.Options{
				Config:    cfg,
				PrefsPath: prefsPath,
				PollEvery: pollSeconds,
				UserAgent: userAgent,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults to ~/.config/pixgrab/config.toml)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file path (defaults to ~/.config/pixgrab/prefs.toml)")
	cmd.Flags().StringVar(&apiBase, "api", "", "backend API base URL")
	cmd.Flags().IntVar(&pollSeconds, "poll", 0, "backend health check interval in seconds")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newProxyCmd(&configPath))
	cmd.AddCommand(newFetchCmd(&configPath))
	cmd.AddCommand(newLogsCmd(&configPath))

	return cmd
}

// loadConfig reads the config file and applies a non-empty --api override.
func loadConfig(path, apiBase string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimRight(strings.TrimSpace(apiBase), "/"); v != "" {
		if cfg.PublicAPIBaseURL == cfg.APIBaseURL {
			cfg.PublicAPIBaseURL = v
		}
		cfg.APIBaseURL = v
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}
