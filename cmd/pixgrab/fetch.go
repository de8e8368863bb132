package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/locale"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/state"
	"github.com/five82/pixgrab/internal/submit"
)

func newFetchCmd(configPath *string) *cobra.Command {
	var (
		apiBase  string
		loc      string
		download bool
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Submit a URL and print the image links",
		Long: `Submits one product page URL to the backend without any interface and
prints the backend message followed by one link per image and the archive link.
Exits non-zero when the backend reports an error.`,
		Example: `  pixgrab fetch https://shop.example.com/item/42

  # Also save the zip archive
  pixgrab fetch https://shop.example.com/item/42 --download --dir ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, apiBase)
			if err != nil {
				return err
			}
			if loc == "" {
				loc = locale.Detect(cfg.Locale)
			}
			if dir == "" {
				dir = cfg.DownloadDir
			}

			log := logger.NewConsole(cfg.LogLevel, "fetch", false)
			client, err := backend.NewClient(cfg.APIBaseURL,
				backend.WithTimeout(cfg.RequestTimeout),
				backend.WithLogger(log),
				backend.WithUserAgent(userAgent),
			)
			if err != nil {
				return err
			}

			controller := submit.NewController(client, client.Links(), nil,
				submit.WithTimeout(cfg.RequestTimeout),
				submit.WithLogger(log),
			)
			sub := controller.Submit(cmd.Context(), args[0], loc)

			out := cmd.OutOrStdout()
			switch sub.Status {
			case state.Error:
				return errors.New(sub.Message)
			case state.Idle:
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				return errors.New("url is required")
			}

			printResult(out, sub)
			if !download {
				return nil
			}
			if sub.ArchiveURL == "" {
				return errors.New("backend returned no archive")
			}

			bar := progressbar.NewOptions64(-1,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("archive"),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionShowBytes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(false),
			)
			saved, err := client.Download(cmd.Context(), sub.ArchiveURL, dir, func(p backend.Progress) {
				if p.Total > 0 && bar.GetMax64() != p.Total {
					bar.ChangeMax64(p.Total)
				}
				_ = bar.Set64(p.Written)
			})
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("download archive: %w", err)
			}
			fmt.Fprintf(out, "saved %s (%s)\n", saved.Path, humanize.Bytes(uint64(saved.Bytes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiBase, "api", "", "backend API base URL")
	cmd.Flags().StringVar(&loc, "locale", "", "locale sent with the request (defaults to the environment)")
	cmd.Flags().BoolVarP(&download, "download", "d", false, "save the zip archive")
	cmd.Flags().StringVar(&dir, "dir", "", "download directory (defaults to download_dir from config)")

	return cmd
}

func printResult(w io.Writer, sub state.Submission) {
	if sub.Message != "" {
		fmt.Fprintln(w, sub.Message)
	}
	for _, img := range sub.Images {
		fmt.Fprintln(w, img)
	}
	if sub.ArchiveURL != "" {
		fmt.Fprintf(w, "archive: %s\n", sub.ArchiveURL)
	}
}
