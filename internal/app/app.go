package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/config"
	"github.com/five82/pixgrab/internal/locale"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/prefs"
	"github.com/five82/pixgrab/internal/state"
	"github.com/five82/pixgrab/internal/submit"
	"github.com/five82/pixgrab/internal/ui"
)

// Options configure the pixgrab TUI.
type Options struct {
	Config    config.Config
	PrefsPath string // empty uses default ~/.config/pixgrab/prefs.toml
	PollEvery int    // seconds; zero uses default
	UserAgent string // empty uses the client default
}

// Run boots the pixgrab TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config

	// Stderr belongs to the TUI, so logs go to a file.
	log, closer, err := logger.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = closer.Close() }()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := backend.NewClient(cfg.APIBaseURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(log),
		backend.WithUserAgent(opts.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}

	store := &state.Store{}
	controller := submit.NewController(client, client.Links(), store,
		submit.WithTimeout(cfg.RequestTimeout),
		submit.WithLogger(log),
	)

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background health poller
	StartPoller(ctx, store, client, interval, log)

	loc := locale.Detect(cfg.Locale)
	log.Info().Str("api", client.BaseURL()).Str("locale", loc).Msg("pixgrab tui starting")

	err = ui.Run(ui.Options{
		Context:     ctx,
		Controller:  controller,
		Downloader:  client,
		APIBaseURL:  client.BaseURL(),
		DownloadDir: cfg.DownloadDir,
		Locale:      loc,
		PollTick:    ui.DefaultUIInterval,
		Prefs:       userPrefs,
		PrefsPath:   opts.PrefsPath,
		Logger:      log,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
