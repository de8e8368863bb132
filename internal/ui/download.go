package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/pixgrab/internal/backend"
)

// downloadState tracks the single download the TUI runs at a time.
type downloadState struct {
	active   bool
	name     string
	progress backend.Progress
	events   <-chan tea.Msg
	cancel   context.CancelFunc

	// Outcome of the last finished download.
	notice string
	failed bool
}

func (d *downloadState) cancelPending() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

type downloadProgressMsg backend.Progress

type downloadDoneMsg struct {
	name  string
	saved backend.Saved
	err   error
}

// startDownload saves resourceURL into the download directory. Progress and
// completion arrive as messages read from a channel.
func (m Model) startDownload(resourceURL, name string) (tea.Model, tea.Cmd) {
	if m.downloader == nil || m.download.active {
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan tea.Msg, progressBuffer)
	m.download = downloadState{
		active: true,
		name:   name,
		events: events,
		cancel: cancel,
	}

	go func() {
		defer close(events)
		defer cancel()
		saved, err := m.downloader.Download(ctx, resourceURL, m.downloadDir, func(p backend.Progress) {
			select {
			case events <- downloadProgressMsg(p):
			default:
				// Drop updates the UI has not caught up with.
			}
		})
		events <- downloadDoneMsg{name: name, saved: saved, err: err}
	}()

	m.log.Info().Str("url", resourceURL).Str("dir", m.downloadDir).Msg("download started")
	return m, waitForDownload(events)
}

func waitForDownload(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) finishDownload(msg downloadDoneMsg) {
	m.download.active = false
	m.download.events = nil
	m.download.cancelPending()
	if msg.err != nil {
		m.download.failed = true
		m.download.notice = fmt.Sprintf("Download of %s failed: %s", msg.name, backend.UserMessage(msg.err))
		m.log.Warn().Err(msg.err).Str("name", msg.name).Msg("download failed")
		return
	}
	m.download.failed = false
	m.download.notice = fmt.Sprintf("Saved %s (%s)", msg.saved.Path, humanize.Bytes(uint64(msg.saved.Bytes)))
	m.log.Info().Str("path", msg.saved.Path).Int64("bytes", msg.saved.Bytes).Msg("download finished")
}
