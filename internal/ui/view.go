package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/pixgrab/internal/state"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderInput(),
		m.renderStatusLine(),
		m.renderResults(),
		m.renderArchiveLine(),
		m.renderDownloadLine(),
		m.help.View(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderInput() string {
	styles := m.theme.Styles()
	panel := ternaryStyle(m.focus == FocusInput, styles.FocusedPanel, styles.Panel)
	return panel.Width(max(20, m.width-2)).Render(m.input.View())
}

// renderStatusLine shows the spinner while loading and the collaborator's
// message once resolved.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	sub := m.snapshot.Submission

	switch sub.Status {
	case state.Loading:
		elapsed := sub.Elapsed(time.Now()).Truncate(time.Second)
		return fmt.Sprintf("%s %s %s",
			m.spinner.View(),
			styles.Text.Render("Processing "+truncate(sub.URL, max(20, m.width-40))),
			styles.FaintText.Render(elapsed.String()+"  esc to cancel"))
	case state.Success:
		return styles.SuccessText.Render(ternary(sub.Message != "", sub.Message, "Done")) +
			styles.MutedText.Render(fmt.Sprintf("  %d images", len(sub.Images)))
	case state.Error:
		return styles.DangerText.Render(sub.Message)
	default:
		return styles.FaintText.Render("Paste a product page URL and press enter.")
	}
}

// renderResults renders the visible window of image tiles.
func (m Model) renderResults() string {
	styles := m.theme.Styles()
	panel := ternaryStyle(m.focus == FocusResults, styles.FocusedPanel, styles.Panel)
	width := max(20, m.width-2)
	rows := m.visibleRows()

	if m.results.Len() == 0 {
		return panel.Width(width).Height(min(rows, 3)).Render(styles.FaintText.Render("No images"))
	}

	inner := width - 4
	showURL := m.width >= LayoutCompactWidth
	nameWidth := inner - 6
	if showURL {
		nameWidth = inner / 2
	}

	end := min(m.results.Len(), m.offset+rows)
	lines := make([]string, 0, end-m.offset)
	for _, tile := range m.results.Tiles[m.offset:end] {
		row := fmt.Sprintf("%3d  %s", tile.Index+1, padRight(truncateMiddle(tile.Name, nameWidth), nameWidth))
		if tile.Index == m.selected && m.focus == FocusResults {
			lines = append(lines, styles.Selected.Width(inner).Render(row))
			continue
		}
		if showURL {
			row += "  " + styles.FaintText.Render(truncateMiddle(tile.URL, max(10, inner-nameWidth-8)))
		}
		lines = append(lines, row)
	}
	return panel.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderArchiveLine() string {
	styles := m.theme.Styles()
	if !m.results.ArchiveEnabled {
		return styles.FaintText.Render("[a] Download all  (no archive)")
	}
	return styles.AccentText.Render("[a] Download all") + "  " + styles.MutedText.Render(m.results.ArchiveName)
}

func (m Model) renderDownloadLine() string {
	styles := m.theme.Styles()
	d := m.download
	switch {
	case d.active:
		p := d.progress
		size := humanize.Bytes(uint64(p.Written))
		if p.Total > 0 {
			size += " / " + humanize.Bytes(uint64(p.Total))
		}
		return m.progress.ViewAs(p.Fraction()) + "  " + styles.MutedText.Render(truncateMiddle(d.name, 30)+"  "+size)
	case d.notice != "" && d.failed:
		return styles.DangerText.Render(d.notice)
	case d.notice != "":
		return styles.SuccessText.Render(d.notice)
	default:
		return styles.FaintText.Render("Downloads go to " + m.downloadDir)
	}
}

func ternaryStyle(cond bool, a, b lipgloss.Style) lipgloss.Style {
	if cond {
		return a
	}
	return b
}
