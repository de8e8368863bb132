package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: name, collaborator health, submission
// status and the configured base address.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	health, healthLabel := m.healthStatus()
	status := m.snapshot.Submission.Status.String()

	parts := []string{
		bg.Render("pixgrab", styles.Logo),
		styles.StatusStyle(health).Render(healthLabel),
		styles.StatusStyle(status).Render(status),
	}
	if ip := m.snapshot.Health.ServerIP; ip != "" && health == "online" {
		parts = append(parts, bg.Render("server", styles.FaintText)+bg.Space()+bg.Render(ip, styles.MutedText))
	}
	if m.width >= LayoutCompactWidth && m.apiBaseURL != "" {
		parts = append(parts, bg.Render("api", styles.FaintText)+bg.Space()+
			bg.Render(truncateMiddle(m.apiBaseURL, 40), styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

// healthStatus maps the poller's view of the collaborator to a status key and
// label. A single failed ping still shows online.
func (m Model) healthStatus() (string, string) {
	h := m.snapshot.Health
	switch {
	case h.IsOffline():
		return "offline", "BACKEND OFFLINE"
	case h.LastChecked.IsZero():
		return "unknown", "checking…"
	default:
		return "online", "backend online"
	}
}
