// Package ui provides the Bubble Tea terminal interface for pixgrab.
//
// # Layout
//
//	┌ header: name, backend health, submission status, api base ┐
//	│ URL ❯ input                                               │
//	│ status line (spinner / message)                           │
//	│ results list (one row per image)                          │
//	│ [a] Download all                                          │
//	│ download progress / last download                         │
//	└ key help                                                  ┘
//
// # Files
//
//   - app.go: Model, Update, key routing, submission commands
//   - view.go, header.go, help.go: rendering
//   - download.go: background downloads reported over a channel
//   - keys.go: bindings shared by key routing and the help footer
//   - theme.go, style_helpers.go: palettes and lipgloss helpers
//
// # Submissions
//
// enter calls Controller.Begin inside Update so the store is Loading before
// the next frame, then Controller.Run executes as a tea.Cmd. esc cancels the
// in-flight call. A resolution that lost to a newer submission does not change
// the store, so the resolvedMsg it produces simply re-renders current state.
//
// # Focus
//
// Letters go to the URL field while it has focus. Results-only keys (j/k, d,
// a, T, q) apply after tab, or automatically once a submission succeeds.
package ui
