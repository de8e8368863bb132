// Package logtail reads the end of pixgrab's JSON log file and renders it for
// a terminal.
//
// The TUI owns the screen, so it logs to a file instead of stderr. Read keeps
// a ring of the last N lines in a single pass, so large files never load
// whole. Write hands each JSON line to zerolog's ConsoleWriter:
//
//	2026-10-17 14:32:15 INF submission finished outcome=success images=12
//
// Missing files read as empty. Lines that are not JSON pass through as-is.
package logtail
