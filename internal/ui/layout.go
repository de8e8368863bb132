package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which resource URLs are hidden.
	LayoutCompactWidth = 100
)

// Vertical space taken by everything except the results list: header, input
// panel, status line, archive and download lines, footer.
const chromeHeight = 12

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// progressBuffer is the capacity of the download progress channel.
	progressBuffer = 16
)
