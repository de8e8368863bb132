package logtail

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pixgrab.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exact (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than available", maxLines: 20, expected: expectedAll},
		{name: "read one", maxLines: 1, expected: []string{"Line 10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v, want nil, nil", got, err)
	}
}

func TestWrite_FormatsJSONAndPassesThroughText(t *testing.T) {
	lines := []string{
		`{"level":"info","time":"2026-10-17T14:32:15Z","outcome":"success","message":"submission finished"}`,
		"",
		"plain text line",
	}
	var buf bytes.Buffer
	if err := Write(&buf, lines, true); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"INF", "submission finished", "outcome=success", "plain text line\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, `"level"`) {
		t.Fatalf("output %q still contains raw JSON", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Fatalf("output has %d lines, want 2", got)
	}
}
