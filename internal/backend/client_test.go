package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/pixgrab/internal/logger"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("127.0.0.1:5000/api/")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.String() != "http://127.0.0.1:5000/api" {
		t.Fatalf("url = %q, want http://127.0.0.1:5000/api", u.String())
	}

	u, err = parseBaseURL("https://example.com/api?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("   "); err == nil {
		t.Fatalf("parseBaseURL(blank) returned nil error, want error")
	}
}

func TestClient_ProcessPostsURLAndLocale(t *testing.T) {
	t.Parallel()

	var (
		gotMethod    string
		gotPath      string
		gotBody      ProcessRequest
		gotUserAgent string
		gotRequestID string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ProcessResponse{
			Message: "Found 3 images",
			Images:  []string{"a.jpg", "b.jpg", "c.jpg"},
			ZipFile: "bundle.zip",
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api", WithUserAgent("pixgrab/1.2.3"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := c.Process(ctx, "https://example.com/item/1", "en-US")
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/process_url" {
		t.Fatalf("request = %s %s, want POST /api/process_url", gotMethod, gotPath)
	}
	if gotBody.URL != "https://example.com/item/1" || gotBody.Locale != "en-US" {
		t.Fatalf("body = %#v, want url and locale", gotBody)
	}
	if gotUserAgent != "pixgrab/1.2.3" {
		t.Fatalf("User-Agent = %q, want pixgrab/1.2.3", gotUserAgent)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID missing")
	}
	if resp.Message != "Found 3 images" || len(resp.Images) != 3 || resp.ZipFile != "bundle.zip" {
		t.Fatalf("Process payload = %#v", resp)
	}
}

func TestClient_ProcessErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "json-error":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid URL"}`))
		case "empty":
			w.WriteHeader(http.StatusInternalServerError)
		case "html":
			http.Error(w, "<html>boom</html>", http.StatusBadGateway)
		case "no-images":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"done","zip_file":"bundle.zip"}`))
		case "malformed":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cases := []struct {
		name       string
		query      string
		wantStatus int
		wantUser   string
	}{
		{"collaborator error text", "json-error", http.StatusBadRequest, "Invalid URL"},
		{"no body", "empty", http.StatusInternalServerError, FallbackMessage},
		{"non json body", "html", http.StatusBadGateway, FallbackMessage},
		{"undecodable success", "malformed", http.StatusOK, FallbackMessage},
		{"success without images", "no-images", http.StatusOK, FallbackMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// queryTransport tags each request with the case the server should play.
			c := &Client{
				baseURL:   mustParse(t, server.URL),
				links:     NewLinks(server.URL + "/api"),
				http:      &http.Client{Transport: queryTransport{query: "case=" + tc.query}},
				userAgent: defaultUserAgent,
				log:       logger.Nop(),
			}
			_, err := c.Process(context.Background(), "https://example.com", "en-US")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Process error = %v (%T), want *APIError", err, err)
			}
			if apiErr.StatusCode != tc.wantStatus {
				t.Fatalf("StatusCode = %d, want %d", apiErr.StatusCode, tc.wantStatus)
			}
			if got := UserMessage(err); got != tc.wantUser {
				t.Fatalf("UserMessage = %q, want %q", got, tc.wantUser)
			}
			if got := Kind(err); got != "application" {
				t.Fatalf("Kind = %q, want application", got)
			}
		})
	}
}

func TestClient_ProcessTransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c, err := NewClient("http://" + addr + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Process(context.Background(), "https://example.com", "en-US")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Process error = %v (%T), want *TransportError", err, err)
	}
	if got := UserMessage(err); got != FallbackMessage {
		t.Fatalf("UserMessage = %q, want %q", got, FallbackMessage)
	}
	if got := Kind(err); got != "transport" {
		t.Fatalf("Kind = %q, want transport", got)
	}
}

func TestClient_ProcessCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	c, err := NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err = c.Process(ctx, "https://example.com", "en-US")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process error = %v, want context.Canceled", err)
	}
	if got := Kind(err); got != "cancelled" {
		t.Fatalf("Kind = %q, want cancelled", got)
	}
}

func TestClient_PingDecodesServerIP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"server_ip":"10.0.0.7"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	info, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if info.ServerIP != "10.0.0.7" {
		t.Fatalf("ServerIP = %q, want 10.0.0.7", info.ServerIP)
	}
}

func TestClient_DownloadUsesDispositionAndReportsProgress(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("z", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/zip/bundle.zip":
			w.Header().Set("Content-Disposition", `attachment; filename="../../bundle.zip"`)
			_, _ = w.Write([]byte(payload))
		case "/api/images/shoe%2Fred%20one.jpg":
			_, _ = w.Write([]byte("jpg"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	dir := t.TempDir()

	var last Progress
	saved, err := c.Download(context.Background(), c.ArchiveURL("bundle.zip"), dir, func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if saved.Path != filepath.Join(dir, "bundle.zip") {
		t.Fatalf("Path = %q, want bundle.zip inside %q", saved.Path, dir)
	}
	if saved.Bytes != int64(len(payload)) || last.Written != int64(len(payload)) {
		t.Fatalf("Bytes = %d, last progress = %#v, want %d", saved.Bytes, last, len(payload))
	}

	saved, err = c.Download(context.Background(), c.ImageURL("shoe/red one.jpg"), dir, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if filepath.Base(saved.Path) != "red one.jpg" {
		t.Fatalf("Path = %q, want red one.jpg", saved.Path)
	}
	if data, _ := os.ReadFile(saved.Path); string(data) != "jpg" {
		t.Fatalf("contents = %q, want jpg", data)
	}

	if _, err := c.Download(context.Background(), "/api/zip/missing.zip", dir, nil); err == nil {
		t.Fatalf("Download(missing) returned nil error, want error")
	}
}

func TestProgressFraction(t *testing.T) {
	if got := (Progress{Written: 5, Total: -1}).Fraction(); got != 0 {
		t.Fatalf("Fraction unknown total = %v, want 0", got)
	}
	if got := (Progress{Written: 5, Total: 10}).Fraction(); got != 0.5 {
		t.Fatalf("Fraction = %v, want 0.5", got)
	}
}

type queryTransport struct {
	query string
}

func (q queryTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	clone := r.Clone(r.Context())
	clone.URL.RawQuery = q.query
	return http.DefaultTransport.RoundTrip(clone)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}
