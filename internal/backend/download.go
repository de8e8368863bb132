package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Progress reports bytes written so far. Total is -1 when unknown.
type Progress struct {
	Written int64
	Total   int64
}

// Fraction returns completion in [0,1], or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Written) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Saved describes a finished download.
type Saved struct {
	Path  string
	Bytes int64
}

// ProgressFunc receives progress updates from Download. It may be nil.
type ProgressFunc func(Progress)

// Download fetches resourceURL into dir. The file name comes from
// Content-Disposition when present, otherwise from the decoded last path
// segment. Relative resource URLs are resolved against the client's base origin.
func (c *Client) Download(ctx context.Context, resourceURL, dir string, onProgress ProgressFunc) (Saved, error) {
	if c == nil {
		return Saved{}, fmt.Errorf("client is nil")
	}
	target, err := c.resolve(resourceURL)
	if err != nil {
		return Saved{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Saved{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Saved{}, fmt.Errorf("execute request: %w", ctxErr)
		}
		return Saved{}, &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return Saved{}, decodeAPIError(resp)
	}

	name := fileName(resp.Header.Get("Content-Disposition"), target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".part-*")
	if err != nil {
		return Saved{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	counter := &progressWriter{total: resp.ContentLength, report: onProgress}
	written, copyErr := io.Copy(io.MultiWriter(tmp, counter), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Saved{}, fmt.Errorf("write %s: %w", name, ctxErr)
		}
		return Saved{}, &TransportError{Op: "read body", Err: copyErr}
	}
	if closeErr != nil {
		return Saved{}, fmt.Errorf("close %s: %w", name, closeErr)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return Saved{}, fmt.Errorf("rename %s: %w", name, err)
	}
	return Saved{Path: dest, Bytes: written}, nil
}

func (c *Client) resolve(resourceURL string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(resourceURL))
	if err != nil {
		return nil, fmt.Errorf("parse resource url %q: %w", resourceURL, err)
	}
	origin := &url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host}
	return origin.ResolveReference(ref), nil
}

type progressWriter struct {
	written int64
	total   int64
	report  ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.report != nil {
		w.report(Progress{Written: w.written, Total: w.total})
	}
	return len(p), nil
}

// fileName picks a safe base name for a download.
func fileName(disposition string, target *url.URL) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := safeBase(params["filename"]); name != "" {
				return name
			}
		}
	}
	seg := path.Base(target.EscapedPath())
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	if name := safeBase(seg); name != "" {
		return name
	}
	return "download"
}

// safeBase strips directories so a name can never escape the download dir.
func safeBase(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
