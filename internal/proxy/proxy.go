// Package proxy forwards the /api prefix to the collaborator backend.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/monitoring"
)

// UnavailableMessage is the error text returned when the backend cannot be reached.
const UnavailableMessage = "Backend unavailable"

// Options configures New.
type Options struct {
	// Prefix is the path prefix served by the proxy, e.g. "/api".
	Prefix string
	// StripPrefix removes Prefix before forwarding. The collaborator serves
	// its routes under /api itself, so this is normally false.
	StripPrefix bool
	Metrics     *monitoring.Metrics
	Logger      *logger.Logger
}

// New returns a handler that forwards requests under opts.Prefix to target,
// rewriting Host and Origin to the target. Upstream failures produce a 502
// with a JSON {"error": ...} body.
func New(target string, opts Options) (http.Handler, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("parse proxy target %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("proxy target %q must use http or https", target)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy target %q has no host", target)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	prefix := "/" + strings.Trim(opts.Prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	origin := u.Scheme + "://" + u.Host

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			if opts.StripPrefix && prefix != "" {
				stripPrefix(pr.Out.URL, prefix, u.Path)
			}
			pr.Out.Host = u.Host
			if pr.In.Header.Get("Origin") != "" {
				pr.Out.Header.Set("Origin", origin)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			opts.Metrics.ObserveProxy(resp.StatusCode)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if r.Context().Err() != nil {
				return
			}
			log.Warn().Err(err).Str("path", r.URL.Path).Str("target", origin).Msg("proxy upstream failed")
			opts.Metrics.ObserveProxy(http.StatusBadGateway)
			writeError(w, http.StatusBadGateway, UnavailableMessage)
		},
	}

	if prefix == "" {
		return rp, nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix && !strings.HasPrefix(r.URL.Path, prefix+"/") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		rp.ServeHTTP(w, r)
	}), nil
}

// stripPrefix removes prefix from the joined outbound path, keeping the
// target's own base path in front.
func stripPrefix(out *url.URL, prefix, basePath string) {
	base := strings.TrimRight(basePath, "/")
	rest := strings.TrimPrefix(out.Path, base)
	rest = strings.TrimPrefix(rest, prefix)
	out.Path = base + "/" + strings.TrimLeft(rest, "/")
	if out.RawPath != "" {
		rawRest := strings.TrimPrefix(out.RawPath, base)
		rawRest = strings.TrimPrefix(rawRest, prefix)
		out.RawPath = base + "/" + strings.TrimLeft(rawRest, "/")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
