package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything pixgrab needs at startup.
type Config struct {
	APIBaseURL       string
	PublicAPIBaseURL string
	Listen           string
	ProxyTarget      string
	ProxyEnabled     bool
	DownloadDir      string
	Locale           string
	RequestTimeout   time.Duration
	LogFile          string
	LogLevel         string
	MetricsEnabled   bool
}

const (
	defaultConfigPath  = "~/.config/pixgrab/config.toml"
	defaultAPIBaseURL  = "http://127.0.0.1:5000/api"
	defaultListen      = ":8080"
	defaultProxyTarget = "http://127.0.0.1:5000"
	defaultDownloadDir = "~/Downloads/pixgrab"
	defaultLogFile     = "~/.local/state/pixgrab/pixgrab.log"
	defaultLogLevel    = "info"

	// ProxyPrefix is the path prefix routed to the collaborator backend.
	ProxyPrefix = "/api"

	// PublicBaseFromHost as public_api_base_url makes the web server link
	// resources at http://{request hostname}/api.
	PublicBaseFromHost = "host"

	// EnvPrefix prefixes environment overrides, e.g. PIXGRAB_API_BASE_URL.
	EnvPrefix = "PIXGRAB_"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

type rawConfig struct {
	APIBaseURL       string `toml:"api_base_url"`
	PublicAPIBaseURL string `toml:"public_api_base_url"`
	Listen           string `toml:"listen"`
	ProxyTarget      string `toml:"proxy_target"`
	ProxyEnabled     *bool  `toml:"proxy_enabled"`
	DownloadDir      string `toml:"download_dir"`
	Locale           string `toml:"locale"`
	RequestTimeout   string `toml:"request_timeout"`
	LogFile          string `toml:"log_file"`
	LogLevel         string `toml:"log_level"`
	MetricsEnabled   *bool  `toml:"metrics_enabled"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		APIBaseURL:     defaultAPIBaseURL,
		Listen:         defaultListen,
		ProxyTarget:    defaultProxyTarget,
		ProxyEnabled:   true,
		DownloadDir:    mustExpand(defaultDownloadDir),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		MetricsEnabled: true,
	}
}

// Load locates and parses the pixgrab config, falling back to defaults when
// missing. Environment overrides are applied after the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}
	return fromRaw(raw)
}

func fromRaw(raw rawConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(raw.ProxyTarget); v != "" {
		cfg.ProxyTarget = v
	}
	if raw.ProxyEnabled != nil {
		cfg.ProxyEnabled = *raw.ProxyEnabled
	}
	if raw.MetricsEnabled != nil {
		cfg.MetricsEnabled = *raw.MetricsEnabled
	}
	if v := strings.TrimSpace(raw.DownloadDir); v != "" {
		cfg.DownloadDir = mustExpand(v)
	}
	cfg.Locale = strings.TrimSpace(raw.Locale)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse request_timeout %q: %w", v, err)
		}
		cfg.RequestTimeout = d
	}

	cfg.PublicAPIBaseURL = strings.TrimRight(strings.TrimSpace(raw.PublicAPIBaseURL), "/")
	switch {
	case strings.EqualFold(cfg.PublicAPIBaseURL, PublicBaseFromHost):
		// Resolved per request by the web server.
		cfg.PublicAPIBaseURL = ""
	case cfg.PublicAPIBaseURL == "":
		if cfg.ProxyEnabled {
			cfg.PublicAPIBaseURL = ProxyPrefix
		} else {
			cfg.PublicAPIBaseURL = cfg.APIBaseURL
		}
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration values pixgrab cannot work with.
func (c Config) Validate() error {
	if err := checkHTTPURL("api_base_url", c.APIBaseURL); err != nil {
		return err
	}
	if c.ProxyEnabled {
		if err := checkHTTPURL("proxy_target", c.ProxyTarget); err != nil {
			return err
		}
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	return nil
}

// BaseFromHost derives the collaborator base address from the host serving
// the page, assuming a reverse proxy on port 80 maps /api to the backend.
// Any port on host is dropped.
func BaseFromHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return defaultAPIBaseURL
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ProxyPrefix
}

func checkHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q must use http or https", field, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q has no host", field, value)
	}
	return nil
}

func applyEnv(raw *rawConfig) error {
	strs := map[string]*string{
		"API_BASE_URL":        &raw.APIBaseURL,
		"PUBLIC_API_BASE_URL": &raw.PublicAPIBaseURL,
		"LISTEN":              &raw.Listen,
		"PROXY_TARGET":        &raw.ProxyTarget,
		"DOWNLOAD_DIR":        &raw.DownloadDir,
		"LOCALE":              &raw.Locale,
		"REQUEST_TIMEOUT":     &raw.RequestTimeout,
		"LOG_FILE":            &raw.LogFile,
		"LOG_LEVEL":           &raw.LogLevel,
	}
	for key, dest := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dest = v
		}
	}

	bools := map[string]**bool{
		"PROXY_ENABLED":   &raw.ProxyEnabled,
		"METRICS_ENABLED": &raw.MetricsEnabled,
	}
	for key, dest := range bools {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
		}
		*dest = &b
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
