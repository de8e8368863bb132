// Package config loads pixgrab's startup configuration.
//
// # Overview
//
// The collaborator base address, web listen address, development proxy
// target and a handful of ambient settings are read once at startup and
// handed to the rest of the application as an immutable Config value. No
// package discovers the backend address on its own.
//
// # Resolution Order
//
//  1. Defaults (see Default)
//  2. TOML file at the explicit path, or ~/.config/pixgrab/config.toml
//  3. PIXGRAB_* environment variables (a .env file is loaded by the CLI first)
//
// A missing config file is not an error. Blank values fall back to defaults.
//
// # TOML Format
//
//	api_base_url = "http://127.0.0.1:5000/api"
//	public_api_base_url = "/api"
//	listen = ":8080"
//	proxy_target = "http://127.0.0.1:5000"
//	proxy_enabled = true
//	download_dir = "~/Downloads/pixgrab"
//	locale = ""
//	request_timeout = ""
//	log_file = "~/.local/state/pixgrab/pixgrab.log"
//	log_level = "info"
//	metrics_enabled = true
//
// public_api_base_url is the base used for links handed to browsers. It
// defaults to the proxy prefix when the built-in /api proxy is enabled, since
// api_base_url may only be reachable from the server.
// The value "host" links to http://{request hostname}/api instead.
//
// request_timeout accepts Go duration strings. Empty means submissions wait
// until the collaborator answers or the transport fails.
//
// # Error Handling
//
// Load returns wrapped errors for unreadable files ("open config", "read
// config"), TOML syntax ("parse config") and values rejected by Validate.
package config
