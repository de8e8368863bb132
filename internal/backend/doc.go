// Package backend provides an HTTP client for the image-extraction
// collaborator.
//
// # Overview
//
// The collaborator fetches a product page, extracts its images and packages
// them into a zip archive. pixgrab treats it as an opaque service reached
// through one call:
//
//	POST {base}/process_url  {"url": "...", "locale": "en-US"}
//	200 {"message": "...", "images": ["id", ...], "zip_file": "name.zip"}
//	4xx/5xx {"error": "..."}   (body optional)
//
// Resources are then downloaded from:
//
//	{base}/images/{escaped id}
//	{base}/zip/{escaped zip_file}
//
// # Files
//
//   - client.go: Client, Process, Ping and request plumbing
//   - links.go: Links and EscapeSegment (resource URL construction)
//   - download.go: Download with progress reporting
//   - errors.go: TransportError, APIError, UserMessage, Kind
//   - types.go: wire payloads
//
// # Escaping
//
// Identifiers are opaque and often contain '/' (the collaborator returns
// "folder/file.jpg"). EscapeSegment escapes every reserved character so each
// identifier occupies exactly one path segment, matching what a browser's
// encodeURIComponent produces. url.PathUnescape restores the identifier.
//
// # Error Handling
//
// Failures fall into two kinds:
//
//   - *TransportError: the collaborator never answered (dial, reset, client timeout)
//   - *APIError: it answered with status >= 400, or with a body that does not decode
//
// UserMessage collapses both into the single string the UI shows: the
// collaborator's "error" text when present, otherwise FallbackMessage.
// Cancelled requests return an error wrapping context.Canceled so callers can
// drop them silently.
//
// # Request Handling
//
// Every call sets Accept, User-Agent (pixgrab/<version> via WithUserAgent) and
// a fresh X-Request-ID, which also appears in debug logs. There is no default timeout; the scrape on
// the other side routinely takes tens of seconds. WithTimeout bounds requests
// when configured. No retries: one submission is one outbound call.
package backend
