// Package app wires configuration, the collaborator client, the submission
// controller, the health poller and the TUI together.
//
// # Startup
//
//  1. Open the log file (the terminal belongs to the TUI)
//  2. Load preferences (theme, recent URLs)
//  3. Build backend.Client from api_base_url
//  4. Create the shared state.Store and submit.Controller
//  5. Start the health poller
//  6. Run the TUI until the user quits or the context is cancelled
//
// # Health Polling
//
// The poller pings the collaborator's origin root (default every 5 seconds)
// and records the result with Store.UpdateHealth. After a failure the next
// ping waits twice as long, capped at 30 seconds; a success resets the
// interval. The header shows the backend offline after two failures in a row.
// Ping failures are never fatal.
package app
