// Package state holds the submission state machine and the thread-safe store
// shared between the controller, the health poller and the UI.
//
// # Submission Lifecycle
//
// A submission moves through four statuses:
//
//	Idle ──Started──→ Loading ──Succeeded──→ Success
//	                     │  └───Failed─────→ Error
//	                     └──────Cancelled──→ Idle
//
// Reduce is the only way a Submission changes. Every event carries a token;
// Started must carry a token newer than the current one and resolves nothing
// but the submission it opened. A response that arrives after a newer Started
// (or after Cancelled) names an old token and is dropped, so overlapping
// submissions can never interleave their results.
//
// Started clears the message, images and archive URL. Failed clears images and
// archive URL regardless of what was there before.
//
// # Store
//
// Store wraps the current Submission and collaborator Health behind a
// sync.RWMutex:
//
//   - NextToken(): reserve a fresh token for a new submission
//   - Dispatch(): reduce an event, reporting whether it was applied
//   - UpdateHealth(): record a ping result from the poller
//   - Snapshot(): copy of both for rendering
//
// Snapshots clone the image slice and the last health error so callers can
// never mutate stored state. The zero Store is ready to use.
//
// # Health
//
// Health keeps the last successful server details across failures and counts
// consecutive failed pings. IsOffline reports true after two in a row, which
// keeps a single dropped ping from flashing the header.
package state
