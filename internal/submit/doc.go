// Package submit runs submissions: one user-entered URL, one POST to the
// collaborator, one resolution recorded in a state.Store.
//
// Begin and Run are split so an event loop can enter Loading synchronously
// and perform the blocking call elsewhere (a Bubble Tea command, an HTTP
// handler). Submit does both. Starting a submission cancels the context of
// the one before it; the store ignores whatever that call eventually returns.
package submit
