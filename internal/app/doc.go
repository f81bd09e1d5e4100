// Package app is the composition root of spotter.
//
// # Overview
//
// Run wires configuration, logging, the durable rest timer, the workout API
// client, the set cache, the optimistic mutation controller and the poller,
// then hands control to the TUI until the user quits.
//
// # Startup
//
//  1. Load ~/.config/spotter/config.toml and apply command line overrides
//  2. Load UI preferences (theme, bell)
//  3. Open the JSON log file read by the in-app log overlay
//  4. Open the state store and restore the rest timer from its slot
//  5. Fetch the workout session (bounded by a timeout, retried with
//     exponential backoff)
//  6. Start the overview poller and run the TUI
//
// A failed first fetch is not fatal. The UI starts offline and the poller
// keeps trying; moving to another exercise reloads the session.
//
// # Components
//
//   - app.go: Run and OpenRestTimer, shared with the timer subcommands
//   - session.go: session loading, exercise navigation and the set reload
//     adapter used by the mutation controller
//   - poller.go: background refresh of the workout overview
//   - logging.go: the slog JSON file logger
//
// # Polling
//
// The poller refreshes only the workout day. The viewed exercise and its
// sets belong to the mutation controller, so a poll never overwrites a
// pending local change. Consecutive failures double the interval up to 30
// seconds; two in a row mark the client offline.
//
// # Shutdown
//
// Quitting cancels the run context, which stops the poller and the timer
// sampler. Run then waits for queued set mutations to settle before
// closing the state store.
package app
