// Package state provides thread-safe state management for the Spotter client.
//
// # Overview
//
// The Store is the in-memory cache every view reads from. It holds three
// things:
//
//   - The viewed exercise and its ordered set sequence (the entity cache)
//   - The workout day overview refreshed by the background poller
//   - A single transient notice, such as a rollback message
//
// # Writers
//
// Each part has exactly one writer:
//
//	optimistic.Controller ──ReplaceSets──┐
//	app poller ───────────UpdateDay──────┼──→ Store ──Snapshot()──→ UI
//	controller / app ─────Notify─────────┘
//
// LoadSession replaces the exercise wholesale when the user navigates or the
// controller reloads after adding a set.
//
// # Snapshots
//
// Snapshot returns deep copies of the set slices and the day so the UI can
// hold on to a snapshot while the controller keeps mutating the cache.
// Errors are wrapped so callers never share the poller's error value.
//
// # Poll Failures
//
// UpdateDay with a non-nil error keeps the previous day and counts the
// failure. Two or more consecutive failures mark the snapshot offline:
//
//	store.UpdateDay(nil, err)  → LastError=err, ConsecutiveFailures++
//	store.UpdateDay(day, nil)  → Day=day, ConsecutiveFailures=0
//
// # Notices
//
// Notify replaces the current notice. ActiveNotice reports it for NoticeTTL
// (three seconds) after it was raised; the UI stops drawing it afterwards.
//
// The zero Store is ready to use.
package state
