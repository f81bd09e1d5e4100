// Package timer implements the rest countdown that survives restarts.
//
// # Model
//
// The only authoritative value is the absolute end instant. Remaining time
// is computed as max(0, end-now) whenever it is asked for:
//
//	Start(90) ──> end = now+90s ──> restclock.Save(end, 90)
//	Sample()  ──> remaining = end-now
//	          └─> remaining <= 0: finished, slot cleared, Completion broadcast
//
// Sampling every 500ms only refreshes what observers see. Implementations
// must never count down by subtracting the interval on each tick.
//
// # Lifecycle
//
//	idle ──start──> running ──pause──> paused
//	  ^               │  │               │
//	  └────reset──────┘  └──expire──> finished
//
// start is accepted from every phase and replaces the running countdown.
// reset is accepted from every phase.
//
// # Persistence
//
// Only a running countdown is persisted (end instant and total seconds).
// Pause and Reset clear the slot. On Init a future end resumes running; a
// past end is dropped silently. While sampling, the slot is re-read so a
// countdown started or cleared by another spotter process is picked up.
// A failed write degrades the current countdown to memory-only.
package timer
