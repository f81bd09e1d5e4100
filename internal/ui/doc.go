// Package ui implements spotter's Bubble Tea terminal interface.
//
// # Views
//
// Two views share one header, notice line and help footer:
//
//   - Exercise: the viewed exercise's sets with the inline rest countdown
//     underneath. Set actions go through the Controller, so every change
//     is visible immediately and reverted by the controller if the server
//     rejects it.
//   - Overview: the workout day with per-exercise completion counts and
//     the floating rest indicator drawn on top.
//
// Tab switches between them. A help overlay (?) and the client log (l) can
// be opened from either.
//
// # Rest Countdown
//
// The model never counts time itself. Every tick it reads timer.State,
// which derives the remaining seconds from the persisted end instant, and
// renders it. Completion signals arrive through a subscription that feeds
// a channel; a command waits on that channel and turns each signal into a
// message that flashes both observers and rings the terminal bell when
// enabled.
//
// The floating indicator is hidden on the exercise view, blinks during the
// last five seconds and can be moved with H/J/K/L. Its position is stored
// as a JSON [x,y] pair under PositionKey in the key-value store and is
// clamped to the visible area when drawn.
//
// # Preferences
//
// Theme cycling (T) and the bell toggle (B) are written back to the
// preferences file immediately.
package ui
