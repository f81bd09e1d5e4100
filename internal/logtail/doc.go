// Package logtail reads the tail of spotter's own log file for the log
// overlay in the TUI.
//
// The client logs slog JSON records, one per line. Read scans the file once
// and keeps a sliding window of the last limit records at or above a level,
// so memory stays bounded by limit rather than the file size. Lines that are
// not JSON (a crash trace, for example) are kept verbatim as info records.
//
// Example:
//
//	entries, err := logtail.Read(cfg.LogPath, 200, slog.LevelInfo)
//	for _, e := range entries {
//		fmt.Println(e.String())
//	}
package logtail
