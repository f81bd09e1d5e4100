package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/spotter/internal/timer"
)

// blinkWindow is how close to zero the floating indicator starts blinking.
const blinkWindow = 5

// flashDuration is how long both observers highlight a finished countdown.
const flashDuration = 2 * time.Second

// formatClock renders seconds as m:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// restVisible reports whether a countdown is worth drawing.
func restVisible(st timer.State) bool {
	return st.Phase == timer.PhaseRunning || st.Phase == timer.PhasePaused
}

// blinkHidden reports whether the floating indicator is in the off half of
// its blink cycle. It blinks twice a second during the last seconds of a
// running countdown.
func blinkHidden(st timer.State, now time.Time) bool {
	if !st.Running || st.RemainingSeconds <= 0 || st.RemainingSeconds > blinkWindow {
		return false
	}
	return (now.UnixMilli()/250)%2 == 1
}

// renderInlineRest draws the rest countdown under the set list.
func (m Model) renderInlineRest(width int) string {
	styles := m.theme.Styles()
	st := m.rest

	if m.flashing() {
		return styles.Flash.Render("Rest over, next set!")
	}
	if !restVisible(st) {
		rest := m.snapshot.Exercise.RestInSeconds
		if rest <= 0 {
			return styles.FaintText.Render("No rest configured")
		}
		return styles.MutedText.Render(fmt.Sprintf("Rest %s  (s to start)", formatClock(rest)))
	}

	label := "Rest"
	if st.Phase == timer.PhasePaused {
		label = "Paused"
	}
	head := fmt.Sprintf("%s %s / %s", label, formatClock(st.RemainingSeconds), formatClock(st.TotalSeconds))

	barWidth := max(width-lipgloss.Width(head)-4, 10)
	bar := progress.New(
		progress.WithSolidFill(m.theme.Accent),
		progress.WithoutPercentage(),
		progress.WithWidth(barWidth),
	)
	return styles.AccentText.Render(head) + "  " + bar.ViewAs(st.Progress())
}

// renderFloatingRest draws the compact indicator shown outside the
// exercise view. It returns "" when nothing should be drawn.
func (m Model) renderFloatingRest(now time.Time) string {
	styles := m.theme.Styles()
	if m.flashing() {
		return styles.Flash.Render("Rest over")
	}
	st := m.rest
	if !restVisible(st) || blinkHidden(st, now) {
		return ""
	}
	text := "⏱ " + formatClock(st.RemainingSeconds)
	if st.Phase == timer.PhasePaused {
		text += " ⏸"
	}
	return styles.Indicator.Render(text)
}

// overlay draws fg on top of bg with its top-left corner at column x and
// row y. Both may contain ANSI styling.
func overlay(bg, fg string, x, y int) string {
	if fg == "" {
		return bg
	}
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	x = max(x, 0)

	for i, fl := range fgLines {
		row := y + i
		if row < 0 {
			continue
		}
		for row >= len(bgLines) {
			bgLines = append(bgLines, "")
		}
		line := bgLines[row]
		w := ansi.StringWidth(line)
		if w < x {
			line += strings.Repeat(" ", x-w)
			w = x
		}
		left := ansi.Truncate(line, x, "")
		right := ""
		if end := x + ansi.StringWidth(fl); w > end {
			right = ansi.TruncateLeft(line, end, "")
		}
		bgLines[row] = left + fl + right
	}
	return strings.Join(bgLines, "\n")
}
