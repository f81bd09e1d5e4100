package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spotter/internal/workout"
)

// logLines is how many records the log overlay shows.
const logLines = 200

// chrome is the number of rows taken by header, notice and footer.
const chrome = 4

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderNotice())
	b.WriteString("\n")

	content := m.renderContent()
	_, areaH := m.contentSize()
	content = lipgloss.NewStyle().Height(areaH).MaxHeight(areaH).Render(content)
	b.WriteString(content)
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	if m.showLogs {
		return m.renderLogs()
	}
	switch m.currentView {
	case ViewOverview:
		return m.renderOverviewWithIndicator()
	default:
		return m.renderExercise()
	}
}

func (m Model) contentSize() (int, int) {
	return max(m.width, 20), max(m.height-chrome, 3)
}

func (m Model) indicatorSize() (int, int) {
	sample := m.theme.Styles().Indicator.Render("⏱ 00:00 ⏸")
	return lipgloss.Width(sample), lipgloss.Height(sample)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	parts := []string{styles.Logo.Render("SPOTTER")}
	if snap.HasDay {
		parts = append(parts, styles.Text.Render(snap.Day.Name))
	}
	if snap.HasSession && len(snap.Day.Exercises) > 0 {
		parts = append(parts, styles.MutedText.Render(
			fmt.Sprintf("Exercise %d/%d", snap.ExerciseIndex+1, len(snap.Day.Exercises))))
	}
	if snap.IsOffline() {
		parts = append(parts, styles.DangerText.Render("OFFLINE"))
	}
	if m.navigating {
		parts = append(parts, styles.FaintText.Render("switching…"))
	}
	if !m.bell {
		parts = append(parts, styles.FaintText.Render("bell off"))
	}

	line := strings.Join(parts, styles.FaintText.Render(" · "))
	return styles.Header.Width(max(m.width, 1)).Render(line)
}

func (m Model) renderNotice() string {
	n, ok := m.snapshot.ActiveNotice(m.now)
	if !ok {
		return ""
	}
	return m.theme.Styles().Notice.Render(n.Message)
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.View(m.keys))
}

// renderExercise draws the viewed exercise, its sets and the inline rest
// countdown.
func (m Model) renderExercise() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	width, _ := m.contentSize()

	if !snap.HasSession {
		if snap.LastError != nil {
			return styles.DangerText.Render("No session: " + snap.LastError.Error())
		}
		return styles.MutedText.Render("Waiting for the workout session…")
	}

	var b strings.Builder
	ex := snap.Exercise
	title := styles.AccentText.Bold(true).Render(ex.Name)
	progress := styles.MutedText.Render(fmt.Sprintf("  %d/%d sets", ex.CompletedSets(), len(ex.Sets)))
	b.WriteString(title + progress)
	b.WriteString("\n\n")

	if len(ex.Sets) == 0 {
		b.WriteString(styles.FaintText.Render("No sets yet. Press a to add one."))
		b.WriteString("\n")
	}
	for i, set := range ex.Sets {
		b.WriteString(m.renderSetRow(i, set, width))
		b.WriteString("\n")
	}

	if m.edit != nil {
		b.WriteString("\n")
		b.WriteString(m.edit.input.View())
		if m.edit.err != "" {
			b.WriteString("  ")
			b.WriteString(styles.DangerText.Render(m.edit.err))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderInlineRest(width))
	return b.String()
}

func (m Model) renderSetRow(i int, set workout.Set, width int) string {
	styles := m.theme.Styles()

	mark := "○"
	if set.Completed {
		mark = "●"
	}
	row := fmt.Sprintf(" %s  %-3d %-18s %s", mark, i+1, describeTarget(set), describeFacts(set))
	if set.ID < 0 || (m.ctrl != nil && m.ctrl.Pending(set.ID)) {
		row += "  …"
	}

	switch {
	case i == m.selected:
		return styles.Selected.Width(max(width, 1)).Render(row)
	case set.Completed:
		return styles.SuccessText.Render(row)
	default:
		return styles.Text.Render(row)
	}
}

// describeTarget renders the planned values of a set, e.g. "10 × 42.5kg".
func describeTarget(s workout.Set) string {
	return describe(s.Reps, s.Weight, s.Minutes, s.Meters)
}

// describeFacts renders what was performed, or "" when nothing was recorded.
func describeFacts(s workout.Set) string {
	f := s.Facts()
	if f == (workout.Facts{}) {
		return ""
	}
	return "done " + describe(f.Reps, f.Weight, f.Minutes, f.Meters)
}

func describe(reps int, weight float64, minutes, meters int) string {
	var parts []string
	if reps > 0 {
		p := strconv.Itoa(reps)
		if weight > 0 {
			p += " × " + strconv.FormatFloat(weight, 'f', -1, 64) + "kg"
		}
		parts = append(parts, p)
	} else if weight > 0 {
		parts = append(parts, strconv.FormatFloat(weight, 'f', -1, 64)+"kg")
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dmin", minutes))
	}
	if meters > 0 {
		parts = append(parts, fmt.Sprintf("%dm", meters))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// renderOverviewWithIndicator draws the workout overview with the floating
// rest indicator on top of it.
func (m Model) renderOverviewWithIndicator() string {
	base := m.renderOverview()
	indicator := m.renderFloatingRest(m.now)
	if indicator == "" {
		return base
	}
	areaW, areaH := m.contentSize()
	pos := m.position.resolve(areaW, areaH, lipgloss.Width(indicator), lipgloss.Height(indicator))
	return overlay(base, indicator, pos.X, pos.Y)
}

func (m Model) renderOverview() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	if !snap.HasDay {
		if snap.LastError != nil {
			return styles.DangerText.Render("Server unavailable: " + snap.LastError.Error())
		}
		return styles.MutedText.Render("Waiting for the workout…")
	}

	var b strings.Builder
	title := snap.Day.Name
	if snap.Day.Completed {
		title += " ✓"
	}
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	b.WriteString("\n\n")

	for i, ex := range snap.Day.Exercises {
		// The viewed exercise shows the local sets, pending changes included.
		if snap.HasSession && ex.ID == snap.Exercise.ID {
			ex.Sets = snap.Exercise.Sets
		}
		done, total := ex.CompletedSets(), len(ex.Sets)
		cursor := "  "
		if snap.HasSession && i == snap.ExerciseIndex {
			cursor = "▶ "
		}
		line := fmt.Sprintf("%s%-28s %d/%d", cursor, ex.Name, done, total)
		switch {
		case total > 0 && done == total:
			b.WriteString(styles.SuccessText.Render(line))
		case cursor != "  ":
			b.WriteString(styles.Text.Bold(true).Render(line))
		default:
			b.WriteString(styles.MutedText.Render(line))
		}
		b.WriteString("\n")
	}

	if !snap.LastUpdated.IsZero() {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Updated " + snap.LastUpdated.Format("15:04:05")))
	}
	return b.String()
}

// renderLogs draws the client log overlay, newest record last.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	_, areaH := m.contentSize()

	if m.logErr != nil {
		return styles.DangerText.Render("Log unavailable: " + m.logErr.Error())
	}
	if len(m.logEntries) == 0 {
		return styles.MutedText.Render("No log records yet")
	}

	entries := m.logEntries
	if len(entries) > areaH {
		entries = entries[len(entries)-areaH:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		style := styles.Text
		switch {
		case e.Level >= slog.LevelError:
			style = styles.DangerText
		case e.Level >= slog.LevelWarn:
			style = styles.WarningText
		}
		lines = append(lines, style.Render(e.String()))
	}
	return strings.Join(lines, "\n")
}
