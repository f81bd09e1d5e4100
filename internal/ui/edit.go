package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spotter/internal/workout"
)

// editForm collects performed values for one set.
type editForm struct {
	setID int64
	input textinput.Model
	err   string
}

func newEditForm(set workout.Set, theme Theme) editForm {
	in := textinput.New()
	in.Prompt = "reps weight minutes meters › "
	in.Placeholder = "10 42.5 0 0"
	in.SetValue(formatFacts(set.EffectiveFacts()))
	in.CursorEnd()
	in.CharLimit = 48
	in.Width = 24
	in.PromptStyle = theme.Styles().AccentText
	in.Focus()
	return editForm{setID: set.ID, input: in}
}

func (f editForm) update(msg tea.Msg) (editForm, tea.Cmd) {
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.err = ""
	return f, cmd
}

// formatFacts renders facts in the order parseFacts reads them.
func formatFacts(f workout.Facts) string {
	return fmt.Sprintf("%d %s %d %d", f.Reps, strconv.FormatFloat(f.Weight, 'f', -1, 64), f.Minutes, f.Meters)
}

// parseFacts reads "reps weight minutes meters". Missing trailing fields
// are zero; fields may be separated by spaces or commas.
func parseFacts(input string) (workout.Facts, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) == 0 {
		return workout.Facts{}, fmt.Errorf("enter at least the reps")
	}
	if len(fields) > 4 {
		return workout.Facts{}, fmt.Errorf("expected at most 4 values, got %d", len(fields))
	}

	var (
		f    workout.Facts
		ints = []*int{&f.Reps, nil, &f.Minutes, &f.Meters}
	)
	for i, field := range fields {
		if i == 1 {
			w, err := strconv.ParseFloat(field, 64)
			if err != nil || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return workout.Facts{}, fmt.Errorf("invalid weight %q", field)
			}
			f.Weight = w
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return workout.Facts{}, fmt.Errorf("invalid value %q", field)
		}
		*ints[i] = n
	}
	return f, nil
}
