package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spotter/internal/kv"
	"github.com/five82/spotter/internal/prefs"
	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/timer"
	"github.com/five82/spotter/internal/workout"
)

type fakeController struct {
	added   int
	deleted []int64
	toggled []int64
	edited  map[int64]workout.Facts
}

func (f *fakeController) Add() int64 {
	f.added++
	return int64(-f.added)
}
func (f *fakeController) Delete(id int64)         { f.deleted = append(f.deleted, id) }
func (f *fakeController) ToggleComplete(id int64) { f.toggled = append(f.toggled, id) }
func (f *fakeController) Pending(int64) bool      { return false }
func (f *fakeController) Edit(id int64, facts workout.Facts) {
	if f.edited == nil {
		f.edited = make(map[int64]workout.Facts)
	}
	f.edited[id] = facts
}

type fakeTimer struct {
	state   timer.State
	starts  []int
	paused  int
	resets  int
	handler func(timer.Completion)
}

func (f *fakeTimer) Start(seconds int) { f.starts = append(f.starts, seconds) }
func (f *fakeTimer) Pause()            { f.paused++ }
func (f *fakeTimer) Reset()            { f.resets++ }
func (f *fakeTimer) State() timer.State {
	return f.state
}
func (f *fakeTimer) Subscribe(fn func(timer.Completion)) func() {
	f.handler = fn
	return func() { f.handler = nil }
}

func testModel(t *testing.T) (Model, *fakeController, *fakeTimer, kv.Store) {
	t.Helper()
	store := &state.Store{}
	store.LoadSession(workout.Session{
		WorkoutDay: workout.WorkoutDay{ID: 1, Name: "Legs", Exercises: []workout.Exercise{{ID: 7, Name: "Squat"}}},
		Exercise: workout.Exercise{ID: 7, Name: "Squat", RestInSeconds: 90, Sets: []workout.Set{
			{ID: 1, Reps: 10, Weight: 40},
			{ID: 2, Reps: 8, Weight: 45, FactReps: 6},
		}},
	})
	ctrl := &fakeController{}
	tm := &fakeTimer{}
	mem := kv.NewMemory()
	m := New(Options{
		Store:      store,
		Controller: ctrl,
		Timer:      tm,
		KV:         mem,
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
		BellOutput: &bytes.Buffer{},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), ctrl, tm, mem
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_SetActionsTargetSelectedSet(t *testing.T) {
	m, ctrl, _, _ := testModel(t)

	m = press(t, m, "space", "j", "c", "d")
	if len(ctrl.toggled) != 2 || ctrl.toggled[0] != 1 || ctrl.toggled[1] != 2 {
		t.Fatalf("toggled = %v, want [1 2]", ctrl.toggled)
	}
	if len(ctrl.deleted) != 1 || ctrl.deleted[0] != 2 {
		t.Fatalf("deleted = %v, want [2]", ctrl.deleted)
	}

	m = press(t, m, "k", "k")
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}

	press(t, m, "a")
	if ctrl.added != 1 {
		t.Fatalf("added = %d, want 1", ctrl.added)
	}
}

func TestModel_EditSubmitsParsedFacts(t *testing.T) {
	m, ctrl, _, _ := testModel(t)

	m = press(t, m, "j", "e")
	if m.edit == nil || m.edit.setID != 2 {
		t.Fatalf("edit form = %+v, want form for set 2", m.edit)
	}
	if got := m.edit.input.Value(); got != "6 45 0 0" {
		t.Fatalf("prefilled = %q, want effective facts %q", got, "6 45 0 0")
	}

	m = press(t, m, "enter")
	if m.edit != nil {
		t.Fatal("edit form should close after submit")
	}
	want := workout.Facts{Reps: 6, Weight: 45}
	if got := ctrl.edited[2]; got != want {
		t.Fatalf("edited = %+v, want %+v", got, want)
	}
}

func TestModel_EditEscapeCancels(t *testing.T) {
	m, ctrl, _, _ := testModel(t)

	m = press(t, m, "e", "esc")
	if m.edit != nil {
		t.Fatal("esc should close the edit form")
	}
	if len(ctrl.edited) != 0 {
		t.Fatalf("edited = %v, want none", ctrl.edited)
	}
}

func TestModel_RestControls(t *testing.T) {
	m, _, tm, _ := testModel(t)

	m = press(t, m, "s")
	if len(tm.starts) != 1 || tm.starts[0] != 90 {
		t.Fatalf("starts = %v, want [90]", tm.starts)
	}

	tm.state = timer.State{Phase: timer.PhaseRunning, Running: true, RemainingSeconds: 30, TotalSeconds: 90}
	m = press(t, m, "p")
	if tm.paused != 1 {
		t.Fatalf("paused = %d, want 1", tm.paused)
	}

	tm.state = timer.State{Phase: timer.PhasePaused, RemainingSeconds: 30, TotalSeconds: 90}
	m = press(t, m, "p")
	if len(tm.starts) != 2 || tm.starts[1] != 30 {
		t.Fatalf("resume starts = %v, want second start of 30", tm.starts)
	}

	press(t, m, "r")
	if tm.resets != 1 {
		t.Fatalf("resets = %d, want 1", tm.resets)
	}
}

func TestModel_MovesAndPersistsIndicator(t *testing.T) {
	m, _, _, mem := testModel(t)
	if err := mem.Set(PositionKey, "[3,2]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m.position = loadPosition(mem)

	// Move keys only apply on the overview.
	m = press(t, m, "H")
	if m.position != (Position{X: 3, Y: 2}) {
		t.Fatalf("position moved on exercise view: %+v", m.position)
	}

	m = press(t, m, "tab", "H", "J", "J")
	if m.position != (Position{X: 2, Y: 4}) {
		t.Fatalf("position = %+v, want {2 4}", m.position)
	}
	raw, ok, err := mem.Get(PositionKey)
	if err != nil || !ok {
		t.Fatalf("Get: %q %v %v", raw, ok, err)
	}
	if raw != "[2,4]" {
		t.Fatalf("persisted = %q, want [2,4]", raw)
	}
}

func TestModel_CompletionFlashesAndRings(t *testing.T) {
	m, _, tm, _ := testModel(t)
	if tm.handler == nil {
		t.Fatal("model should subscribe to completions")
	}

	next, cmd := m.Update(completionMsg{TotalSeconds: 90})
	m = next.(Model)
	if !m.flashing() {
		t.Fatal("model should flash after completion")
	}
	if cmd == nil {
		t.Fatal("expected follow-up commands")
	}

	var buf bytes.Buffer
	bellCmd(&buf)()
	if buf.String() != "\a" {
		t.Fatalf("bell wrote %q, want \\a", buf.String())
	}

	m.Close()
	if tm.handler != nil {
		t.Fatal("Close should cancel the subscription")
	}
}

func TestModel_ThemeCycleSavesPrefs(t *testing.T) {
	m, _, _, _ := testModel(t)
	start := m.theme.Name

	m = press(t, m, "T", "B")
	if m.theme.Name == start {
		t.Fatalf("theme did not change from %q", start)
	}

	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Theme != m.theme.Name {
		t.Fatalf("saved theme = %q, want %q", p.Theme, m.theme.Name)
	}
	if p.Bell != m.bell {
		t.Fatalf("saved bell = %v, want %v", p.Bell, m.bell)
	}
	if _, err := os.Stat(m.prefsPath); err != nil {
		t.Fatalf("prefs file missing: %v", err)
	}
}

func TestModel_ViewRendersSetsAndIndicator(t *testing.T) {
	m, _, tm, _ := testModel(t)

	out := m.View()
	for _, want := range []string{"Squat", "10 × 40kg", "done 6"} {
		if !strings.Contains(out, want) {
			t.Fatalf("exercise view missing %q:\n%s", want, out)
		}
	}

	tm.state = timer.State{Phase: timer.PhaseRunning, Running: true, RemainingSeconds: 75, TotalSeconds: 90}
	next, _ := m.Update(tickMsg(time.Now()))
	m = press(t, next.(Model), "tab")
	out = m.View()
	if !strings.Contains(out, "1:15") {
		t.Fatalf("overview missing floating countdown:\n%s", out)
	}
	if !strings.Contains(out, "Legs") {
		t.Fatalf("overview missing workout day:\n%s", out)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{5, "0:05"},
		{60, "1:00"},
		{95, "1:35"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.in); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFacts(t *testing.T) {
	tests := []struct {
		in      string
		want    workout.Facts
		wantErr bool
	}{
		{in: "10", want: workout.Facts{Reps: 10}},
		{in: "10 42.5", want: workout.Facts{Reps: 10, Weight: 42.5}},
		{in: "0, 0, 12, 2000", want: workout.Facts{Minutes: 12, Meters: 2000}},
		{in: "  8\t60 1 0 ", want: workout.Facts{Reps: 8, Weight: 60, Minutes: 1}},
		{in: "", wantErr: true},
		{in: "ten", wantErr: true},
		{in: "10 heavy", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1 2 3 4 5", wantErr: true},
		{in: "10 NaN", wantErr: true},
		{in: "10 +Inf", wantErr: true},
		{in: "10 -inf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFacts(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseFacts(%q) = %+v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFacts(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFacts(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFormatFactsRoundTrips(t *testing.T) {
	f := workout.Facts{Reps: 12, Weight: 62.5, Minutes: 3, Meters: 400}
	got, err := parseFacts(formatFacts(f))
	if err != nil || got != f {
		t.Fatalf("parseFacts(formatFacts) = %+v, %v; want %+v", got, err, f)
	}
}

func TestBlinkHidden(t *testing.T) {
	on := time.UnixMilli(1000)  // (1000/250)%2 == 0
	off := time.UnixMilli(1250) // (1250/250)%2 == 1

	running := func(remaining int) timer.State {
		return timer.State{Phase: timer.PhaseRunning, Running: true, RemainingSeconds: remaining, TotalSeconds: 90}
	}

	if blinkHidden(running(30), off) {
		t.Error("should not blink outside the last seconds")
	}
	if !blinkHidden(running(5), off) {
		t.Error("should blink in the last five seconds")
	}
	if blinkHidden(running(5), on) {
		t.Error("blink on phase should be visible")
	}
	if blinkHidden(timer.State{Phase: timer.PhasePaused, RemainingSeconds: 3}, off) {
		t.Error("paused countdown should not blink")
	}
}

func TestOverlay(t *testing.T) {
	bg := "abcdefgh\nijklmnop\nqrstuvwx"

	if got := overlay(bg, "XY", 2, 1); got != "abcdefgh\nijXYmnop\nqrstuvwx" {
		t.Fatalf("overlay middle = %q", got)
	}
	if got := overlay(bg, "XY", 7, 0); got != "abcdefgXY\nijklmnop\nqrstuvwx" {
		t.Fatalf("overlay past edge = %q", got)
	}
	if got := overlay("ab", "XY\nZW", 4, 1); got != "ab\n    XY\n    ZW" {
		t.Fatalf("overlay below = %q", got)
	}
	if got := overlay(bg, "", 0, 0); got != bg {
		t.Fatalf("empty overlay changed background: %q", got)
	}
}

func TestPosition(t *testing.T) {
	mem := kv.NewMemory()
	if got := loadPosition(mem); got != defaultPosition {
		t.Fatalf("missing position = %+v, want default", got)
	}

	if err := mem.Set(PositionKey, "not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := loadPosition(mem); got != defaultPosition {
		t.Fatalf("corrupt position = %+v, want default", got)
	}

	if err := savePosition(mem, Position{X: 12, Y: 3}); err != nil {
		t.Fatalf("savePosition: %v", err)
	}
	if got := loadPosition(mem); got != (Position{X: 12, Y: 3}) {
		t.Fatalf("loaded = %+v, want {12 3}", got)
	}

	if got := defaultPosition.resolve(80, 20, 10, 3); got != (Position{X: 70, Y: 17}) {
		t.Fatalf("default resolves to %+v, want bottom-right {70 17}", got)
	}
	if got := (Position{X: 200, Y: 50}).resolve(80, 20, 10, 3); got != (Position{X: 70, Y: 17}) {
		t.Fatalf("clamped = %+v, want {70 17}", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		set  workout.Set
		want string
	}{
		{workout.Set{Reps: 10, Weight: 42.5}, "10 × 42.5kg"},
		{workout.Set{Reps: 12}, "12"},
		{workout.Set{Minutes: 20, Meters: 3000}, "20min 3000m"},
		{workout.Set{}, "-"},
	}
	for _, tt := range tests {
		if got := describeTarget(tt.set); got != tt.want {
			t.Errorf("describeTarget(%+v) = %q, want %q", tt.set, got, tt.want)
		}
	}
	if got := describeFacts(workout.Set{Reps: 10}); got != "" {
		t.Errorf("describeFacts with no facts = %q, want empty", got)
	}
}
