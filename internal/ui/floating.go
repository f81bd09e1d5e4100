package ui

import (
	"encoding/json"
	"fmt"

	"github.com/five82/spotter/internal/kv"
)

// PositionKey is where the floating indicator position is persisted.
const PositionKey = "floating_timer_position"

// Position is the top-left cell of the floating indicator relative to the
// content area.
type Position struct {
	X, Y int
}

// defaultPosition is used until the user moves the indicator.
var defaultPosition = Position{X: -1, Y: -1}

// placed reports whether p was chosen by the user.
func (p Position) placed() bool {
	return p.X >= 0 && p.Y >= 0
}

// MarshalJSON encodes p as [x,y].
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes [x,y].
func (p *Position) UnmarshalJSON(data []byte) error {
	var xy [2]int
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// loadPosition reads the persisted indicator position. A missing or
// unreadable value yields the default.
func loadPosition(store kv.Store) Position {
	if store == nil {
		return defaultPosition
	}
	raw, ok, err := store.Get(PositionKey)
	if err != nil || !ok {
		return defaultPosition
	}
	var p Position
	if err := json.Unmarshal([]byte(raw), &p); err != nil || !p.placed() {
		return defaultPosition
	}
	return p
}

func savePosition(store kv.Store, p Position) error {
	if store == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	if err := store.Set(PositionKey, string(data)); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// resolve turns p into concrete coordinates that keep a w×h indicator
// inside an areaW×areaH area. Unplaced positions sit in the bottom-right
// corner.
func (p Position) resolve(areaW, areaH, w, h int) Position {
	maxX := max(areaW-w, 0)
	maxY := max(areaH-h, 0)
	if !p.placed() {
		return Position{X: maxX, Y: maxY}
	}
	return Position{X: min(p.X, maxX), Y: min(p.Y, maxY)}
}
