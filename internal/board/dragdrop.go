package board

import (
	"fmt"
	"math"

	"github.com/javiermolinar/orga/internal/event"
)

// Source is where a dragged item comes from.
type Source int

const (
	// SourceGrid is a scheduled tile on the week grid.
	SourceGrid Source = iota
	// SourceTray is an item of the unscheduled tray.
	SourceTray
)

func (s Source) String() string {
	if s == SourceTray {
		return "tray"
	}
	return "grid"
}

// Target is a place an item can be dropped on.
type Target interface {
	accepts(Source) bool
}

// GridCell is one hour cell of a day column.
type GridCell struct {
	Day  int // 0=Monday
	Hour int
}

func (GridCell) accepts(Source) bool { return true }

// TrayZone is the unscheduled tray.
type TrayZone struct{}

func (TrayZone) accepts(src Source) bool { return src == SourceGrid }

// Accepts reports whether target takes items from source. The tray only
// takes tiles from the grid.
func Accepts(target Target, source Source) bool {
	return target != nil && target.accepts(source)
}

// Item identifies a dragged event.
type Item struct {
	ID     string
	Source Source
}

// Pointer is the vertical geometry of a drop, in any consistent unit.
type Pointer struct {
	Y           float64 // pointer position
	CellTop     float64 // top edge of the hour cell under the pointer
	CellHeight  float64
	GrabOffsetY float64 // distance from the tile's top edge to where it was grabbed
}

// DropOffset converts a pointer position inside an hour cell to a minute
// offset at quarter-hour resolution. The grab offset is subtracted so the
// tile's top edge, not the pointer, marks the start. The result may fall
// outside the hour when the tile was grabbed low.
func DropOffset(pointerY, cellTop, cellHeight, grabOffsetY float64) int {
	return dropOffset(pointerY, cellTop, cellHeight, grabOffsetY, event.PointerResolution)
}

func dropOffset(pointerY, cellTop, cellHeight, grabOffsetY float64, resolution int) int {
	if cellHeight <= 0 || resolution <= 0 {
		return 0
	}
	steps := 60 / resolution
	relative := (pointerY - cellTop) - grabOffsetY
	return int(math.Floor(relative/cellHeight*float64(steps))) * resolution
}

// RawDropTime returns the unsnapped "HH:MM" for an offset within an hour cell.
func RawDropTime(cellHour, offset int) string {
	return event.MinutesToTime(cellHour*60 + offset)
}

// DragDrop turns drop gestures into Store operations.
type DragDrop struct {
	store   *Store
	snap    int
	pointer int
}

// NewDragDrop creates a controller snapping drops to snap minutes and
// reading pointer offsets at pointer-minute resolution. Zero values use
// event.DropSnap and event.PointerResolution.
func NewDragDrop(store *Store, snap, pointer int) *DragDrop {
	if snap <= 0 {
		snap = event.DropSnap
	}
	if pointer <= 0 {
		pointer = event.PointerResolution
	}
	return &DragDrop{store: store, snap: snap, pointer: pointer}
}

// Drop handles a pointer drop of item on target.
func (d *DragDrop) Drop(item Item, target Target, p Pointer) (*event.Event, error) {
	raw := ""
	if cell, ok := target.(GridCell); ok {
		offset := dropOffset(p.Y, p.CellTop, p.CellHeight, p.GrabOffsetY, d.pointer)
		raw = RawDropTime(cell.Hour, offset)
	}
	return d.DropAt(item, target, raw)
}

// DropAt handles a drop whose raw time is already known, as with keyboard
// dragging. rawTime is ignored for the tray.
func (d *DragDrop) DropAt(item Item, target Target, rawTime string) (*event.Event, error) {
	if !Accepts(target, item.Source) {
		return nil, fmt.Errorf("%w: %s item on %T", ErrDropRejected, item.Source, target)
	}

	switch t := target.(type) {
	case GridCell:
		start := event.SnapToGrid(rawTime, d.snap)
		return d.store.MoveToSlot(item.ID, t.Day, start, item.Source)
	case TrayZone:
		return d.store.Unschedule(item.ID)
	default:
		return nil, fmt.Errorf("%w: unknown target %T", ErrDropRejected, target)
	}
}
