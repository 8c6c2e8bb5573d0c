// Package models defines the domain types for marquee.
package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Cell is one titled, orderable entry on the public display.
type Cell struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Display     bool   `json:"display"`
	Order       *int   `json:"order,omitempty"`
}

// UnmarshalJSON decodes a cell, defaulting an absent "display" to true.
func (c *Cell) UnmarshalJSON(data []byte) error {
	type plain Cell
	p := plain{Display: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Cell(p)
	return nil
}

// OrderValue returns the order and whether one is set.
func (c Cell) OrderValue() (int, bool) {
	if c.Order == nil {
		return 0, false
	}
	return *c.Order, true
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// Collection is the persisted set of cells keyed by cell ID.
type Collection map[string]Cell

// MaxOrder returns the highest order in the collection, or 0 when no cell
// carries one.
func (c Collection) MaxOrder() int {
	max := 0
	for _, cell := range c {
		if v, ok := cell.OrderValue(); ok && v > max {
			max = v
		}
	}
	return max
}

// NextOrder is the order given to a newly ranked cell.
func (c Collection) NextOrder() int {
	return c.MaxOrder() + 1
}

// RankedCell pairs a cell with its ID for ordered listings.
type RankedCell struct {
	ID string `json:"id"`
	Cell
}

// Sorted ranks cells ascending by order. Cells without an order come last;
// equal orders fall back to ID.
func (c Collection) Sorted() []RankedCell {
	out := make([]RankedCell, 0, len(c))
	for id, cell := range c {
		out = append(out, RankedCell{ID: id, Cell: cell})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := out[i].OrderValue()
		oj, jok := out[j].OrderValue()
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FileMeta describes a file under the storage root.
type FileMeta struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
