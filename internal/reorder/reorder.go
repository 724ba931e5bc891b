// Package reorder keeps an ordered block sequence editable by drag and drop
// and by keyboard. Nothing here performs I/O or returns errors: requests that
// make no sense for the current sequence are no-ops.
package reorder

import (
	"fmt"

	"blockeditor/internal/domain"
)

// Position is the side of a target block that a dropped block lands on.
type Position int

const (
	Above Position = iota
	Below
)

func (p Position) String() string {
	if p == Below {
		return "below"
	}
	return "above"
}

func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	v, ok := ParsePosition(string(text))
	if !ok {
		return fmt.Errorf("unknown drop position %q", text)
	}
	*p = v
	return nil
}

// ParsePosition accepts "above" or "below".
func ParsePosition(s string) (Position, bool) {
	switch s {
	case "above":
		return Above, true
	case "below":
		return Below, true
	}
	return Above, false
}

// DropTarget is the insertion point under the pointer.
type DropTarget struct {
	TargetID string   `json:"targetId"`
	Position Position `json:"position"`
}

// IndexOf returns the index of id in seq, or -1.
func IndexOf(seq []domain.Block, id string) int {
	for i, b := range seq {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Reorder moves movedID next to targetID, before it for Above and after it
// for Below. The input is never modified. If the ids are equal or either is
// missing, seq itself is returned.
func Reorder(seq []domain.Block, movedID, targetID string, pos Position) []domain.Block {
	if movedID == targetID {
		return seq
	}
	from := IndexOf(seq, movedID)
	if from < 0 || IndexOf(seq, targetID) < 0 {
		return seq
	}

	rest := make([]domain.Block, 0, len(seq)-1)
	rest = append(rest, seq[:from]...)
	rest = append(rest, seq[from+1:]...)

	at := IndexOf(rest, targetID)
	if pos == Below {
		at++
	}

	out := make([]domain.Block, 0, len(seq))
	out = append(out, rest[:at]...)
	out = append(out, seq[from])
	out = append(out, rest[at:]...)
	return out
}

// MoveUp swaps id with its predecessor. The bool is false when nothing moved.
func MoveUp(seq []domain.Block, id string) ([]domain.Block, bool) {
	i := IndexOf(seq, id)
	if i <= 0 {
		return seq, false
	}
	return swap(seq, i, i-1), true
}

// MoveDown swaps id with its successor. The bool is false when nothing moved.
func MoveDown(seq []domain.Block, id string) ([]domain.Block, bool) {
	i := IndexOf(seq, id)
	if i < 0 || i >= len(seq)-1 {
		return seq, false
	}
	return swap(seq, i, i+1), true
}

// CanMoveUp reports whether id has a predecessor in seq.
func CanMoveUp(seq []domain.Block, id string) bool {
	return IndexOf(seq, id) > 0
}

// CanMoveDown reports whether id has a successor in seq.
func CanMoveDown(seq []domain.Block, id string) bool {
	i := IndexOf(seq, id)
	return i >= 0 && i < len(seq)-1
}

// SameOrder reports whether a and b list the same ids in the same order.
func SameOrder(a, b []domain.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func swap(seq []domain.Block, i, j int) []domain.Block {
	out := make([]domain.Block, len(seq))
	copy(out, seq)
	out[i], out[j] = out[j], out[i]
	return out
}
