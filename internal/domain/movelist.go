package domain

import "fmt"

// MoveItem is one row of the move list.
type MoveItem struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
	Move    Move   `json:"move"`
	HasMove bool   `json:"hasMove"`
}

// MoveList labels every history entry in the state's order. Coordinates are
// read from the entry at the same absolute index, so reversing the order only
// reverses the slice.
func (s GameState) MoveList() []MoveItem {
	n := len(s.History)
	items := make([]MoveItem, n)
	for i, e := range s.History {
		item := MoveItem{
			Index:   i,
			Current: i == s.Current,
			Move:    e.Move,
			HasMove: e.HasMove,
		}
		item.Label = moveLabel(i, item.Current, e)
		pos := i
		if s.Order == Descending {
			pos = n - 1 - i
		}
		items[pos] = item
	}
	return items
}

func moveLabel(index int, current bool, e Entry) string {
	if index == 0 || !e.HasMove {
		return "Go to game start"
	}
	prefix := "Go to move"
	if current {
		prefix = "You are at move"
	}
	return fmt.Sprintf("%s #%d: (%d,%d)", prefix, index, e.Move.Row, e.Move.Col)
}
