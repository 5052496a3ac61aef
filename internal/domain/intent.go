package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownIntent = errors.New("unknown intent")

// Intent is a raw user action forwarded by the presentation layer.
type Intent interface {
	intentName() string
}

// CellClicked asks to play at a board cell.
type CellClicked struct{ Row, Col int }

// HistoryEntryClicked asks to display a history entry.
type HistoryEntryClicked struct{ Index int }

// OrderToggled flips the move list order.
type OrderToggled struct{}

// Restarted throws the current game away.
type Restarted struct{}

func (CellClicked) intentName() string         { return "cell-clicked" }
func (HistoryEntryClicked) intentName() string { return "history-entry-clicked" }
func (OrderToggled) intentName() string        { return "order-toggled" }
func (Restarted) intentName() string           { return "restarted" }

// IntentName is used for logging.
func IntentName(in Intent) string {
	if in == nil {
		return "nil"
	}
	return in.intentName()
}

// Reduce applies in to s. It is the only transition entry point used by the
// controller.
func Reduce(s GameState, in Intent) (GameState, error) {
	switch v := in.(type) {
	case CellClicked:
		return s.Play(v.Row, v.Col)
	case HistoryEntryClicked:
		return s.Jump(v.Index)
	case OrderToggled:
		return s.ToggleOrder(), nil
	case Restarted:
		return s.Restart(), nil
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
}
