package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Order is the presentation order of the move list.
type Order uint8

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Order) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "asc", "":
		*o = Ascending
	case "desc":
		*o = Descending
	default:
		return fmt.Errorf("unknown order %q", b)
	}
	return nil
}

// HistoryMode decides what happens to later entries when a move is played
// after jumping back in history.
type HistoryMode uint8

const (
	// Truncate discards entries after the current one and extends the
	// displayed grid.
	Truncate HistoryMode = iota
	// Append always extends the newest grid and keeps every entry.
	Append
)

var ErrUnknownHistoryMode = errors.New("unknown history mode")

func (m HistoryMode) String() string {
	if m == Append {
		return "append"
	}
	return "truncate"
}

func (m HistoryMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *HistoryMode) UnmarshalText(b []byte) error {
	parsed, err := ParseHistoryMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseHistoryMode accepts "truncate" (or empty) and "append".
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "append":
		return Append, nil
	default:
		return Truncate, fmt.Errorf("%w: %q", ErrUnknownHistoryMode, s)
	}
}

// Entry is one snapshot in the history. Every entry except the first records
// the move that produced it.
type Entry struct {
	Grid    Grid `json:"grid"`
	Move    Move `json:"move"`
	HasMove bool `json:"hasMove"`
}

// GameState is the whole game as a plain value. Transitions return a new
// GameState; grids already in History are never written to.
type GameState struct {
	History   []Entry     `json:"history"`
	Current   int         `json:"current"`
	Order     Order       `json:"order"`
	Mode      HistoryMode `json:"mode"`
	WinLength int         `json:"winLength"`
}

// NewGame returns a game holding only the empty starting grid.
func NewGame(rows, cols, winLength int, mode HistoryMode) GameState {
	if winLength <= 0 {
		winLength = DefaultWinLength
	}
	return GameState{
		History:   []Entry{{Grid: EmptyGrid(rows, cols)}},
		Mode:      mode,
		WinLength: winLength,
	}
}

// Len returns the number of history entries.
func (s GameState) Len() int { return len(s.History) }

// Grid returns the displayed grid.
func (s GameState) Grid() Grid {
	if s.Current < 0 || s.Current >= len(s.History) {
		return Grid{}
	}
	return s.History[s.Current].Grid
}

// Result evaluates the displayed grid.
func (s GameState) Result() Result { return Evaluate(s.Grid(), s.WinLength) }

// NextMark is the mark Play will place: X when the grid being extended is an
// even entry, O when it is odd.
func (s GameState) NextMark() Mark { return markFor(s.base()) }

// base is the index of the grid Play extends.
func (s GameState) base() int {
	if s.Mode == Append && len(s.History) > 0 {
		return len(s.History) - 1
	}
	return s.Current
}

func markFor(index int) Mark {
	if index%2 == 0 {
		return X
	}
	return O
}

// Status is the one-line summary shown above the board.
func (s GameState) Status() string {
	res := s.Result()
	switch res.Outcome {
	case Win:
		return "Winner: " + res.Winner.String()
	case Draw:
		return "Result: Draw"
	default:
		return "Next player: " + s.NextMark().String()
	}
}

// Play places the next mark at (r, c). On rejection the receiver is returned
// unchanged together with the reason.
func (s GameState) Play(r, c int) (GameState, error) {
	if len(s.History) == 0 {
		return s, ErrNoSuchMove
	}
	base := s.base()
	grid := s.History[base].Grid
	if Evaluate(grid, s.WinLength).Outcome == Win {
		return s, ErrGameOver
	}
	next, err := Place(grid, r, c, markFor(base))
	if err != nil {
		return s, err
	}

	history := make([]Entry, base+2)
	copy(history, s.History[:base+1])
	history[base+1] = Entry{Grid: next, Move: Move{Row: r, Col: c}, HasMove: true}

	out := s
	out.History = history
	out.Current = base + 1
	return out, nil
}

// Jump displays the entry at index. History is left untouched.
func (s GameState) Jump(index int) (GameState, error) {
	if index < 0 || index >= len(s.History) {
		return s, fmt.Errorf("%w: %d", ErrNoSuchMove, index)
	}
	out := s
	out.Current = index
	return out, nil
}

// ToggleOrder flips the move list order.
func (s GameState) ToggleOrder() GameState {
	out := s
	if s.Order == Ascending {
		out.Order = Descending
	} else {
		out.Order = Ascending
	}
	return out
}

// Restart returns a fresh game with the same board shape, rules and order.
func (s GameState) Restart() GameState {
	g := s.Grid()
	if len(s.History) > 0 {
		g = s.History[0].Grid
	}
	out := NewGame(g.Rows(), g.Cols(), s.WinLength, s.Mode)
	out.Order = s.Order
	return out
}
