package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Mark is the content of a single cell.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// Errors returned by domain operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
	ErrNoSuchMove  = errors.New("no such move")
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

func (m Mark) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mark) UnmarshalText(b []byte) error {
	switch string(b) {
	case "X":
		*m = X
	case "O":
		*m = O
	case "", ".":
		*m = Empty
	default:
		return fmt.Errorf("unknown mark %q", b)
	}
	return nil
}

// symbol is the character used when a line is flattened for win checks.
func (m Mark) symbol() byte {
	switch m {
	case X:
		return 'X'
	case O:
		return 'O'
	default:
		return '.'
	}
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Move is the coordinate written on a single turn.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is an immutable rows x cols board. The zero value is a 0x0 grid.
type Grid struct {
	rows  int
	cols  int
	cells []Mark
}

// EmptyGrid returns a grid with every cell empty.
func EmptyGrid(rows, cols int) Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return Grid{rows: rows, cols: cols, cells: make([]Mark, rows*cols)}
}

func (g Grid) Rows() int { return g.rows }
func (g Grid) Cols() int { return g.cols }

// InBounds reports whether (r, c) addresses a cell of g.
func (g Grid) InBounds(r, c int) bool {
	return r >= 0 && c >= 0 && r < g.rows && c < g.cols
}

// At returns the mark at (r, c), or Empty when out of bounds.
func (g Grid) At(r, c int) Mark {
	if !g.InBounds(r, c) {
		return Empty
	}
	return g.cells[r*g.cols+c]
}

// Full reports whether no cell is empty.
func (g Grid) Full() bool {
	for _, m := range g.cells {
		if m == Empty {
			return false
		}
	}
	return true
}

// Place returns a copy of g with (r, c) set to mark. g itself is never modified.
func Place(g Grid, r, c int, mark Mark) (Grid, error) {
	if !g.InBounds(r, c) {
		return g, ErrOutOfBounds
	}
	if g.At(r, c) != Empty {
		return g, ErrOccupied
	}
	next := Grid{rows: g.rows, cols: g.cols, cells: make([]Mark, len(g.cells))}
	copy(next.cells, g.cells)
	next.cells[r*g.cols+c] = mark
	return next, nil
}

// Cells returns the grid as a fresh row-major table.
func (g Grid) Cells() [][]Mark {
	out := make([][]Mark, g.rows)
	for r := range out {
		out[r] = make([]Mark, g.cols)
		copy(out[r], g.cells[r*g.cols:(r+1)*g.cols])
	}
	return out
}

// GridFromCells builds a grid from a rectangular table. Ragged tables are
// rejected with ErrOutOfBounds.
func GridFromCells(cells [][]Mark) (Grid, error) {
	rows := len(cells)
	cols := 0
	if rows > 0 {
		cols = len(cells[0])
	}
	g := EmptyGrid(rows, cols)
	for r, row := range cells {
		if len(row) != cols {
			return Grid{}, ErrOutOfBounds
		}
		copy(g.cells[r*cols:], row)
	}
	return g, nil
}

// String renders the grid one row per line, using '.' for empty cells.
func (g Grid) String() string {
	b := make([]byte, 0, g.rows*(g.cols+1))
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b = append(b, '\n')
		}
		for c := 0; c < g.cols; c++ {
			b = append(b, g.At(r, c).symbol())
		}
	}
	return string(b)
}

func (g Grid) MarshalJSON() ([]byte, error) { return json.Marshal(g.Cells()) }

func (g *Grid) UnmarshalJSON(b []byte) error {
	var cells [][]Mark
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	parsed, err := GridFromCells(cells)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	*g = parsed
	return nil
}
