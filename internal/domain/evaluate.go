package domain

import "strings"

// DefaultWinLength is the run length needed to win on the standard board.
const DefaultWinLength = 3

// Outcome classifies a grid.
type Outcome uint8

const (
	None Outcome = iota
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result is derived from a grid on demand and never stored.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Winner  Mark    `json:"winner"`
	Line    []Move  `json:"line,omitempty"`
}

// Highlighted reports whether (r, c) is part of the winning line.
func (res Result) Highlighted(r, c int) bool {
	for _, m := range res.Line {
		if m.Row == r && m.Col == c {
			return true
		}
	}
	return false
}

// Evaluate reports whether g holds a run of k identical marks.
//
// Lines are examined as row i, column i, then the two diagonals (square grids
// only) for each i in turn. When more than one line wins, the last one
// examined is reported. A win always takes precedence over a draw.
func Evaluate(g Grid, k int) Result {
	if k <= 0 {
		k = DefaultWinLength
	}
	res := Result{Outcome: None}
	check := func(line []Move) {
		if mark, run, ok := winningRun(g, line, k); ok {
			res = Result{Outcome: Win, Winner: mark, Line: run}
		}
	}

	n := g.rows
	if g.cols > n {
		n = g.cols
	}
	square := g.rows == g.cols
	for i := 0; i < n; i++ {
		if i < g.rows {
			check(rowLine(g, i))
		}
		if i < g.cols {
			check(colLine(g, i))
		}
		if square {
			check(mainDiagonal(g))
			check(antiDiagonal(g))
		}
	}

	if res.Outcome == None && len(g.cells) > 0 && g.Full() {
		res.Outcome = Draw
	}
	return res
}

// winningRun flattens line into a symbol string and looks for k repeats of
// either mark.
func winningRun(g Grid, line []Move, k int) (Mark, []Move, bool) {
	if len(line) < k {
		return Empty, nil, false
	}
	var sb strings.Builder
	for _, m := range line {
		sb.WriteByte(g.At(m.Row, m.Col).symbol())
	}
	s := sb.String()
	for _, mark := range [...]Mark{X, O} {
		if idx := strings.Index(s, strings.Repeat(string(mark.symbol()), k)); idx >= 0 {
			run := make([]Move, k)
			copy(run, line[idx:idx+k])
			return mark, run, true
		}
	}
	return Empty, nil, false
}

func rowLine(g Grid, r int) []Move {
	line := make([]Move, g.cols)
	for c := range line {
		line[c] = Move{Row: r, Col: c}
	}
	return line
}

func colLine(g Grid, c int) []Move {
	line := make([]Move, g.rows)
	for r := range line {
		line[r] = Move{Row: r, Col: c}
	}
	return line
}

func mainDiagonal(g Grid) []Move {
	line := make([]Move, g.rows)
	for i := range line {
		line[i] = Move{Row: i, Col: i}
	}
	return line
}

func antiDiagonal(g Grid) []Move {
	line := make([]Move, g.rows)
	for i := range line {
		line[i] = Move{Row: i, Col: g.cols - 1 - i}
	}
	return line
}
