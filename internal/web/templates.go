package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/tictactoe-history/internal/app"
	"github.com/jaminalder/tictactoe-history/internal/domain"
)

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"orderLabel": func(o domain.Order) string {
			if o == domain.Descending {
				return "DESC"
			}
			return "ASC"
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<style>
.square{width:3em;height:3em;font-size:1.5em;cursor:pointer}
.square-highlight{background:#ffd54f}
.board-row{display:flex}
.board-row form{margin:0}
.game{display:flex;gap:2em}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(base.Clone())
	template.Must(index.New("content").Parse(`<h1>Tic-Tac-Toe</h1><form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(base.Clone())
	template.Must(game.New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="game" sse-swap="board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `<div id="board" class="game">
  <div class="game-board">
    <div class="status">{{.Status}}</div>
    {{range .Rows}}<div class="board-row">
      {{range .}}<form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" action="/game/{{$.ID}}/play" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit" class="square{{if .Highlight}} square-highlight{{end}}">{{.Symbol}}</button>
      </form>{{end}}
    </div>{{end}}
  </div>
  <div class="game-info">
    <form hx-post="/game/{{.ID}}/order" hx-target="#board" hx-swap="outerHTML" action="/game/{{.ID}}/order" method="post">
      <button type="submit" class="order">{{orderLabel .Order}}</button>
    </form>
    <ol>
      {{range .Moves}}<li>{{if .Current}}<div class="current">{{.Label}}</div>{{else}}<form hx-post="/game/{{$.ID}}/jump" hx-target="#board" hx-swap="outerHTML" action="/game/{{$.ID}}/jump" method="post">
        <input type="hidden" name="move" value="{{.Index}}">
        <button type="submit">{{.Label}}</button>
      </form>{{end}}</li>
      {{end}}
    </ol>
    <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" action="/game/{{.ID}}/restart" method="post">
      <button type="submit" class="restart">Restart</button>
    </form>
  </div>
</div>`

// boardView is everything the board template reads. It is rebuilt from the
// session on every render; nothing derived is kept between requests.
type boardView struct {
	ID     string
	Status string
	Order  domain.Order
	Rows   [][]cellView
	Moves  []domain.MoveItem
}

type cellView struct {
	Row       int
	Col       int
	Symbol    string
	Highlight bool
}

func newBoardView(sess app.Session) boardView {
	st := sess.State
	grid := st.Grid()
	res := st.Result()
	rows := make([][]cellView, grid.Rows())
	for r := range rows {
		rows[r] = make([]cellView, grid.Cols())
		for c := range rows[r] {
			rows[r][c] = cellView{
				Row:       r,
				Col:       c,
				Symbol:    grid.At(r, c).String(),
				Highlight: res.Highlighted(r, c),
			}
		}
	}
	return boardView{
		ID:     sess.ID,
		Status: st.Status(),
		Order:  st.Order,
		Rows:   rows,
		Moves:  st.MoveList(),
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
