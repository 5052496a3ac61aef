package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-history/internal/app"
	"github.com/jaminalder/tictactoe-history/internal/domain"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       *slog.Logger
	heartbeat time.Duration
}

func (h *handlers) renderBoard(sess app.Session) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(sess))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateGame()
	if err != nil {
		h.log.ErrorContext(r.Context(), "create game", "error", err)
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+sess.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.game, "", newBoardView(*sess)))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	row, errR := strconv.Atoi(r.Form.Get("r"))
	col, errC := strconv.Atoi(r.Form.Get("c"))
	if errR != nil || errC != nil {
		// malformed clicks are ignored like any other invalid click
		h.current(w, r)
		return
	}
	h.dispatch(w, r, domain.CellClicked{Row: row, Col: col})
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	idx, err := strconv.Atoi(r.Form.Get("move"))
	if err != nil {
		h.current(w, r)
		return
	}
	h.dispatch(w, r, domain.HistoryEntryClicked{Index: idx})
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, domain.OrderToggled{})
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, domain.Restarted{})
}

func (h *handlers) dispatch(w http.ResponseWriter, r *http.Request, in domain.Intent) {
	sess, err := h.svc.Dispatch(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			h.log.ErrorContext(r.Context(), "dispatch", "intent", domain.IntentName(in), "error", err)
		}
		http.NotFound(w, r)
		return
	}
	h.respond(w, r, *sess)
}

// current re-renders the session without applying anything.
func (h *handlers) current(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.respond(w, r, *sess)
}

// respond returns the board fragment to htmx and redirects plain form posts
// back to the game page.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, sess app.Session) {
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, "/game/"+sess.ID, http.StatusSeeOther)
		return
	}
	writeHTML(w, http.StatusOK, h.renderBoard(sess))
}

type stateResponse struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	NextMark domain.Mark       `json:"nextMark"`
	Result   domain.Result     `json:"result"`
	Moves    []domain.MoveItem `json:"moves"`
	State    domain.GameState  `json:"state"`
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	st := sess.State
	resp := stateResponse{
		ID:       sess.ID,
		Status:   st.Status(),
		NextMark: st.NextMark(),
		Result:   st.Result(),
		Moves:    st.MoveList(),
		State:    st,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.ErrorContext(r.Context(), "encode state", "session", sess.ID, "error", err)
	}
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
