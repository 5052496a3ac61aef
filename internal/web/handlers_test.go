package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-history/internal/app"
	"github.com/jaminalder/tictactoe-history/internal/domain"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(nil, app.DefaultRules())
	h := NewServer(s, Options{Heartbeat: time.Second})
	return s, h
}

func post(t *testing.T, h http.Handler, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func click(t *testing.T, h http.Handler, id string, r, c int) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"r": {strconv.Itoa(r)}, "c": {strconv.Itoa(c)}}
	return post(t, h, "/game/"+id+"/play", form, true)
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `action="/game"`)
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := post(t, h, "/game", nil, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	loc := rr.Result().Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/game/"), "location %q", loc)

	_, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	assert.True(t, ok)
}

func TestGamePageRendersBoardAndHistory(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()

	req := httptest.NewRequest(http.MethodGet, "/game/"+url.PathEscape(sess.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "Next player: X")
	assert.Contains(t, body, "Go to game start")
	assert.Contains(t, body, `hx-ext="sse"`)
	assert.Contains(t, body, "/game/"+sess.ID+"/events")
	assert.Equal(t, 9, strings.Count(body, `name="r"`))
	assert.Contains(t, body, ">ASC<")
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()

	rr := click(t, h, sess.ID, 0, 0)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="board"`)
	assert.Contains(t, body, "Next player: O")
	assert.Contains(t, body, "You are at move #1: (0,0)")

	latest, _ := svc.Get(sess.ID)
	assert.Equal(t, 2, latest.State.Len())
	assert.Equal(t, domain.X, latest.State.Grid().At(0, 0))
}

func TestPlayWithoutHTMXRedirects(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()

	rr := post(t, h, "/game/"+sess.ID+"/play", url.Values{"r": {"1"}, "c": {"1"}}, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/game/"+sess.ID, rr.Result().Header.Get("Location"))

	latest, _ := svc.Get(sess.ID)
	assert.Equal(t, domain.X, latest.State.Grid().At(1, 1))
}

func TestInvalidClicksAreSilentNoops(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()
	require.Equal(t, http.StatusOK, click(t, h, sess.ID, 1, 1).Code)

	cases := map[string]url.Values{
		"occupied":  {"r": {"1"}, "c": {"1"}},
		"outside":   {"r": {"7"}, "c": {"0"}},
		"malformed": {"r": {"x"}, "c": {"0"}},
		"missing":   {},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			rr := post(t, h, "/game/"+sess.ID+"/play", form, true)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.NotContains(t, rr.Body.String(), "alert")

			latest, _ := svc.Get(sess.ID)
			assert.Equal(t, 2, latest.State.Len())
			assert.Equal(t, 1, latest.State.Current)
		})
	}
}

func TestWinHighlightsLineAndBlocksPlay(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()
	for _, m := range [][2]int{{0, 0}, {1, 1}, {0, 1}, {2, 2}, {0, 2}} {
		require.Equal(t, http.StatusOK, click(t, h, sess.ID, m[0], m[1]).Code)
	}

	rr := click(t, h, sess.ID, 2, 0)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Winner: X")
	assert.Equal(t, 3, strings.Count(body, "square-highlight"))

	latest, _ := svc.Get(sess.ID)
	assert.Equal(t, 6, latest.State.Len())
	assert.Equal(t, domain.Empty, latest.State.Grid().At(2, 0))
}

func TestJumpAndOrderEndpoints(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()
	click(t, h, sess.ID, 0, 0)
	click(t, h, sess.ID, 1, 1)

	rr := post(t, h, "/game/"+sess.ID+"/jump", url.Values{"move": {"1"}}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "You are at move #1: (0,0)")
	assert.Contains(t, body, "Go to move #2: (1,1)")
	assert.Contains(t, body, "Next player: O")

	rr = post(t, h, "/game/"+sess.ID+"/order", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, ">DESC<")
	second := strings.Index(body, "Go to move #2: (1,1)")
	first := strings.Index(body, "You are at move #1: (0,0)")
	start := strings.Index(body, "Go to game start")
	require.True(t, second >= 0 && first >= 0 && start >= 0)
	assert.Less(t, second, first)
	assert.Less(t, first, start)

	latest, _ := svc.Get(sess.ID)
	assert.Equal(t, 1, latest.State.Current)
	assert.Equal(t, 3, latest.State.Len())

	// a bad index changes nothing
	rr = post(t, h, "/game/"+sess.ID+"/jump", url.Values{"move": {"99"}}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	latest, _ = svc.Get(sess.ID)
	assert.Equal(t, 1, latest.State.Current)
}

func TestRestartEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()
	click(t, h, sess.ID, 0, 0)

	rr := post(t, h, "/game/"+sess.ID+"/restart", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	latest, _ := svc.Get(sess.ID)
	assert.Equal(t, 1, latest.State.Len())
	assert.Contains(t, rr.Body.String(), "Next player: X")
}

func TestStateEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	sess, _ := svc.CreateGame()
	click(t, h, sess.ID, 2, 1)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/game/"+sess.ID+"/state", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Result().Header.Get("Content-Type"))

	var got struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		NextMark string `json:"nextMark"`
		Result   struct {
			Outcome string `json:"outcome"`
		} `json:"result"`
		Moves []domain.MoveItem `json:"moves"`
		State domain.GameState  `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "Next player: O", got.Status)
	assert.Equal(t, "O", got.NextMark)
	assert.Equal(t, "none", got.Result.Outcome)
	require.Len(t, got.Moves, 2)
	assert.Equal(t, "You are at move #1: (2,1)", got.Moves[1].Label)
	assert.Equal(t, 1, got.State.Current)
	assert.Equal(t, domain.X, got.State.Grid().At(2, 1))
}

func TestUnknownGameIs404(t *testing.T) {
	_, h := newTestServer(t)
	unknown := "/game/" + uuid.NewString()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, unknown},
		{http.MethodPost, unknown + "/jump"},
		{http.MethodGet, "/game/missing"},
		{http.MethodGet, "/game/missing/state"},
		{http.MethodGet, "/game/missing/events"},
		{http.MethodPost, "/game/missing/play"},
		{http.MethodPost, "/game/missing/order"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	rrCreate := post(t, h, "/game", nil, false)
	loc := rrCreate.Result().Header.Get("Location")
	require.NotEmpty(t, loc)

	req := httptest.NewRequest(http.MethodGet, loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Result().Header.Get("Content-Type"), "text/event-stream"))
}

func TestEventsStreamBroadcastsBoard(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	sess, _ := svc.CreateGame()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/game/"+sess.ID+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = svc.Dispatch(ctx, sess.ID, domain.CellClicked{Row: 0, Col: 0})
	require.NoError(t, err)

	sc := bufio.NewScanner(resp.Body)
	sawEvent, sawStatus := false, false
	for sc.Scan() {
		line := sc.Text()
		if line == "event: board" {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data: ") && strings.Contains(line, "Next player: O") {
			sawStatus = true
			break
		}
	}
	assert.True(t, sawEvent, "no board event received")
	assert.True(t, sawStatus, "board event did not carry the new status")
}

func TestWriteEventSplitsLines(t *testing.T) {
	var sb strings.Builder
	writeEvent(&sb, "board", []byte("<div>\n<p>x</p>\n</div>"))
	assert.Equal(t, "event: board\ndata: <div>\ndata: <p>x</p>\ndata: </div>\n\n", sb.String())
}
