package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(DefaultConfig(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeState(t *testing.T, resp *http.Response) StateResponse {
	t.Helper()
	defer resp.Body.Close()
	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Zero(t, h.Sessions)
}

func TestCreateReturnsStartingPosition(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st := decodeState(t, resp)

	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, "awaiting-roll", st.Phase)
	assert.True(t, st.IsChanceNode)
	assert.False(t, st.Terminated)
	assert.Equal(t, [2]int{0, 0}, st.Dice)
	assert.Equal(t, [2]int{167, 167}, st.PipCount)
	assert.Equal(t, "4HPwATDgc/ABMA", st.PositionID)
	assert.Empty(t, st.LegalActions, "chance nodes have no deterministic actions")

	// Canonical board: own back checkers on 24, opposing anchor on 1.
	assert.Equal(t, 2, st.Board[23])
	assert.Equal(t, -2, st.Board[0])
	assert.Equal(t, 5, st.Board[5])
}

func TestCreateRejectsBadOptions(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/games", NewGameRequest{FirstPlayer: 7})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/games/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRollApplyFlow(t *testing.T) {
	ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 3}))
	base := ts.URL + "/api/games/" + st.SessionID

	// Applying before the roll is a phase error.
	resp := postJSON(t, base+"/apply", ActionRequest{Action: 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, base+"/roll", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decodeState(t, resp)
	assert.Equal(t, "checker-play", st.Phase)
	assert.Positive(t, st.Dice[0])
	assert.GreaterOrEqual(t, st.Dice[0], st.Dice[1])
	require.NotEmpty(t, st.LegalActions)

	// The actions listing agrees with the state response.
	resp, err := http.Get(base + "/actions")
	require.NoError(t, err)
	var listing struct {
		LegalActions []int `json:"legal_actions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	assert.Equal(t, st.LegalActions, listing.LegalActions)

	// Rolling again without moving is rejected.
	resp = postJSON(t, base+"/roll", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	before := st.Plies
	st = decodeState(t, postJSON(t, base+"/apply", ActionRequest{Action: st.LegalActions[0]}))
	assert.Equal(t, before+1, st.Plies)
}

func TestStepDrivesFullGame(t *testing.T) {
	ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 11, ShortGame: true}))
	base := ts.URL + "/api/games/" + st.SessionID

	for plies := 0; !st.Terminated && plies < 2000; plies++ {
		var resp *http.Response
		if st.IsChanceNode {
			resp = postJSON(t, base+"/roll", nil)
		} else {
			require.NotEmpty(t, st.LegalActions, "non-terminal decision node must offer actions")
			resp = postJSON(t, base+"/step", ActionRequest{Action: st.LegalActions[0]})
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
		st = decodeState(t, resp)
	}

	require.True(t, st.Terminated, "contact-free game must finish")
	assert.NotEqual(t, -1, st.Winner)
	assert.NotZero(t, st.Reward)
}

func TestFeaturesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 2}))
	base := ts.URL + "/api/games/" + st.SessionID

	resp, err := http.Get(base + "/features?variant=minimal")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fr FeaturesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fr))
	assert.Equal(t, "minimal", fr.Variant)
	assert.Equal(t, 28, fr.Size)
	require.Len(t, fr.Vector, 28)
	assert.InDelta(t, 5.0/15.0, fr.Vector[5], 1e-9, "own 6-point")
	assert.InDelta(t, -2.0/15.0, fr.Vector[0], 1e-9, "opposing anchor")

	bad, err := http.Get(base + "/features?variant=nope")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestResetRestartsTheGame(t *testing.T) {
	ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 5}))
	base := ts.URL + "/api/games/" + st.SessionID

	st = decodeState(t, postJSON(t, base+"/roll", nil))
	st = decodeState(t, postJSON(t, base+"/apply", ActionRequest{Action: st.LegalActions[0]}))
	require.Positive(t, st.Plies)

	st = decodeState(t, postJSON(t, base+"/reset", nil))
	assert.Zero(t, st.Plies)
	assert.True(t, st.IsChanceNode)
	assert.Equal(t, [2]int{167, 167}, st.PipCount)
}

func TestDeleteRemovesSession(t *testing.T) {
	ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 9}))
	base := ts.URL + "/api/games/" + st.SessionID

	req, err := http.NewRequest(http.MethodDelete, base, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSessions = 2
	srv := NewServer(cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: int64(i + 1)})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := postJSON(t, ts.URL+"/api/games", NewGameRequest{Seed: 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

type wsStateReply struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	Payload StateResponse `json:"payload"`
	Error   string        `json:"error"`
}

func wsSend(t *testing.T, conn *websocket.Conn, typ, id string, payload any) {
	t.Helper()
	msg := WSMessage{Type: typ, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func wsReadState(t *testing.T, conn *websocket.Conn, wantID string) StateResponse {
	t.Helper()
	var reply wsStateReply
	require.NoError(t, conn.ReadJSON(&reply))
	require.Empty(t, reply.Error)
	require.Equal(t, "state", reply.Type)
	require.Equal(t, wantID, reply.ID)
	return reply.Payload
}

func TestWebSocketSession(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Operations before create are rejected.
	wsSend(t, conn, "state", "0", nil)
	var errReply wsStateReply
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, "error", errReply.Type)
	assert.NotEmpty(t, errReply.Error)

	wsSend(t, conn, "create", "1", NewGameRequest{Seed: 21, ShortGame: true})
	st := wsReadState(t, conn, "1")
	assert.True(t, st.IsChanceNode)
	assert.Equal(t, [2]int{111, 111}, st.PipCount)

	wsSend(t, conn, "roll", "2", nil)
	st = wsReadState(t, conn, "2")
	require.Equal(t, "checker-play", st.Phase)
	require.NotEmpty(t, st.LegalActions)

	wsSend(t, conn, "apply", "3", ActionRequest{Action: st.LegalActions[0]})
	st = wsReadState(t, conn, "3")
	assert.Equal(t, 1, st.Plies)

	wsSend(t, conn, "ping", "4", nil)
	var pong wsStateReply
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	wsSend(t, conn, "bogus", "5", nil)
	var bogus wsStateReply
	require.NoError(t, conn.ReadJSON(&bogus))
	assert.Equal(t, "error", bogus.Type)
	assert.Contains(t, bogus.Error, "unknown message type")
}

func TestWebSocketStepSequence(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	wsSend(t, conn, "create", "c", NewGameRequest{Seed: 33, ShortGame: true})
	st := wsReadState(t, conn, "c")

	for i := 0; !st.Terminated && i < 2000; i++ {
		id := fmt.Sprintf("m%d", i)
		if st.IsChanceNode {
			wsSend(t, conn, "roll", id, nil)
		} else {
			require.NotEmpty(t, st.LegalActions)
			wsSend(t, conn, "step", id, ActionRequest{Action: st.LegalActions[0]})
		}
		st = wsReadState(t, conn, id)
	}
	assert.True(t, st.Terminated)
}
