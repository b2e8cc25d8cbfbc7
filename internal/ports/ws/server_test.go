package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictacchec/internal/app"
	"tictacchec/internal/config"
	"tictacchec/internal/domain"
	"tictacchec/internal/lobby"
	"tictacchec/internal/protocol"
)

const allowedOrigin = "http://allowed.example"

func testConfig() config.GameConfig {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{allowedOrigin}
	return cfg
}

func newTestServer(t *testing.T, cfg config.GameConfig, tokens *app.SessionTokens) (*Server, *httptest.Server) {
	t.Helper()
	if tokens == nil {
		tokens = app.NewSessionTokens("", "", time.Minute)
	}
	s := NewServer(cfg, lobby.NewManager(), tokens, zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readType reads frames until one of type msgType arrives.
func readType(t *testing.T, conn *websocket.Conn, msgType string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == msgType {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func payloadOf[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func TestHealthAndPresence(t *testing.T) {
	_, ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	dial(t, ts, "")
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/presence")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var stats lobby.Stats
		return json.NewDecoder(resp.Body).Decode(&stats) == nil && stats.Connections == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	_, ts := newTestServer(t, testConfig(), nil)

	for origin, want := range map[string]int{
		"https://evil.example": http.StatusForbidden,
		allowedOrigin:          http.StatusOK,
	} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/presence", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, origin)
	}
}

func TestSessionTokens(t *testing.T) {
	tokens := app.NewSessionTokens("test-secret", "tictacchec", time.Minute)
	_, ts := newTestServer(t, testConfig(), tokens)

	resp, err := http.Post(ts.URL+"/api/session", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		Token   string `json:"token"`
		Subject string `json:"subject"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.NotEmpty(t, session.Token)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=forged"
	_, badResp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, badResp.StatusCode)
	var rejection struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(badResp.Body).Decode(&rejection))
	assert.Equal(t, protocol.ReasonInvalidSession, rejection.Error)

	conn := dial(t, ts, "?token="+session.Token)
	presence := readType(t, conn, protocol.TypePresenceCount)
	assert.Equal(t, 1, payloadOf[protocol.PresenceCount](t, presence).N)
}

func TestSessionDisabled(t *testing.T) {
	_, ts := newTestServer(t, testConfig(), nil)
	resp, err := http.Post(ts.URL+"/api/session", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatchOverWebsocket(t *testing.T) {
	_, ts := newTestServer(t, testConfig(), nil)

	c1 := dial(t, ts, "")
	readType(t, c1, protocol.TypePresenceCount)
	send(t, c1, protocol.TypeFindOrJoin, nil)
	created := payloadOf[protocol.RoomCreated](t, readType(t, c1, protocol.TypeRoomCreated))
	assert.Equal(t, "first", created.Side)
	assert.False(t, created.IsFull)

	c2 := dial(t, ts, "")
	send(t, c2, protocol.TypeFindOrJoin, nil)
	for _, c := range []*websocket.Conn{c1, c2} {
		joined := payloadOf[protocol.RoomJoined](t, readType(t, c, protocol.TypeRoomJoined))
		assert.True(t, joined.IsFull)
		assert.Equal(t, created.RoomID, joined.RoomID)
		assert.Equal(t, "first", joined.Game.Turn)
	}

	send(t, c2, protocol.TypeSubmitAction, protocol.SubmitActionOf(domain.Place(domain.Rook, 0)))
	rejected := payloadOf[protocol.Error](t, readType(t, c2, protocol.TypeError))
	assert.Equal(t, protocol.ReasonNotYourTurn, rejected.Reason)

	send(t, c1, protocol.TypeSubmitAction, protocol.SubmitActionOf(domain.Place(domain.Rook, 0)))
	for _, c := range []*websocket.Conn{c1, c2} {
		update := payloadOf[protocol.StateUpdate](t, readType(t, c, protocol.TypeStateUpdate))
		assert.Equal(t, "second", update.Game.Turn)
		require.NotNil(t, update.Game.Board[0][0])
		assert.Equal(t, "rook", update.Game.Board[0][0].Kind)
	}

	require.NoError(t, c1.Close())
	notice := payloadOf[protocol.DisconnectNotice](t, readType(t, c2, protocol.TypeDisconnectNotice))
	assert.Equal(t, string(app.ReasonOpponentDisconnected), notice.Reason)
	final := payloadOf[protocol.StateUpdate](t, readType(t, c2, protocol.TypeStateUpdate))
	assert.Equal(t, "win", final.Game.Result.Status)
	assert.Equal(t, "second", final.Game.Result.Winner)
	presence := payloadOf[protocol.PresenceCount](t, readType(t, c2, protocol.TypePresenceCount))
	assert.Equal(t, 1, presence.N)
}

func TestMalformedMessage(t *testing.T) {
	_, ts := newTestServer(t, testConfig(), nil)
	conn := dial(t, ts, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"find_or_join","extra":1}`)))
	got := payloadOf[protocol.Error](t, readType(t, conn, protocol.TypeError))
	assert.Equal(t, protocol.ReasonMalformed, got.Reason)

	send(t, conn, protocol.TypeLeaveRoom, nil)
	got = payloadOf[protocol.Error](t, readType(t, conn, protocol.TypeError))
	assert.Equal(t, protocol.ReasonRoomNotFound, got.Reason)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MessagesPerSecond = 0.001
	cfg.MessageBurst = 1
	_, ts := newTestServer(t, cfg, nil)
	conn := dial(t, ts, "")

	send(t, conn, protocol.TypeFindOrJoin, nil)
	readType(t, conn, protocol.TypeRoomCreated)
	send(t, conn, protocol.TypeFindOrJoin, nil)
	got := payloadOf[protocol.Error](t, readType(t, conn, protocol.TypeError))
	assert.Equal(t, protocol.ReasonRateLimited, got.Reason)
}
