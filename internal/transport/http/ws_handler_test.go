package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/attempt"
)

func dialAttemptWS(t *testing.T, serverURL, token, code string) *websocket.Conn {
	t.Helper()
	u := "ws" + serverURL[len("http"):] + "/ws/attempt?token=" + token + "&code=" + code
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) attempt.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev attempt.Event
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestAttemptWSCountdown(t *testing.T) {
	server := newTestServer(t)
	admin := loginAdmin(t, server)
	quiz := createQuiz(t, server, admin, time.Now().Add(time.Minute), 30)
	student := loginStudents(t, server, "U1", "Alice", "U2", "Bob")

	conn := dialAttemptWS(t, server.URL, student, quiz.ID)
	ev := readEvent(t, conn)
	require.Equal(t, attempt.EventCountdown, ev.Type)
	require.Greater(t, ev.SecondsToStart, int64(0))
	require.LessOrEqual(t, ev.SecondsToStart, int64(60))
}

func TestAttemptWSTick(t *testing.T) {
	server := newTestServer(t)
	admin := loginAdmin(t, server)
	quiz := createQuiz(t, server, admin, time.Now().Add(-time.Minute), 30)
	student := loginStudents(t, server, "U1", "Alice", "U2", "Bob")
	doJSON(t, server, http.MethodPost, "/api/attempts/start", student, codeRequest{Code: quiz.ID}, nil)

	conn := dialAttemptWS(t, server.URL, student, quiz.ID)
	ev := readEvent(t, conn)
	require.Equal(t, attempt.EventTick, ev.Type)
	require.Greater(t, ev.RemainingSeconds, int64(0))
}

func TestAttemptWSSubmittedTerminal(t *testing.T) {
	server := newTestServer(t)
	admin := loginAdmin(t, server)
	quiz := createQuiz(t, server, admin, time.Now().Add(-time.Minute), 30)
	student := loginStudents(t, server, "U1", "Alice", "U2", "Bob")
	doJSON(t, server, http.MethodPost, "/api/attempts/start", student, codeRequest{Code: quiz.ID}, nil)
	doJSON(t, server, http.MethodPost, "/api/attempts/submit", student, submitRequest{Confirmed: true}, nil)

	conn := dialAttemptWS(t, server.URL, student, quiz.ID)
	ev := readEvent(t, conn)
	require.Equal(t, attempt.EventSubmitted, ev.Type)

	// Terminal event: the server closes the stream.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestAttemptWSRejectsAnonymous(t *testing.T) {
	server := newTestServer(t)
	admin := loginAdmin(t, server)
	quiz := createQuiz(t, server, admin, time.Now().Add(time.Minute), 30)

	u := "ws" + server.URL[len("http"):] + "/ws/attempt?token=nope&code=" + quiz.ID
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
