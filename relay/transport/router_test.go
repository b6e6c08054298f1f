package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/relay/directory"
	"github.com/soundbus/audio-relay/relay/session"
)

func newTestRouter(t *testing.T) (*Router, *session.State, *directory.Memory) {
	sess := session.NewState()
	dir := directory.NewMemory()
	return NewRouter(sess, dir, log.NewNop()), sess, dir
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSession(t *testing.T) {
	router, sess, _ := newTestRouter(t)

	sess.Begin("spk", false, []string{"room-1"})

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/session", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.SpeakerPresent)
	assert.False(t, view.All)
	assert.Equal(t, []string{"room-1"}, view.Rooms)
}

func TestGetRoom(t *testing.T) {
	router, _, dir := newTestRouter(t)

	require.NoError(t, dir.Join(context.Background(), "p1", "room-1"))

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms/room-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Room  string   `json:"room"`
		Peers []string `json:"peers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "room-1", body.Room)
	assert.Equal(t, []string{"p1"}, body.Peers)
}

func TestGetRoomEmpty(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms/nowhere", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Peers []string `json:"peers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body.Peers)
	assert.Empty(t, body.Peers)
}

func TestUnknownRouteIs404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
