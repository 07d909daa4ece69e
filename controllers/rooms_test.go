package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inukaki/dorokei-app-back/routes"
	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopBroadcaster struct{}

func (nopBroadcaster) StatusUpdated(roomID string, snapshot game.StatusSnapshot)  {}
func (nopBroadcaster) TimerTick(roomID string, tick game.TickPayload)             {}
func (nopBroadcaster) PlayerCaptured(roomID, playerID, playerName string)         {}
func (nopBroadcaster) PlayerReleased(roomID, playerID, playerName string)         {}
func (nopBroadcaster) PlayerLeft(roomID, playerID, playerName string)             {}
func (nopBroadcaster) RoomDisbanded(roomID string)                                {}
func (nopBroadcaster) GameTerminated(roomID string, reason game.TerminationReason) {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	st := store.NewMemoryStore()
	authService := auth.New("test-secret", time.Hour)
	orchestrator := game.NewOrchestrator(st, authService, nopBroadcaster{}, nil)

	router := gin.New()
	routes.SetupRoutes(router, orchestrator, authService, st)
	return router
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createRoom(t *testing.T, router *gin.Engine, name, passcode string) map[string]interface{} {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/rooms", "", gin.H{
		"playerName": name,
		"passcode":   passcode,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode(t, w)
}

func joinRoom(t *testing.T, router *gin.Engine, name, passcode string) map[string]interface{} {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/rooms/join", "", gin.H{
		"playerName": name,
		"passcode":   passcode,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)
}

func TestCreateRoomEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := createRoom(t, router, "Alice", "abcdef")
	assert.NotEmpty(t, body["playerToken"])
	assert.NotEmpty(t, body["playerId"])
	assert.NotEmpty(t, body["roomId"])
	assert.Equal(t, "abcdef", body["passcode"])
}

func TestCreateRoomValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/rooms", "", gin.H{"playerName": "Alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRoomDuplicatePasscodeEndpoint(t *testing.T) {
	router := newTestRouter(t)

	createRoom(t, router, "Alice", "abcdef")
	w := doRequest(router, http.MethodPost, "/rooms", "", gin.H{
		"playerName": "Mallory",
		"passcode":   "abcdef",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJoinRoomEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	joined := joinRoom(t, router, "Bob", "abcdef")
	assert.Equal(t, created["roomId"], joined["roomId"])
	assert.NotEmpty(t, joined["playerToken"])

	w := doRequest(router, http.MethodPost, "/rooms/join", "", gin.H{
		"playerName": "Carol",
		"passcode":   "wrong",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	joinRoom(t, router, "Bob", "abcdef")

	w := doRequest(router, http.MethodGet, "/rooms/status", created["playerToken"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	room := body["room"].(map[string]interface{})
	assert.Equal(t, created["roomId"], room["id"])
	assert.Equal(t, "WAITING", room["status"])
	assert.Len(t, body["players"], 2)

	current := body["currentPlayer"].(map[string]interface{})
	assert.Equal(t, created["playerId"], current["playerId"])
	assert.Equal(t, true, current["isHost"])
}

func TestStatusRequiresToken(t *testing.T) {
	router := newTestRouter(t)
	createRoom(t, router, "Alice", "abcdef")

	w := doRequest(router, http.MethodGet, "/rooms/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/rooms/status", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHostOnlyRoutes(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	joined := joinRoom(t, router, "Bob", "abcdef")
	hostToken := created["playerToken"].(string)
	thiefToken := joined["playerToken"].(string)

	w := doRequest(router, http.MethodPost, "/rooms/start", thiefToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, "/rooms/start", hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Starting twice conflicts with the running game.
	w = doRequest(router, http.MethodPost, "/rooms/start", hostToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/rooms/terminate", hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateSettingsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	hostToken := created["playerToken"].(string)

	w := doRequest(router, http.MethodPatch, "/rooms/settings", hostToken, gin.H{
		"durationSeconds": 300,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPatch, "/rooms/settings", hostToken, gin.H{
		"durationSeconds": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaptureAndReleaseEndpoints(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	bob := joinRoom(t, router, "Bob", "abcdef")
	carol := joinRoom(t, router, "Carol", "abcdef")
	hostToken := created["playerToken"].(string)
	bobID := bob["playerId"].(string)

	w := doRequest(router, http.MethodPost, "/rooms/start", hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Thieves cannot capture.
	w = doRequest(router, http.MethodPatch, "/rooms/players/"+bobID+"/capture",
		carol["playerToken"].(string), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPatch, "/rooms/players/"+bobID+"/capture", hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPatch, "/rooms/players/"+bobID+"/capture", hostToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Police cannot release.
	w = doRequest(router, http.MethodPatch, "/rooms/players/"+bobID+"/release", hostToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPatch, "/rooms/players/"+bobID+"/release",
		carol["playerToken"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPatch, "/rooms/players/unknown/capture", hostToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaveAndDisbandEndpoints(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	bob := joinRoom(t, router, "Bob", "abcdef")
	hostToken := created["playerToken"].(string)
	bobToken := bob["playerToken"].(string)

	w := doRequest(router, http.MethodPost, "/rooms/leave", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["isRoomDisbanded"])

	// The token died with the player row.
	w = doRequest(router, http.MethodGet, "/rooms/status", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodDelete, "/rooms", hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/rooms/status", hostToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRoomsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	createRoom(t, router, "Alice", "abcdef")
	createRoom(t, router, "Dave", "zyxwvu")

	w := doRequest(router, http.MethodGet, "/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Len(t, rooms, 2)
}

func TestGetResultEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	joined := joinRoom(t, router, "Bob", "abcdef")
	hostToken := created["playerToken"].(string)

	// Before any game finished: roster only, no reason.
	w := doRequest(router, http.MethodGet, "/rooms/result", hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["reason"])
	assert.Len(t, body["players"], 2)

	doRequest(router, http.MethodPost, "/rooms/start", hostToken, nil)
	doRequest(router, http.MethodPost, "/rooms/terminate", hostToken, nil)

	w = doRequest(router, http.MethodGet, "/rooms/result", hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "TERMINATED_BY_HOST", body["reason"])
	assert.NotEmpty(t, body["finishedAt"])
	assert.Len(t, body["players"], 2)

	// The result also works for non-host players and survives the reset.
	doRequest(router, http.MethodPost, "/rooms/reset", hostToken, nil)
	w = doRequest(router, http.MethodGet, "/rooms/result", joined["playerToken"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TERMINATED_BY_HOST", decode(t, w)["reason"])
}

func TestResetEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := createRoom(t, router, "Alice", "abcdef")
	hostToken := created["playerToken"].(string)

	// Reset before the game finished is rejected.
	w := doRequest(router, http.MethodPost, "/rooms/reset", hostToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	doRequest(router, http.MethodPost, "/rooms/start", hostToken, nil)
	doRequest(router, http.MethodPost, "/rooms/terminate", hostToken, nil)

	w = doRequest(router, http.MethodPost, "/rooms/reset", hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := doRequest(router, http.MethodGet, "/rooms/status", hostToken, nil)
	require.Equal(t, http.StatusOK, body.Code)
	room := decode(t, body)["room"].(map[string]interface{})
	assert.Equal(t, "WAITING", room["status"])
	assert.Nil(t, room["startedAt"])
}
