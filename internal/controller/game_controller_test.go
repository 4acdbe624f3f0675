package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, secret []byte) *fiber.App {
	t.Helper()
	gm := service.NewGameManager(store.NewMemoryStore(), nil, service.Settings{})
	app := fiber.New()
	SetupRoutes(app, service.NewGameService(gm), RouteConfig{TokenSecret: secret})
	return app
}

// send performs a request as playerID and decodes the JSON reply into out when out is non-nil.
func send(t *testing.T, app *fiber.App, method, path, playerID string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	var created struct {
		GameID string `json:"gameId"`
		Color  string `json:"color"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", "/api/game/create", "alice", nil, &created))
	require.NotEmpty(t, created.GameID)
	assert.Equal(t, "light", created.Color)

	var joined struct {
		Color string `json:"color"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", "/api/game/join/"+created.GameID, "bob", nil, &joined))
	assert.Equal(t, "dark", joined.Color)
	return created.GameID
}

func TestCreatePlayer(t *testing.T) {
	var player map[string]interface{}
	require.Equal(t, fiber.StatusOK, send(t, newApp(t, nil), "POST", "/api/player", "", nil, &player))
	assert.NotEmpty(t, player["id"])
	assert.NotEmpty(t, player["name"])
	assert.NotContains(t, player, "token")

	app := newApp(t, []byte("secret"))
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", "/api/player", "", nil, &player))
	token, _ := player["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest("POST", "/api/game/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Tokens are required once a secret is configured.
	assert.Equal(t, fiber.StatusUnauthorized, send(t, app, "POST", "/api/game/create", "alice", nil, nil))
}

func TestPlayerIDRequired(t *testing.T) {
	assert.Equal(t, fiber.StatusUnauthorized, send(t, newApp(t, nil), "GET", "/api/game/x", "", nil, nil))
}

func TestPlayingOverREST(t *testing.T) {
	app := newApp(t, nil)
	id := createGame(t, app)
	base := "/api/game/" + id

	var moves struct {
		Moves []model.MoveView `json:"moves"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", base+"/moves?square=9", "alice", nil, &moves))
	assert.Len(t, moves.Moves, 2)

	var played struct {
		Move model.MoveView `json:"move"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", base+"/move", "alice", model.MoveRequest{Notation: "11-15"}, &played))
	assert.Equal(t, "11-15", played.Move.Notation)

	var failure struct {
		Error string `json:"error"`
	}
	assert.Equal(t, fiber.StatusUnprocessableEntity,
		send(t, app, "POST", base+"/move", "alice", model.MoveRequest{Notation: "9-13"}, &failure))
	assert.Contains(t, failure.Error, "turn")
	assert.Equal(t, fiber.StatusUnprocessableEntity,
		send(t, app, "POST", base+"/move", "bob", model.MoveRequest{Notation: "22-19"}, nil))
	assert.Equal(t, fiber.StatusForbidden,
		send(t, app, "POST", base+"/move", "carol", model.MoveRequest{Notation: "22-18"}, nil))
	assert.Equal(t, fiber.StatusOK,
		send(t, app, "POST", base+"/move", "bob", model.MoveRequest{Origin: 22, Path: []int{18}}, nil))

	var state model.MatchState
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", base, "carol", nil, &state))
	assert.Equal(t, "1. 11-15 22-18", state.Movetext)
	require.Len(t, state.LegalMoves, 1)
	assert.Equal(t, "15x22", state.LegalMoves[0].Notation)

	require.Equal(t, fiber.StatusOK, send(t, app, "POST", base+"/undo", "alice", nil, &state))
	assert.Len(t, state.MoveHistory, 1)

	var pdn service.PDN
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", base+"/pdn", "alice", nil, &pdn))
	assert.Equal(t, "1. 11-15", pdn.Movetext)
	assert.Equal(t, "*", pdn.Result)
}

func TestDrawOverREST(t *testing.T) {
	app := newApp(t, nil)
	id := createGame(t, app)
	base := "/api/game/" + id

	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", base+"/draw/accept", "bob", nil, nil))
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", base+"/draw/offer", "alice", nil, nil))
	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", base+"/draw/offer", "alice", nil, nil))

	var state model.MatchState
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", base+"/draw/accept", "bob", nil, &state))
	assert.True(t, state.Outcome.IsDraw())

	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", base+"/resign", "bob", nil, nil))

	var pdn service.PDN
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", base+"/pdn", "alice", nil, &pdn))
	assert.Equal(t, "1-1", pdn.Result)

	require.Equal(t, fiber.StatusOK, send(t, app, "POST", base+"/reset", "bob", nil, &state))
	assert.False(t, state.Outcome.Terminal())
}

func TestErrorsOverREST(t *testing.T) {
	app := newApp(t, nil)
	id := createGame(t, app)

	assert.Equal(t, fiber.StatusNotFound, send(t, app, "GET", "/api/game/missing", "alice", nil, nil))
	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", "/api/game/join/"+id, "carol", nil, nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, send(t, app, "GET", "/api/game/"+id+"/hint", "alice", nil, nil))
	assert.Equal(t, fiber.StatusServiceUnavailable,
		send(t, app, "POST", "/api/game/create", "alice", map[string]string{"advisor": "dark"}, nil))
	assert.Equal(t, fiber.StatusBadRequest,
		send(t, app, "POST", "/api/game/create", "alice", map[string]string{"startingSide": "red"}, nil))
	assert.Equal(t, fiber.StatusUnprocessableEntity,
		send(t, app, "POST", "/api/game/"+id+"/move", "alice", model.MoveRequest{}, nil))
	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", "/api/game/"+id+"/undo", "alice", nil, nil))
}

func TestCreateWithOptionsAndHistory(t *testing.T) {
	app := newApp(t, nil)
	var created struct {
		GameID string `json:"gameId"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", "/api/game/create", "alice",
		map[string]interface{}{"startingSide": "dark", "menCaptureBackward": true}, &created))

	var state model.MatchState
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", "/api/game/"+created.GameID, "alice", nil, &state))
	assert.Equal(t, "dark", state.ToMove.String())
	assert.True(t, state.Rules.MenCaptureBackward)

	var history struct {
		Games []model.MatchRecord `json:"games"`
	}
	require.Equal(t, fiber.StatusOK, send(t, app, "GET", "/api/game/history", "alice", nil, &history))
	require.Len(t, history.Games, 1)
	assert.Equal(t, created.GameID, history.Games[0].ID)
}

func TestMatchmakingJoin(t *testing.T) {
	app := newApp(t, nil)
	require.Equal(t, fiber.StatusOK, send(t, app, "POST", "/api/game/matchmaking/join", "alice", nil, nil))
	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", "/api/game/matchmaking/join", "alice", nil, nil))
}
