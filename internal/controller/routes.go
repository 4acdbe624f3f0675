package controller

import (
	"github.com/benbeisheim/checkers-backend/internal/middleware"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type RouteConfig struct {
	TokenSecret []byte
	// Origins allowed to open websockets. Empty allows any.
	Origins []string
}

// SetupRoutes registers the REST API and the websocket endpoints.
func SetupRoutes(app *fiber.App, gameService *service.GameService, cfg RouteConfig) {
	gameController := NewGameController(gameService)
	playerController := NewPlayerController(gameService, cfg.TokenSecret)
	wsController := NewWebSocketController(gameService)
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.Origins,
	}

	// WebSocket routes
	app.Use("/ws", middleware.EnsurePlayerID(cfg.TokenSecret), middleware.WebSocketUpgrade())
	app.Get("/ws/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))
	app.Get("/ws/game/:gameId", websocket.New(wsController.HandleConnection, wsConfig))

	// REST routes
	app.Post("/api/player", playerController.CreatePlayer)
	api := app.Group("/api", middleware.EnsurePlayerID(cfg.TokenSecret))

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/history", gameController.ListGames)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.LegalMoves)
	gameRoutes.Get("/:gameId/hint", gameController.Hint)
	gameRoutes.Get("/:gameId/pdn", gameController.PDN)
	gameRoutes.Post("/:gameId/move", gameController.MakeMove)
	gameRoutes.Post("/:gameId/undo", gameController.Undo())
	gameRoutes.Post("/:gameId/resign", gameController.Resign())
	gameRoutes.Post("/:gameId/reset", gameController.Reset())
	gameRoutes.Post("/:gameId/draw/offer", gameController.OfferDraw())
	gameRoutes.Post("/:gameId/draw/accept", gameController.AcceptDraw())
	gameRoutes.Post("/:gameId/draw/decline", gameController.DeclineDraw())
}
