package controller

import (
	"github.com/benbeisheim/checkers-backend/internal/middleware"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type PlayerController struct {
	gameService *service.GameService
	secret      []byte
}

func NewPlayerController(gameService *service.GameService, secret []byte) *PlayerController {
	return &PlayerController{gameService: gameService, secret: secret}
}

// CreatePlayer hands a new visitor an ID, a display name and, when tokens are enabled, a
// token to present on later requests.
func (pc *PlayerController) CreatePlayer(c *fiber.Ctx) error {
	player := pc.gameService.NewPlayer()
	resp := fiber.Map{
		"id":   player.ID,
		"name": player.Name,
	}
	if len(pc.secret) > 0 {
		token, exp, err := middleware.SignPlayerToken(pc.secret, player, middleware.TokenTTL)
		if err != nil {
			return fail(c, err)
		}
		resp["token"] = token
		resp["expiresAt"] = exp
	}
	return c.JSON(resp)
}

func playerFrom(c *fiber.Ctx) model.Player {
	id, _ := c.Locals("playerID").(string)
	name, _ := c.Locals("playerName").(string)
	if name == "" {
		name = id
	}
	return model.Player{ID: id, Name: name}
}
