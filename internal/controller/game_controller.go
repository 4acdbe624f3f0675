package controller

import (
	"errors"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	// Advisor names the seat the advisor plays, "light" or "dark". Empty means two people.
	Advisor            string `json:"advisor"`
	StartingSide       string `json:"startingSide"`
	MenCaptureBackward *bool  `json:"menCaptureBackward"`
}

func (r createGameRequest) options() (service.CreateOptions, error) {
	var opts service.CreateOptions
	if r.Advisor != "" {
		seat, err := checkers.ParseColor(r.Advisor)
		if err != nil {
			return opts, err
		}
		opts.AdvisorSeat = &seat
	}
	if r.StartingSide != "" {
		side, err := checkers.ParseColor(r.StartingSide)
		if err != nil {
			return opts, err
		}
		opts.StartingSide = &side
	}
	if r.MenCaptureBackward != nil {
		opts.Rules = &checkers.Rules{MenCaptureBackward: *r.MenCaptureBackward}
	}
	return opts, nil
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err.Error())
		}
	}
	opts, err := req.options()
	if err != nil {
		return badRequest(c, err.Error())
	}

	match, color, err := gc.gameService.CreateGame(c.UserContext(), playerFrom(c), opts)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"gameId":  match.ID,
		"name":    match.Name,
		"color":   color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	color, err := gc.gameService.JoinGame(c.UserContext(), c.Params("gameId"), playerFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	state, err := gc.gameService.GetGameState(c.UserContext(), c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}

// ListGames returns the caller's recent games.
func (gc *GameController) ListGames(c *fiber.Ctx) error {
	records, err := gc.gameService.ListGames(c.UserContext(), playerFrom(c).ID, c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"games": records,
	})
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	moves, err := gc.gameService.LegalMoves(c.UserContext(), c.Params("gameId"), c.QueryInt("square", 0))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req model.MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	mv, err := gc.gameService.HandleMove(c.UserContext(), c.Params("gameId"), playerFrom(c).ID, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"move": mv,
	})
}

// transition adapts a service call that only needs the game and the caller.
func (gc *GameController) transition(fn func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID := c.Params("gameId")
		if err := fn(gc.gameService, c, gameID, playerFrom(c).ID); err != nil {
			return fail(c, err)
		}
		state, err := gc.gameService.GetGameState(c.UserContext(), gameID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(state)
	}
}

func (gc *GameController) Undo() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.Undo(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) Resign() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.Resign(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) Reset() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.Reset(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) OfferDraw() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.OfferDraw(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) AcceptDraw() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.AcceptDraw(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) DeclineDraw() fiber.Handler {
	return gc.transition(func(s *service.GameService, c *fiber.Ctx, gameID, playerID string) error {
		return s.DeclineDraw(c.UserContext(), gameID, playerID)
	})
}

func (gc *GameController) Hint(c *fiber.Ctx) error {
	mv, err := gc.gameService.Hint(c.UserContext(), c.Params("gameId"), playerFrom(c).ID)
	if errors.Is(err, checkers.ErrNotation) {
		// The advisor named a move that is not legal here.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"move": mv,
	})
}

func (gc *GameController) PDN(c *fiber.Ctx) error {
	pdn, err := gc.gameService.PDN(c.UserContext(), c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pdn)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "queued",
	})
}
