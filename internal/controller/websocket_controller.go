package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

var errUnknownMessage = errors.New("unknown message type")

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection serves one client of a game: commands in, state and errors out.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("playerID").(string)
	logger := log.With().Str("gameId", gameID).Str("playerId", playerID).Logger()
	ctx := context.Background()

	match, err := wsc.gameService.RegisterConnection(ctx, gameID, playerID, c)
	if err != nil {
		logger.Warn().Err(err).Msg("register connection")
		c.WriteJSON(ws.NewError(err.Error()))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug().Err(err).Msg("connection closed")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			match.Send(c, ws.NewError("malformed message"))
			continue
		}
		if err := wsc.handleMessage(ctx, gameID, playerID, msg); err != nil {
			logger.Debug().Err(err).Str("type", string(msg.Type)).Msg("message rejected")
			match.Send(c, ws.NewError(err.Error()))
		}
	}
}

func (wsc *WebSocketController) handleMessage(ctx context.Context, gameID, playerID string, msg ws.Message) error {
	gs := wsc.gameService
	switch msg.Type {
	case ws.MessageTypeMove:
		var req model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("%w: %v", model.ErrBadMoveRequest, err)
		}
		_, err := gs.HandleMove(ctx, gameID, playerID, req)
		return err
	case ws.MessageTypeUndo:
		return gs.Undo(ctx, gameID, playerID)
	case ws.MessageTypeResign:
		return gs.Resign(ctx, gameID, playerID)
	case ws.MessageTypeDrawOffer:
		return gs.OfferDraw(ctx, gameID, playerID)
	case ws.MessageTypeDrawAccept:
		return gs.AcceptDraw(ctx, gameID, playerID)
	case ws.MessageTypeDrawDecline:
		return gs.DeclineDraw(ctx, gameID, playerID)
	case ws.MessageTypeReset:
		return gs.Reset(ctx, gameID, playerID)
	}
	return fmt.Errorf("%w: %s", errUnknownMessage, msg.Type)
}

// HandleMatchmaking queues the player and holds the connection open until a match is found
// or the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	player := model.Player{}
	player.ID, _ = c.Locals("playerID").(string)
	player.Name, _ = c.Locals("playerName").(string)
	logger := log.With().Str("playerId", player.ID).Logger()

	events := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(player.ID, events)
	defer wsc.gameService.UnregisterMatchmakingChannel(player.ID, events)

	if err := wsc.gameService.JoinMatchmaking(player); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		logger.Warn().Err(err).Msg("join matchmaking")
		c.WriteJSON(ws.NewError(err.Error()))
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-events:
		if !ok {
			// Replaced by a newer connection from the same player.
			return
		}
		if err := c.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			logger.Warn().Err(err).Msg("send match found")
		}
	case <-gone:
		logger.Debug().Msg("left matchmaking")
	}
}
