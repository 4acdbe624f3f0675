package service

import (
	"context"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/model"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

// PDN is a game written out for export or for pasting into other checkers software.
type PDN struct {
	Position string `json:"position"`
	Movetext string `json:"movetext"`
	Result   string `json:"result"`
}

// NewPlayer makes up an identity for a new visitor.
func (gs *GameService) NewPlayer() model.Player {
	return model.Player{ID: uuid.New().String(), Name: petname.Generate(2, " ")}
}

// CreateGame opens a match and seats its creator.
func (gs *GameService) CreateGame(ctx context.Context, creator model.Player, opts CreateOptions) (*model.Match, checkers.Color, error) {
	match, err := gs.gameManager.CreateGame(ctx, opts)
	if err != nil {
		return nil, checkers.Light, err
	}
	color, err := match.AddPlayer(creator.ID, creator.Name)
	if err != nil {
		return nil, checkers.Light, err
	}
	gs.gameManager.Changed(ctx, match)
	return match, color, nil
}

func (gs *GameService) JoinGame(ctx context.Context, gameID string, player model.Player) (checkers.Color, error) {
	match, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return checkers.Light, err
	}
	color, err := match.AddPlayer(player.ID, player.Name)
	if err != nil {
		return checkers.Light, err
	}
	gs.gameManager.Changed(ctx, match)
	return color, nil
}

func (gs *GameService) JoinMatchmaking(player model.Player) error {
	return gs.gameManager.JoinMatchmaking(player)
}

func (gs *GameService) GetGameState(ctx context.Context, gameID string) (model.MatchState, error) {
	match, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return model.MatchState{}, err
	}
	return match.GetState(), nil
}

func (gs *GameService) ListGames(ctx context.Context, playerID string, limit int) ([]model.MatchRecord, error) {
	return gs.gameManager.ListGames(ctx, playerID, limit)
}

// LegalMoves lists the legal moves, only those from square when it is non-zero.
func (gs *GameService) LegalMoves(ctx context.Context, gameID string, square int) ([]model.MoveView, error) {
	match, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	moves, err := match.LegalMovesFrom(square)
	if err != nil {
		return nil, err
	}
	return model.NewMoveViews(moves), nil
}

func (gs *GameService) HandleMove(ctx context.Context, gameID, playerID string, req model.MoveRequest) (model.MoveView, error) {
	var applied checkers.Move
	err := gs.act(ctx, gameID, func(match *model.Match) error {
		var err error
		applied, err = match.MakeMove(playerID, req)
		return err
	})
	if err != nil {
		return model.MoveView{}, err
	}
	return model.NewMoveView(applied), nil
}

func (gs *GameService) Undo(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.Undo(playerID) })
}

func (gs *GameService) Resign(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.Resign(playerID) })
}

func (gs *GameService) OfferDraw(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.OfferDraw(playerID) })
}

func (gs *GameService) AcceptDraw(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.AcceptDraw(playerID) })
}

func (gs *GameService) DeclineDraw(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.DeclineDraw(playerID) })
}

func (gs *GameService) Reset(ctx context.Context, gameID, playerID string) error {
	return gs.act(ctx, gameID, func(match *model.Match) error { return match.Reset(playerID) })
}

func (gs *GameService) act(ctx context.Context, gameID string, fn func(*model.Match) error) error {
	match, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if err := fn(match); err != nil {
		return err
	}
	gs.gameManager.Changed(ctx, match)
	return nil
}

// Hint asks the advisor for a move for playerID's side. It is only a suggestion, and only
// offered on playerID's turn.
func (gs *GameService) Hint(ctx context.Context, gameID, playerID string) (model.MoveView, error) {
	match, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return model.MoveView{}, err
	}
	color, err := match.ColorOf(playerID)
	if err != nil {
		return model.MoveView{}, err
	}
	if match.SideToMove() != color {
		return model.MoveView{}, checkers.ErrWrongTurn
	}
	mv, err := gs.gameManager.Hint(ctx, match)
	if err != nil {
		return model.MoveView{}, err
	}
	return model.NewMoveView(mv), nil
}

func (gs *GameService) PDN(ctx context.Context, gameID string) (PDN, error) {
	state, err := gs.GetGameState(ctx, gameID)
	if err != nil {
		return PDN{}, err
	}
	return PDN{Position: state.Position, Movetext: state.Movetext, Result: pdnResult(state.Outcome)}, nil
}

// pdnResult is the PDN game termination marker. Light is PDN black, and black is listed first.
func pdnResult(o checkers.Outcome) string {
	if o.IsDraw() {
		return "1-1"
	}
	winner, ok := o.Winner()
	switch {
	case !ok:
		return "*"
	case winner == checkers.Light:
		return "2-0"
	default:
		return "0-2"
	}
}

func (gs *GameService) RegisterConnection(ctx context.Context, gameID, playerID string, conn model.Conn) (*model.Match, error) {
	return gs.gameManager.RegisterConnection(ctx, gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
