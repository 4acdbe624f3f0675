package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/config"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/store"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrNoAdvisor       = errors.New("no advisor configured")
	ErrGameFull        = model.ErrGameFull
	ErrNotInGame       = model.ErrNotInGame
	ErrAdvisorThinking = model.ErrAdvisorThinking
)

// Settings are the defaults new matches start from and how the advisor is driven.
type Settings struct {
	Rules           checkers.Rules
	StartingSide    checkers.Color
	TimeControl     time.Duration
	AdvisorTimeout  time.Duration
	AdvisorFallback string
}

// CreateOptions override Settings for one match. Nil fields take the default.
type CreateOptions struct {
	Rules        *checkers.Rules
	StartingSide *checkers.Color
	AdvisorSeat  *checkers.Color
}

type GameManager struct {
	games            map[string]*model.Match
	queue            *model.Queue
	matchingChannels map[string]chan string
	store            store.Store
	advisor          advisor.Advisor
	settings         Settings
	mu               sync.RWMutex
	advisorWG        sync.WaitGroup
}

// NewGameManager builds a manager. adv may be nil, which disables advisor seats and hints.
func NewGameManager(st store.Store, adv advisor.Advisor, settings Settings) *GameManager {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if settings.AdvisorTimeout <= 0 {
		settings.AdvisorTimeout = 20 * time.Second
	}
	if settings.AdvisorFallback == "" {
		settings.AdvisorFallback = config.FallbackNone
	}
	return &GameManager{
		games:            make(map[string]*model.Match),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		store:            st,
		advisor:          adv,
		settings:         settings,
	}
}

// Run pairs queued players once a second until ctx ends.
func (gm *GameManager) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchPlayers(ctx) {
			}
		}
	}
}

// matchPlayers seats the two longest-waiting players in a new match and tells them. It reports
// whether a pair was made. Only queue and map updates happen under gm.mu.
func (gm *GameManager) matchPlayers(ctx context.Context) bool {
	gm.mu.Lock()
	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		gm.mu.Unlock()
		return false
	}
	match := gm.newMatchLocked(CreateOptions{})
	channels := map[string]chan string{}
	for _, id := range []string{player1.ID, player2.ID} {
		if ch, ok := gm.matchingChannels[id]; ok {
			channels[id] = ch
			delete(gm.matchingChannels, id)
		}
	}
	gm.mu.Unlock()

	p1Color, err := match.AddPlayer(player1.ID, player1.Name)
	if err != nil {
		log.Error().Err(err).Str("playerId", player1.ID).Msg("seat matched player")
		return true
	}
	p2Color, err := match.AddPlayer(player2.ID, player2.Name)
	if err != nil {
		log.Error().Err(err).Str("playerId", player2.ID).Msg("seat matched player")
		return true
	}
	gm.persist(ctx, match)
	log.Info().Str("gameId", match.ID).Str("light", player1.ID).Str("dark", player2.ID).Msg("match found")

	notify := func(playerID string, event model.MatchFoundEvent) {
		ch, ok := channels[playerID]
		if !ok {
			log.Warn().Str("playerId", playerID).Msg("matched player has no matchmaking channel")
			return
		}
		select {
		case ch <- mustJSON(event):
		default:
			log.Warn().Str("playerId", playerID).Msg("matchmaking channel full")
		}
		close(ch)
	}
	notify(player1.ID, model.MatchFoundEvent{GameID: match.ID, Name: match.Name, Color: p1Color})
	notify(player2.ID, model.MatchFoundEvent{GameID: match.ID, Name: match.Name, Color: p2Color})
	return true
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch and takes the player out of the queue. A channel that
// was already replaced or used for a match is left alone.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, exists := gm.matchingChannels[playerID]; exists && current == ch {
		delete(gm.matchingChannels, playerID)
		close(ch)
		gm.queue.Remove(playerID)
	}
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) JoinMatchmaking(player model.Player) error {
	return gm.queue.AddPlayer(player)
}

func (gm *GameManager) QueueSize() int { return gm.queue.Size() }

func (gm *GameManager) CreateGame(ctx context.Context, opts CreateOptions) (*model.Match, error) {
	if opts.AdvisorSeat != nil && gm.advisor == nil {
		return nil, ErrNoAdvisor
	}
	gm.mu.Lock()
	match := gm.newMatchLocked(opts)
	gm.mu.Unlock()

	gm.persist(ctx, match)
	log.Info().Str("gameId", match.ID).Str("name", match.Name).Bool("advisor", opts.AdvisorSeat != nil).Msg("game created")
	return match, nil
}

func (gm *GameManager) newMatchLocked(opts CreateOptions) *model.Match {
	mo := model.MatchOptions{
		Rules:        gm.settings.Rules,
		StartingSide: gm.settings.StartingSide,
		AdvisorSeat:  opts.AdvisorSeat,
		TimeControl:  gm.settings.TimeControl,
	}
	if opts.Rules != nil {
		mo.Rules = *opts.Rules
	}
	if opts.StartingSide != nil {
		mo.StartingSide = *opts.StartingSide
	}
	match := model.NewMatch(uuid.New().String(), petname.Generate(2, "-"), mo)
	gm.games[match.ID] = match
	return match
}

// GetGame returns a live match, restoring it from the store if this process has not seen it.
func (gm *GameManager) GetGame(ctx context.Context, gameID string) (*model.Match, error) {
	gm.mu.RLock()
	match, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		return match, nil
	}

	rec, err := gm.store.Get(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	restored, err := model.RestoreMatch(rec, gm.settings.TimeControl)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	if match, exists := gm.games[gameID]; exists {
		gm.mu.Unlock()
		return match, nil
	}
	gm.games[gameID] = restored
	gm.mu.Unlock()
	log.Info().Str("gameId", gameID).Msg("game restored from store")

	// The advisor may have been left to move when the match was saved.
	gm.scheduleAdvisor(restored)
	return restored, nil
}

func (gm *GameManager) ListGames(ctx context.Context, playerID string, limit int) ([]model.MatchRecord, error) {
	return gm.store.ListByPlayer(ctx, playerID, limit)
}

// Changed persists match and, if it is now the advisor's turn, sets the advisor thinking.
func (gm *GameManager) Changed(ctx context.Context, match *model.Match) {
	gm.persist(ctx, match)
	gm.scheduleAdvisor(match)
}

func (gm *GameManager) persist(ctx context.Context, match *model.Match) {
	if err := gm.store.Save(ctx, match.Record()); err != nil {
		log.Warn().Err(err).Str("gameId", match.ID).Msg("save game")
	}
}

func (gm *GameManager) scheduleAdvisor(match *model.Match) {
	if gm.advisor == nil {
		return
	}
	turn, ok := match.BeginAdvisorTurn()
	if !ok {
		return
	}
	gm.advisorWG.Add(1)
	go func() {
		defer gm.advisorWG.Done()
		gm.runAdvisorTurn(match, turn)
	}()
}

// runAdvisorTurn asks the advisor for a move under the configured deadline. A failed or
// illegal reply leaves the game as it was, unless the fallback policy plays the first legal
// move instead.
func (gm *GameManager) runAdvisorTurn(match *model.Match, turn model.AdvisorTurn) {
	ctx, cancel := context.WithTimeout(context.Background(), gm.settings.AdvisorTimeout)
	defer cancel()

	logger := log.With().Str("gameId", match.ID).Stringer("side", turn.Side).Logger()
	req := advisor.NewRequest(turn.Position, turn.Side, turn.Movetext, turn.Legal)

	text, err := gm.advisor.ChooseMove(ctx, req)
	if err == nil {
		if _, err = match.CompleteAdvisorTurn(text); err == nil {
			gm.persist(context.Background(), match)
			return
		}
		logger.Warn().Err(err).Str("reply", text).Msg("advisor reply rejected")
	} else {
		logger.Warn().Err(err).Msg("advisor failed")
		match.AbortAdvisorTurn()
	}

	if gm.settings.AdvisorFallback != config.FallbackFirst {
		return
	}
	next, ok := match.BeginAdvisorTurn()
	if !ok {
		return
	}
	if len(next.Legal) == 0 {
		match.AbortAdvisorTurn()
		return
	}
	fallback := checkers.EncodeMove(next.Legal[0])
	if _, err := match.CompleteAdvisorTurn(fallback); err != nil {
		logger.Error().Err(err).Str("move", fallback).Msg("fallback move rejected")
		return
	}
	logger.Info().Str("move", fallback).Msg("advisor fallback played")
	gm.persist(context.Background(), match)
}

// WaitAdvisors blocks until no advisor turn is in flight.
func (gm *GameManager) WaitAdvisors() {
	gm.advisorWG.Wait()
}

// Hint asks the advisor what the side to move should play. The game is not changed.
func (gm *GameManager) Hint(ctx context.Context, match *model.Match) (checkers.Move, error) {
	if gm.advisor == nil {
		return checkers.Move{}, ErrNoAdvisor
	}
	snap := match.Snapshot()
	if len(snap.Legal) == 0 {
		return checkers.Move{}, fmt.Errorf("%w: no legal moves", checkers.ErrGameOver)
	}

	ctx, cancel := context.WithTimeout(ctx, gm.settings.AdvisorTimeout)
	defer cancel()
	text, err := gm.advisor.ChooseMove(ctx, advisor.NewRequest(snap.Position, snap.Side, snap.Movetext, snap.Legal))
	if err != nil {
		return checkers.Move{}, err
	}
	return checkers.DecodeMove(text, snap.Legal)
}

func (gm *GameManager) RegisterConnection(ctx context.Context, gameID, playerID string, conn model.Conn) (*model.Match, error) {
	match, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return match, match.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID, playerID string, conn model.Conn) {
	gm.mu.RLock()
	match, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		match.UnregisterConnection(playerID, conn)
	}
}
