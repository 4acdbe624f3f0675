package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/config"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.Player{ID: "alice", Name: "alice"}
	bob   = model.Player{ID: "bob", Name: "bob"}
)

func newService(t *testing.T, adv advisor.Advisor, settings Settings) (*GameService, *GameManager) {
	t.Helper()
	gm := NewGameManager(store.NewMemoryStore(), adv, settings)
	return NewGameService(gm), gm
}

// lastLegal plays the last legal move it is offered.
var lastLegal = advisor.Func(func(_ context.Context, req advisor.Request) (string, error) {
	return req.LegalMoves[len(req.LegalMoves)-1], nil
})

var babbling = advisor.Func(func(context.Context, advisor.Request) (string, error) {
	return "13-17", nil
})

func advisorGame(t *testing.T, gs *GameService) string {
	t.Helper()
	dark := checkers.Dark
	match, color, err := gs.CreateGame(context.Background(), alice, CreateOptions{AdvisorSeat: &dark})
	require.NoError(t, err)
	assert.Equal(t, checkers.Light, color)
	return match.ID
}

func TestTwoPlayerGame(t *testing.T) {
	ctx := context.Background()
	gs, _ := newService(t, nil, Settings{})

	match, color, err := gs.CreateGame(ctx, alice, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, checkers.Light, color)
	assert.NotEmpty(t, match.Name)

	color, err = gs.JoinGame(ctx, match.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, checkers.Dark, color)

	_, err = gs.JoinGame(ctx, match.ID, model.Player{ID: "carol"})
	assert.ErrorIs(t, err, ErrGameFull)
	_, err = gs.JoinGame(ctx, "nope", bob)
	assert.ErrorIs(t, err, ErrGameNotFound)

	moves, err := gs.LegalMoves(ctx, match.ID, 9)
	require.NoError(t, err)
	assert.Len(t, moves, 2)

	mv, err := gs.HandleMove(ctx, match.ID, "alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)
	assert.Equal(t, "11-15", mv.Notation)

	require.NoError(t, gs.OfferDraw(ctx, match.ID, "bob"))
	require.NoError(t, gs.DeclineDraw(ctx, match.ID, "alice"))
	require.NoError(t, gs.Resign(ctx, match.ID, "bob"))

	pdn, err := gs.PDN(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. 11-15", pdn.Movetext)
	assert.Equal(t, "2-0", pdn.Result)

	list, err := gs.ListGames(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"11-15"}, list[0].Game.Moves)
	require.NotNil(t, list[0].Game.Verdict)

	_, err = gs.Hint(ctx, match.ID, "alice")
	assert.ErrorIs(t, err, ErrNoAdvisor)
}

func TestAdvisorGameRequiresAdvisor(t *testing.T) {
	gs, _ := newService(t, nil, Settings{})
	dark := checkers.Dark
	_, _, err := gs.CreateGame(context.Background(), alice, CreateOptions{AdvisorSeat: &dark})
	assert.ErrorIs(t, err, ErrNoAdvisor)
}

func TestAdvisorReplies(t *testing.T) {
	ctx := context.Background()
	gs, gm := newService(t, lastLegal, Settings{})
	id := advisorGame(t, gs)

	_, err := gs.HandleMove(ctx, id, "alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)
	gm.WaitAdvisors()

	st, err := gs.GetGameState(ctx, id)
	require.NoError(t, err)
	require.Len(t, st.MoveHistory, 2)
	assert.Equal(t, "24-20", st.MoveHistory[1].Notation)
	assert.Equal(t, checkers.Light, st.ToMove)
	assert.False(t, st.AdvisorThinking)

	// Undo takes back both the advisor's reply and the move before it.
	require.NoError(t, gs.Undo(ctx, id, "alice"))
	st, err = gs.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, st.MoveHistory)
}

func TestAdvisorIllegalReplyLeavesGame(t *testing.T) {
	ctx := context.Background()
	gs, gm := newService(t, babbling, Settings{})
	id := advisorGame(t, gs)

	_, err := gs.HandleMove(ctx, id, "alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)
	gm.WaitAdvisors()

	st, err := gs.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Len(t, st.MoveHistory, 1)
	assert.Equal(t, checkers.Dark, st.ToMove)
	assert.False(t, st.AdvisorThinking)
}

func TestAdvisorFallbackPlaysFirstLegal(t *testing.T) {
	ctx := context.Background()
	gs, gm := newService(t, babbling, Settings{AdvisorFallback: config.FallbackFirst})
	id := advisorGame(t, gs)

	_, err := gs.HandleMove(ctx, id, "alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)
	gm.WaitAdvisors()

	st, err := gs.GetGameState(ctx, id)
	require.NoError(t, err)
	require.Len(t, st.MoveHistory, 2)
	assert.Equal(t, "21-17", st.MoveHistory[1].Notation)
}

func TestAdvisorTimeout(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	slow := advisor.Func(func(ctx context.Context, _ advisor.Request) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	})
	gs, gm := newService(t, slow, Settings{AdvisorTimeout: 20 * time.Millisecond})
	id := advisorGame(t, gs)

	_, err := gs.HandleMove(ctx, id, "alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)

	st, err := gs.GetGameState(ctx, id)
	require.NoError(t, err)
	if st.AdvisorThinking {
		assert.ErrorIs(t, gs.Resign(ctx, id, "alice"), ErrAdvisorThinking)
	}

	gm.WaitAdvisors()
	assert.Equal(t, int32(1), calls.Load())
	st, err = gs.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Len(t, st.MoveHistory, 1)
	assert.False(t, st.AdvisorThinking)
}

func TestHintDoesNotMove(t *testing.T) {
	ctx := context.Background()
	gs, _ := newService(t, lastLegal, Settings{})
	match, _, err := gs.CreateGame(ctx, alice, CreateOptions{})
	require.NoError(t, err)

	hint, err := gs.Hint(ctx, match.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "12-16", hint.Notation)

	_, err = gs.Hint(ctx, match.ID, "carol")
	assert.ErrorIs(t, err, ErrNotInGame)

	_, err = gs.JoinGame(ctx, match.ID, bob)
	require.NoError(t, err)
	_, err = gs.Hint(ctx, match.ID, "bob")
	assert.ErrorIs(t, err, checkers.ErrWrongTurn)

	st, err := gs.GetGameState(ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, st.MoveHistory)
}

func TestMatchmaking(t *testing.T) {
	ctx := context.Background()
	gs, gm := newService(t, nil, Settings{})

	require.NoError(t, gs.JoinMatchmaking(alice))
	assert.ErrorIs(t, gs.JoinMatchmaking(alice), model.ErrAlreadyQueued)
	assert.False(t, gm.matchPlayers(ctx))

	aliceCh := make(chan string, 1)
	bobCh := make(chan string, 1)
	gs.RegisterMatchmakingChannel("alice", aliceCh)
	gs.RegisterMatchmakingChannel("bob", bobCh)
	require.NoError(t, gs.JoinMatchmaking(bob))

	require.True(t, gm.matchPlayers(ctx))
	assert.Zero(t, gm.QueueSize())

	var aliceEvent, bobEvent model.MatchFoundEvent
	require.NoError(t, json.Unmarshal([]byte(<-aliceCh), &aliceEvent))
	require.NoError(t, json.Unmarshal([]byte(<-bobCh), &bobEvent))
	assert.Equal(t, aliceEvent.GameID, bobEvent.GameID)
	assert.Equal(t, checkers.Light, aliceEvent.Color)
	assert.Equal(t, checkers.Dark, bobEvent.Color)

	// Used channels are closed.
	_, open := <-aliceCh
	assert.False(t, open)

	st, err := gs.GetGameState(ctx, aliceEvent.GameID)
	require.NoError(t, err)
	assert.Equal(t, "bob", st.Players.Dark.ID)
}

// slowStore holds the first Save until release is closed.
type slowStore struct {
	store.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) Save(ctx context.Context, rec model.MatchRecord) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.Store.Save(ctx, rec)
}

func TestMatchmakingSavesOutsideTheLock(t *testing.T) {
	ctx := context.Background()
	st := &slowStore{Store: store.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	gm := NewGameManager(st, nil, Settings{})
	require.NoError(t, gm.JoinMatchmaking(alice))
	require.NoError(t, gm.JoinMatchmaking(bob))

	paired := make(chan bool, 1)
	go func() { paired <- gm.matchPlayers(ctx) }()
	<-st.entered

	looked := make(chan error, 1)
	go func() {
		_, err := gm.GetGame(ctx, "missing")
		looked <- err
	}()
	select {
	case err := <-looked:
		assert.ErrorIs(t, err, ErrGameNotFound)
	case <-time.After(time.Second):
		t.Fatal("GetGame blocked while a matched game was being saved")
	}

	close(st.release)
	assert.True(t, <-paired)
}

func TestLeavingMatchmaking(t *testing.T) {
	gs, gm := newService(t, nil, Settings{})
	ch := make(chan string, 1)
	gs.RegisterMatchmakingChannel("alice", ch)
	require.NoError(t, gs.JoinMatchmaking(alice))

	gs.UnregisterMatchmakingChannel("alice", ch)
	assert.Zero(t, gm.QueueSize())
	_, open := <-ch
	assert.False(t, open)
}

func TestGamesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	first := NewGameService(NewGameManager(st, nil, Settings{}))
	match, _, err := first.CreateGame(ctx, alice, CreateOptions{})
	require.NoError(t, err)
	_, err = first.JoinGame(ctx, match.ID, bob)
	require.NoError(t, err)
	_, err = first.HandleMove(ctx, match.ID, "alice", model.MoveRequest{Notation: "9-13"})
	require.NoError(t, err)

	second := NewGameService(NewGameManager(st, nil, Settings{}))
	state, err := second.GetGameState(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, checkers.Dark, state.ToMove)
	assert.Equal(t, match.Name, state.Name)

	_, err = second.HandleMove(ctx, match.ID, "bob", model.MoveRequest{Origin: 22, Path: []int{18}})
	assert.NoError(t, err)
}

func TestRestoredAdvisorMatchResumes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	dark := checkers.Dark
	saved := model.NewMatch("g1", "quiet-lynx", model.MatchOptions{AdvisorSeat: &dark})
	_, err := saved.AddPlayer("alice", "alice")
	require.NoError(t, err)
	_, err = saved.MakeMove("alice", model.MoveRequest{Notation: "11-15"})
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, saved.Record()))

	gm := NewGameManager(st, lastLegal, Settings{})
	gs := NewGameService(gm)
	_, err = gs.GetGameState(ctx, "g1")
	require.NoError(t, err)
	gm.WaitAdvisors()

	state, err := gs.GetGameState(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, state.MoveHistory, 2)
	assert.Equal(t, "24-20", state.MoveHistory[1].Notation)
	assert.Equal(t, checkers.Light, state.ToMove)
}
