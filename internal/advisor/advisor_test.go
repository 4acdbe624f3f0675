package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMove(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"11-15", "11-15", true},
		{"I'd play 22 - 18 here.", "22-18", true},
		{"9x18x27 wins a piece", "9x18x27", true},
		{"move: 9 x 18", "9x18", true},
		{"no idea", "", false},
		{"", "", false},
		{"square 14", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractMove(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestNewRequest(t *testing.T) {
	e := checkers.NewEngine()
	st := e.State()
	req := NewRequest(checkers.EncodePosition(st), st.SideToMove, "", e.LegalMoves())

	assert.Equal(t, checkers.Light, req.Side)
	assert.Len(t, req.LegalMoves, 7)
	assert.Contains(t, req.LegalMoves, "11-15")
}

func TestFirstLegal(t *testing.T) {
	move, err := FirstLegal.ChooseMove(context.Background(), Request{LegalMoves: []string{"9-13", "9-14"}})
	require.NoError(t, err)
	assert.Equal(t, "9-13", move)

	_, err = FirstLegal.ChooseMove(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoMove)
}

func TestOpenAIChooseMove(t *testing.T) {
	var sent openai.ChatCompletionRequest
	a := newOpenAI("", func(_ context.Context, req openai.ChatCompletionRequest, out interface{}) error {
		sent = req
		out.(*reply).Move = "Best is 11 - 15"
		return nil
	})

	move, err := a.ChooseMove(context.Background(), Request{
		Position:   "B:W21,22:B11",
		Side:       checkers.Light,
		Movetext:   "1. 9-13 22-18",
		LegalMoves: []string{"11-15", "11-16"},
	})
	require.NoError(t, err)
	assert.Equal(t, "11-15", move)

	assert.Equal(t, openai.GPT4o, sent.Model)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, sent.Messages[0].Role)
	user := sent.Messages[1].Content
	assert.Contains(t, user, "B:W21,22:B11")
	assert.Contains(t, user, "Side to move: light")
	assert.Contains(t, user, "1. 9-13 22-18")
	assert.Contains(t, user, "11-15, 11-16")
}

func TestOpenAIErrors(t *testing.T) {
	garbled := newOpenAI("gpt-4o-mini", func(_ context.Context, _ openai.ChatCompletionRequest, out interface{}) error {
		out.(*reply).Move = "resign"
		return nil
	})
	_, err := garbled.ChooseMove(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoMove)

	transport := errors.New("connection reset")
	broken := newOpenAI("", func(context.Context, openai.ChatCompletionRequest, interface{}) error {
		return transport
	})
	_, err = broken.ChooseMove(context.Background(), Request{})
	assert.ErrorIs(t, err, transport)
}

func TestOpenAIHonorsDeadline(t *testing.T) {
	slow := newOpenAI("", func(ctx context.Context, _ openai.ChatCompletionRequest, _ interface{}) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := slow.ChooseMove(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
