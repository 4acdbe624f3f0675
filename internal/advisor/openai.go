package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/instructor-ai/instructor-go/pkg/instructor"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a checkers player. Pick the best move for the side to move.
Rules: men move diagonally forward one square; kings move diagonally forward or backward;
a capture jumps an adjacent enemy piece onto the empty square beyond; if any capture is
available a capture must be made, and a capturing piece keeps jumping while it can; a man
reaching the far row becomes a king.
Squares are numbered 1-32 from the top-left. Light starts on 1-12 and moves toward 32;
dark starts on 21-32 and moves toward 1. In the position string B is light and W is dark,
K marks a king, and the first letter is the side to move.
Answer with one move copied exactly from the list of legal moves.`

type completeFunc func(ctx context.Context, req openai.ChatCompletionRequest, out interface{}) error

// OpenAI asks a chat model for a move and gets a structured reply back through instructor.
type OpenAI struct {
	model    string
	complete completeFunc
}

type reply struct {
	Move string `json:"move" jsonschema:"title=move,description=The chosen move copied exactly from the list of legal moves."`
}

func NewOpenAI(apiKey, model string) *OpenAI {
	client := instructor.FromOpenAI(
		openai.NewClient(apiKey),
		instructor.WithMode(instructor.ModeJSON),
		instructor.WithMaxRetries(2),
	)
	return newOpenAI(model, func(ctx context.Context, req openai.ChatCompletionRequest, out interface{}) error {
		_, err := client.CreateChatCompletion(ctx, req, out)
		return err
	})
}

func newOpenAI(model string, complete completeFunc) *OpenAI {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAI{model: model, complete: complete}
}

func (a *OpenAI) ChooseMove(ctx context.Context, req Request) (string, error) {
	var out reply
	err := a.complete(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		MaxTokens: 200,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("advisor request: %w", err)
	}

	move, ok := ExtractMove(out.Move)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoMove, out.Move)
	}
	log.Debug().Str("model", a.model).Str("reply", out.Move).Str("move", move).Msg("advisor replied")
	return move, nil
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position: %s\n", req.Position)
	fmt.Fprintf(&b, "Side to move: %s\n", req.Side)
	if req.Movetext != "" {
		fmt.Fprintf(&b, "Game so far: %s\n", req.Movetext)
	}
	fmt.Fprintf(&b, "Legal moves: %s\n", strings.Join(req.LegalMoves, ", "))
	return b.String()
}
