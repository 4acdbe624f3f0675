// Package advisor asks an outside move chooser, usually a language model, for a move. Replies are
// plain text; callers decode them against the legal moves before touching a game.
package advisor

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

var ErrNoMove = errors.New("advisor reply contains no move")

// Request describes the position the advisor must move in.
type Request struct {
	Position   string         // PDN FEN
	Side       checkers.Color // side to move
	Movetext   string         // game so far
	LegalMoves []string       // every legal move in notation
}

// NewRequest describes a position for the advisor.
func NewRequest(position string, side checkers.Color, movetext string, legal []checkers.Move) Request {
	r := Request{Position: position, Side: side, Movetext: movetext, LegalMoves: make([]string, 0, len(legal))}
	for _, m := range legal {
		r.LegalMoves = append(r.LegalMoves, checkers.EncodeMove(m))
	}
	return r
}

type Advisor interface {
	// ChooseMove returns move text such as "11-15" or "9x18x27".
	ChooseMove(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Advisor.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) ChooseMove(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// FirstLegal always picks the first legal move. It stands in when no model is configured.
var FirstLegal = Func(func(_ context.Context, req Request) (string, error) {
	if len(req.LegalMoves) == 0 {
		return "", ErrNoMove
	}
	return req.LegalMoves[0], nil
})

var movePattern = regexp.MustCompile(`\d{1,2}(?:\s*[-x]\s*\d{1,2})+`)

// ExtractMove pulls the first move-shaped token out of free text, dropping any spaces inside it.
func ExtractMove(text string) (string, bool) {
	found := movePattern.FindString(text)
	if found == "" {
		return "", false
	}
	return strings.Join(strings.Fields(found), ""), true
}
