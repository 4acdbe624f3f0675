package model

import (
	"errors"
	"fmt"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

var ErrBadMoveRequest = errors.New("bad move request")

// MoveRequest is a move as clients send it: either square numbers or notation text.
type MoveRequest struct {
	Origin   int    `json:"origin,omitempty"`
	Path     []int  `json:"path,omitempty"`
	Notation string `json:"notation,omitempty"`
}

// Resolve turns the request into an engine move. Notation is decoded against legal; square
// numbers are passed through as-is so the engine can say why a route is illegal.
func (r MoveRequest) Resolve(legal []checkers.Move) (checkers.Move, error) {
	if r.Notation != "" {
		return checkers.DecodeMove(r.Notation, legal)
	}
	if len(r.Path) == 0 {
		return checkers.Move{}, fmt.Errorf("%w: notation or origin and path required", ErrBadMoveRequest)
	}
	origin, ok := checkers.SquareFromNumber(r.Origin)
	if !ok {
		return checkers.Move{}, fmt.Errorf("%w: no square %d", ErrBadMoveRequest, r.Origin)
	}
	m := checkers.Move{Origin: origin, Path: make([]checkers.Square, 0, len(r.Path))}
	for _, n := range r.Path {
		s, ok := checkers.SquareFromNumber(n)
		if !ok {
			return checkers.Move{}, fmt.Errorf("%w: no square %d", ErrBadMoveRequest, n)
		}
		m.Path = append(m.Path, s)
	}
	return m, nil
}

// MoveView is the client-facing form of a move, using square numbers.
type MoveView struct {
	Notation string `json:"notation"`
	Origin   int    `json:"origin"`
	Path     []int  `json:"path"`
	Captured []int  `json:"captured,omitempty"`
	Promotes bool   `json:"promotes,omitempty"`
}

func NewMoveView(m checkers.Move) MoveView {
	v := MoveView{
		Notation: checkers.EncodeMove(m),
		Origin:   m.Origin.Number(),
		Path:     numbers(m.Path),
		Promotes: m.Promotes,
	}
	if m.IsCapture() {
		v.Captured = numbers(m.Captured)
	}
	return v
}

func NewMoveViews(moves []checkers.Move) []MoveView {
	out := make([]MoveView, 0, len(moves))
	for _, m := range moves {
		out = append(out, NewMoveView(m))
	}
	return out
}

func numbers(squares []checkers.Square) []int {
	out := make([]int, len(squares))
	for i, s := range squares {
		out[i] = s.Number()
	}
	return out
}

// PieceView places one piece for the client.
type PieceView struct {
	Square int            `json:"square"`
	Row    int            `json:"row"`
	Col    int            `json:"col"`
	Color  checkers.Color `json:"color"`
	Rank   checkers.Rank  `json:"rank"`
}

func NewBoardView(b checkers.Board) []PieceView {
	out := make([]PieceView, 0, 24)
	for n := 1; n <= checkers.NumSquares; n++ {
		s, _ := checkers.SquareFromNumber(n)
		p, ok := b.Get(s)
		if !ok {
			continue
		}
		out = append(out, PieceView{Square: n, Row: s.Row, Col: s.Col, Color: p.Color, Rank: p.Rank})
	}
	return out
}
