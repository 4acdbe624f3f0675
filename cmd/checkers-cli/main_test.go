package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(out *bytes.Buffer) *session {
	return &session{engine: checkers.NewEngine(), timeout: time.Second, out: out}
}

func TestHotSeat(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	s.run(strings.NewReader("11-15\n22-18\n9-13\nmoves\n15x22\npdn\nquit\n"))

	text := out.String()
	assert.Contains(t, text, `error: notation: no legal move matches: "9-13"`)
	assert.Contains(t, text, "1. 11-15 22-18 2. 15x22")
	assert.Equal(t, 3, s.engine.HistoryLen())
}

func TestDrawBetweenPeople(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	s.run(strings.NewReader("draw\naccept\n"))

	assert.Contains(t, out.String(), "light offers a draw")
	assert.True(t, s.engine.Outcome().IsDraw())
}

func TestAgainstAdvisor(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	s.seat = checkers.Dark
	s.advisor = advisor.Func(func(context.Context, advisor.Request) (string, error) {
		return "I like 24 - 20 here", nil
	})
	s.run(strings.NewReader("11-15\ndraw\nundo\nresign\n"))

	text := out.String()
	assert.Contains(t, text, "advisor plays 24-20")
	assert.Contains(t, text, "draw declined")
	// Undo went back past the advisor's reply to light's first move.
	assert.Zero(t, s.engine.HistoryLen())
	winner, ok := s.engine.Outcome().Winner()
	require.True(t, ok)
	assert.Equal(t, checkers.Dark, winner)
}

func TestAdvisorFallsBackToFirstLegal(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	s.seat = checkers.Light
	s.advisor = advisor.Func(func(context.Context, advisor.Request) (string, error) {
		return "", advisor.ErrNoMove
	})
	s.run(strings.NewReader(""))

	require.Equal(t, 1, s.engine.HistoryLen())
	assert.Equal(t, "9-13", checkers.EncodeMove(s.engine.History()[0]))
}
