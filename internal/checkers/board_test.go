package checkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sq returns the square with standard number n.
func sq(t *testing.T, n int) Square {
	t.Helper()
	s, ok := SquareFromNumber(n)
	require.True(t, ok, "square %d", n)
	return s
}

// position builds a board from PDN FEN.
func position(t *testing.T, fen string) (Board, Color) {
	t.Helper()
	b, side, err := DecodePosition(fen)
	require.NoError(t, err)
	return b, side
}

func TestSquareNumbering(t *testing.T) {
	seen := map[Square]bool{}
	for n := 1; n <= NumSquares; n++ {
		s := sq(t, n)
		assert.True(t, s.Playable(), "square %d at %+v", n, s)
		assert.Equal(t, n, s.Number())
		seen[s] = true
	}
	assert.Len(t, seen, NumSquares)

	assert.Equal(t, Square{Row: 0, Col: 1}, sq(t, 1))
	assert.Equal(t, Square{Row: 2, Col: 1}, sq(t, 9))
	assert.Equal(t, Square{Row: 7, Col: 6}, sq(t, 32))

	_, ok := SquareFromNumber(0)
	assert.False(t, ok)
	_, ok = SquareFromNumber(33)
	assert.False(t, ok)
	assert.Zero(t, Square{Row: 0, Col: 0}.Number())
}

func TestStandardBoard(t *testing.T) {
	b := NewStandardBoard()
	assert.Equal(t, 12, b.Count(Light))
	assert.Equal(t, 12, b.Count(Dark))

	p, ok := b.Get(sq(t, 9))
	require.True(t, ok)
	assert.Equal(t, Piece{Color: Light, Rank: Man}, p)

	_, ok = b.Get(sq(t, 13))
	assert.False(t, ok)
	assert.Equal(t, "llllllllllll........dddddddddddd", b.Signature())
}

func TestBoardContainerOps(t *testing.T) {
	var b Board
	k := Piece{Color: Dark, Rank: King}

	b.Place(sq(t, 18), k)
	b.Move(sq(t, 18), sq(t, 23))
	_, ok := b.Get(sq(t, 18))
	assert.False(t, ok)
	got, ok := b.Get(sq(t, 23))
	require.True(t, ok)
	assert.Equal(t, k, got)

	b.Remove(sq(t, 23))
	assert.Zero(t, b.Count(Dark))

	// Unplayable cells are ignored.
	b.Place(Square{Row: 0, Col: 0}, k)
	_, ok = b.Get(Square{Row: 0, Col: 0})
	assert.False(t, ok)
	assert.Zero(t, b.Count(Dark))
}

func TestBoardIsValueType(t *testing.T) {
	a := NewStandardBoard()
	b := a
	b.Remove(sq(t, 9))

	_, ok := a.Get(sq(t, 9))
	assert.True(t, ok)
	assert.NotEqual(t, a.Signature(), b.Signature())
}

func TestColorText(t *testing.T) {
	c, err := ParseColor("Dark")
	require.NoError(t, err)
	assert.Equal(t, Dark, c)
	assert.Equal(t, Light, Dark.Opponent())

	_, err = ParseColor("red")
	assert.Error(t, err)

	var parsed Color
	require.NoError(t, parsed.UnmarshalText([]byte("light")))
	assert.Equal(t, Light, parsed)
}

func TestBoardReadsOnValues(t *testing.T) {
	assert.Equal(t, 12, NewStandardBoard().Count(Dark))
	assert.Len(t, NewStandardBoard().Squares(Light), 12)
	assert.Equal(t, "llllllllllll........dddddddddddd", NewStandardBoard().Signature())
	_, ok := NewStandardBoard().Get(sq(t, 21))
	assert.True(t, ok)
}
