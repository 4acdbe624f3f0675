package render

import (
	"strings"
	"testing"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardPlain(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Board(&sb, checkers.NewStandardBoard(), Options{}))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "  |    l     l     l     l |", lines[1])
	assert.Equal(t, "  |13    14    15    16    |", lines[4])
	assert.Equal(t, "  |   17    18    19    20 |", lines[5])
	assert.Equal(t, "  | d     d     d     d    |", lines[8])
}

func TestBoardKingsAndHighlight(t *testing.T) {
	b, _, err := checkers.DecodePosition("B:WK32:BK1")
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Board(&sb, b, Options{Highlight: []int{5}}))
	out := sb.String()
	assert.Contains(t, out, " L ")
	assert.Contains(t, out, " D ")
	assert.NotContains(t, out, "\x1b[")
}

func TestBoardColor(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Board(&sb, checkers.NewStandardBoard(), Options{Color: true}))
	assert.Contains(t, sb.String(), "\x1b[")
}
