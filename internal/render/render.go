// Package render draws a checkers board as text for terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/fatih/color"
)

type Options struct {
	// Color turns on ANSI colors.
	Color bool
	// Highlight marks squares, such as the origins or landings of legal moves.
	Highlight []int
}

type palette struct {
	light, dark, empty, mark *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		light: color.New(color.FgHiWhite, color.Bold),
		dark:  color.New(color.FgRed, color.Bold),
		empty: color.New(color.FgHiBlack),
		mark:  color.New(color.FgYellow, color.Bold),
	}
	for _, c := range []*color.Color{p.light, p.dark, p.empty, p.mark} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Board writes b with row 0 (squares 1-4) at the top. Empty playable squares show their
// number; pieces show as l/L for light and d/D for dark, capitals for kings.
func Board(w io.Writer, b checkers.Board, opts Options) error {
	p := newPalette(opts.Color)
	marked := make(map[int]bool, len(opts.Highlight))
	for _, n := range opts.Highlight {
		marked[n] = true
	}

	var sb strings.Builder
	border := "  +" + strings.Repeat("---", checkers.BoardSize) + "+\n"
	sb.WriteString(border)
	for row := 0; row < checkers.BoardSize; row++ {
		sb.WriteString("  |")
		for col := 0; col < checkers.BoardSize; col++ {
			sq := checkers.Square{Row: row, Col: col}
			if !sq.Playable() {
				sb.WriteString("   ")
				continue
			}
			sb.WriteString(cell(p, b, sq, marked[sq.Number()]))
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)

	_, err := io.WriteString(w, sb.String())
	return err
}

func cell(p palette, b checkers.Board, sq checkers.Square, marked bool) string {
	piece, ok := b.Get(sq)
	if !ok {
		text := fmt.Sprintf("%2d ", sq.Number())
		if marked {
			return p.mark.Sprint(text)
		}
		return p.empty.Sprint(text)
	}

	glyph := "l"
	c := p.light
	if piece.Color == checkers.Dark {
		glyph, c = "d", p.dark
	}
	if piece.Rank == checkers.King {
		glyph = strings.ToUpper(glyph)
	}
	if marked {
		return p.mark.Sprint(" " + glyph + " ")
	}
	return c.Sprint(" " + glyph + " ")
}
