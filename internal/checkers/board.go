package checkers

import (
	"fmt"
	"strings"
)

const (
	BoardSize  = 8
	NumSquares = 32
)

type Color uint8

const (
	Light Color = iota
	Dark
)

func (c Color) Opponent() Color {
	if c == Light {
		return Dark
	}
	return Light
}

func (c Color) String() string {
	switch c {
	case Light:
		return "light"
	case Dark:
		return "dark"
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

func (c Color) Valid() bool { return c == Light || c == Dark }

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "light"/"dark" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("unknown color %q", s)
}

// forward is the row delta a man of color c moves by.
func (c Color) forward() int {
	if c == Light {
		return 1
	}
	return -1
}

// crownRow is the far row where a man of color c promotes.
func (c Color) crownRow() int {
	if c == Light {
		return BoardSize - 1
	}
	return 0
}

type Rank uint8

const (
	Man Rank = iota
	King
)

func (r Rank) String() string {
	if r == King {
		return "king"
	}
	return "man"
}

func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rank) UnmarshalText(b []byte) error {
	switch string(b) {
	case "man":
		*r = Man
	case "king":
		*r = King
	default:
		return fmt.Errorf("unknown rank %q", b)
	}
	return nil
}

type Piece struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
}

// Square is a cell of the 8x8 grid. Only cells with odd Row+Col are playable.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) OnBoard() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

func (s Square) Playable() bool {
	return s.OnBoard() && (s.Row+s.Col)%2 == 1
}

// Number returns the standard 1-32 square number, or 0 for unplayable cells.
func (s Square) Number() int {
	if !s.Playable() {
		return 0
	}
	return s.Row*4 + s.Col/2 + 1
}

// SquareFromNumber is the inverse of Number.
func SquareFromNumber(n int) (Square, bool) {
	if n < 1 || n > NumSquares {
		return Square{}, false
	}
	row := (n - 1) / 4
	col := 2 * ((n - 1) % 4)
	if row%2 == 0 {
		col++
	}
	return Square{Row: row, Col: col}, true
}

func (s Square) String() string {
	if n := s.Number(); n != 0 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

func (s Square) offset(d direction, steps int) Square {
	return Square{Row: s.Row + d.dr*steps, Col: s.Col + d.dc*steps}
}

type slot struct {
	piece    Piece
	occupied bool
}

// Board is a plain container of pieces on the 32 playable squares. It applies no
// rules. Board is a value type: assigning it copies the whole position.
type Board struct {
	slots [NumSquares]slot
}

func NewStandardBoard() Board {
	var b Board
	for n := 1; n <= 12; n++ {
		sq, _ := SquareFromNumber(n)
		b.Place(sq, Piece{Color: Light, Rank: Man})
	}
	for n := 21; n <= NumSquares; n++ {
		sq, _ := SquareFromNumber(n)
		b.Place(sq, Piece{Color: Dark, Rank: Man})
	}
	return b
}

func (b Board) Get(sq Square) (Piece, bool) {
	n := sq.Number()
	if n == 0 {
		return Piece{}, false
	}
	s := b.slots[n-1]
	return s.piece, s.occupied
}

func (b *Board) Place(sq Square, p Piece) {
	if n := sq.Number(); n != 0 {
		b.slots[n-1] = slot{piece: p, occupied: true}
	}
}

func (b *Board) Remove(sq Square) {
	if n := sq.Number(); n != 0 {
		b.slots[n-1] = slot{}
	}
}

// Move relocates whatever stands on from to to. An empty from clears to.
func (b *Board) Move(from, to Square) {
	p, ok := b.Get(from)
	b.Remove(from)
	if ok {
		b.Place(to, p)
	} else {
		b.Remove(to)
	}
}

func (b Board) Count(c Color) int {
	count := 0
	for _, s := range b.slots {
		if s.occupied && s.piece.Color == c {
			count++
		}
	}
	return count
}

// Squares lists the squares holding c's pieces in square-number order.
func (b Board) Squares(c Color) []Square {
	var out []Square
	for i, s := range b.slots {
		if s.occupied && s.piece.Color == c {
			sq, _ := SquareFromNumber(i + 1)
			out = append(out, sq)
		}
	}
	return out
}

// Signature encodes occupancy as one character per square: l/L for Light man/king,
// d/D for Dark, '.' for empty.
func (b Board) Signature() string {
	var sb strings.Builder
	sb.Grow(NumSquares)
	for _, s := range b.slots {
		switch {
		case !s.occupied:
			sb.WriteByte('.')
		case s.piece.Color == Light && s.piece.Rank == King:
			sb.WriteByte('L')
		case s.piece.Color == Light:
			sb.WriteByte('l')
		case s.piece.Rank == King:
			sb.WriteByte('D')
		default:
			sb.WriteByte('d')
		}
	}
	return sb.String()
}
