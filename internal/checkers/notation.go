package checkers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PDN names the side that starts on squares 1-12 "B" and the other "W".
const (
	pdnLight = "B"
	pdnDark  = "W"
)

func pdnSide(c Color) string {
	if c == Light {
		return pdnLight
	}
	return pdnDark
}

// EncodePosition renders the board and side to move as a PDN FEN string, e.g.
// "B:W21,22,K30:B1,2,K9".
func EncodePosition(st GameState) string {
	return encodeFEN(st.Board, st.SideToMove)
}

func encodeFEN(b Board, side Color) string {
	list := func(c Color) string {
		var items []string
		for _, sq := range b.Squares(c) {
			p, _ := b.Get(sq)
			item := strconv.Itoa(sq.Number())
			if p.Rank == King {
				item = "K" + item
			}
			items = append(items, item)
		}
		return strings.Join(items, ",")
	}
	return fmt.Sprintf("%s:%s%s:%s%s", pdnSide(side), pdnDark, list(Dark), pdnLight, list(Light))
}

var fenTag = regexp.MustCompile(`^\[FEN\s+"(.*)"\]$`)

// DecodePosition parses a PDN FEN string, with or without the [FEN "..."] tag.
// Piece lists may use ranges such as "1-12".
func DecodePosition(text string) (Board, Color, error) {
	var b Board
	text = strings.TrimSpace(text)
	if m := fenTag.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSuffix(text, ".")

	fields := strings.Split(text, ":")
	if len(fields) != 3 {
		return b, Light, fmt.Errorf("fen %q: want 3 fields, got %d", text, len(fields))
	}

	var side Color
	switch strings.ToUpper(strings.TrimSpace(fields[0])) {
	case pdnLight:
		side = Light
	case pdnDark:
		side = Dark
	default:
		return b, Light, fmt.Errorf("fen %q: unknown side %q", text, fields[0])
	}

	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		if f == "" {
			return b, Light, fmt.Errorf("fen %q: empty piece list", text)
		}
		var c Color
		switch strings.ToUpper(f[:1]) {
		case pdnLight:
			c = Light
		case pdnDark:
			c = Dark
		default:
			return b, Light, fmt.Errorf("fen %q: unknown color %q", text, f[:1])
		}
		if err := placeFENList(&b, c, f[1:]); err != nil {
			return b, Light, fmt.Errorf("fen %q: %w", text, err)
		}
	}
	return b, side, nil
}

func placeFENList(b *Board, c Color, list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		rank := Man
		if strings.HasPrefix(strings.ToUpper(item), "K") {
			rank = King
			item = item[1:]
		}
		lo, hi := item, item
		if i := strings.Index(item, "-"); i > 0 {
			lo, hi = item[:i], item[i+1:]
		}
		from, err1 := strconv.Atoi(lo)
		to, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || from > to {
			return fmt.Errorf("bad square %q", item)
		}
		for n := from; n <= to; n++ {
			sq, ok := SquareFromNumber(n)
			if !ok {
				return fmt.Errorf("square %d out of range", n)
			}
			b.Place(sq, Piece{Color: c, Rank: rank})
		}
	}
	return nil
}

// EncodeMove writes "9-13" for a step and "9x18x27" for a capture chain, listing
// every landing square.
func EncodeMove(m Move) string {
	sep := "-"
	if m.IsCapture() {
		sep = "x"
	}
	parts := make([]string, 0, len(m.Path)+1)
	parts = append(parts, strconv.Itoa(m.Origin.Number()))
	for _, sq := range m.Path {
		parts = append(parts, strconv.Itoa(sq.Number()))
	}
	return strings.Join(parts, sep)
}

var moveText = regexp.MustCompile(`^\d{1,2}(?:-\d{1,2}|(?:x\d{1,2})+)$`)

// DecodeMove resolves text against the legal moves. "a-b" matches steps only.
// "axbxc..." matches a capture by its full route; "axb" also matches a longer chain
// by its endpoints, as PDN allows. Anything else, or anything matching zero or
// several moves, is rejected.
func DecodeMove(text string, legal []Move) (Move, error) {
	trimmed := strings.TrimSpace(text)
	if !moveText.MatchString(trimmed) {
		return Move{}, &NotationError{Text: text, Err: ErrNotationMalformed}
	}

	capture := strings.Contains(trimmed, "x")
	sep := "-"
	if capture {
		sep = "x"
	}
	var route []Square
	for _, f := range strings.Split(trimmed, sep) {
		n, _ := strconv.Atoi(f)
		sq, ok := SquareFromNumber(n)
		if !ok {
			return Move{}, &NotationError{Text: text, Err: ErrNotationMalformed}
		}
		route = append(route, sq)
	}
	want := Move{Origin: route[0], Path: route[1:]}

	var matches []Move
	for _, m := range legal {
		if m.IsCapture() != capture {
			continue
		}
		switch {
		case m.SameRoute(want):
		case capture && len(want.Path) == 1 &&
			m.Origin == want.Origin && m.Destination() == want.Destination():
		default:
			continue
		}
		matches = append(matches, m)
	}

	switch len(matches) {
	case 0:
		return Move{}, &NotationError{Text: text, Err: ErrNotationUnmatched}
	case 1:
		return matches[0].clone(), nil
	}
	return Move{}, &NotationError{Text: text, Candidates: len(matches), Err: ErrNotationAmbiguous}
}

// EncodeHistory renders moves as PDN movetext ("1. 9-13 22-18 2. ..."). A game
// started by Dark opens with "1...".
func EncodeHistory(start Color, moves []Move) string {
	var sb strings.Builder
	side, num := start, 1
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case side == Light:
			fmt.Fprintf(&sb, "%d. ", num)
		case i == 0:
			fmt.Fprintf(&sb, "%d... ", num)
		}
		sb.WriteString(EncodeMove(m))
		if side == Dark {
			num++
		}
		side = side.Opponent()
	}
	return sb.String()
}
