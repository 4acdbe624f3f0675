package checkers

// Rules holds the rule variants the generator supports. The zero value is standard
// American checkers.
type Rules struct {
	// MenCaptureBackward lets men jump backward as well as forward.
	MenCaptureBackward bool `json:"menCaptureBackward"`
}

type direction struct{ dr, dc int }

var diagonals = [4]direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// MoveGenerator enumerates legal moves for a side. It never mutates the board it is
// given; the capture search works on copies.
type MoveGenerator struct {
	rules Rules
}

func NewMoveGenerator(rules Rules) MoveGenerator {
	return MoveGenerator{rules: rules}
}

func (g MoveGenerator) Rules() Rules { return g.rules }

// LegalMoves returns every legal move for side. When any capture exists only
// captures are returned. An empty result means side is blockaded.
func (g MoveGenerator) LegalMoves(b Board, side Color) []Move {
	origins := b.Squares(side)

	var captures []Move
	for _, sq := range origins {
		captures = append(captures, g.capturesFrom(b, sq)...)
	}
	if len(captures) > 0 {
		return captures
	}

	var steps []Move
	for _, sq := range origins {
		steps = append(steps, g.stepsFrom(b, sq)...)
	}
	return steps
}

// MovesFrom returns the legal moves starting on sq, honoring mandatory capture
// across the whole board.
func (g MoveGenerator) MovesFrom(b Board, side Color, sq Square) []Move {
	var out []Move
	for _, m := range g.LegalMoves(b, side) {
		if m.Origin == sq {
			out = append(out, m)
		}
	}
	return out
}

// HasCapture reports whether side has at least one capture available.
func (g MoveGenerator) HasCapture(b Board, side Color) bool {
	for _, sq := range b.Squares(side) {
		if len(g.capturesFrom(b, sq)) > 0 {
			return true
		}
	}
	return false
}

func (g MoveGenerator) stepDirections(p Piece) []direction {
	if p.Rank == King {
		return diagonals[:]
	}
	f := p.Color.forward()
	return []direction{{f, -1}, {f, 1}}
}

func (g MoveGenerator) jumpDirections(p Piece) []direction {
	if p.Rank == King || g.rules.MenCaptureBackward {
		return diagonals[:]
	}
	return g.stepDirections(p)
}

func (g MoveGenerator) stepsFrom(b Board, origin Square) []Move {
	p, ok := b.Get(origin)
	if !ok {
		return nil
	}
	var out []Move
	for _, d := range g.stepDirections(p) {
		to := origin.offset(d, 1)
		if !to.Playable() {
			continue
		}
		if _, occupied := b.Get(to); occupied {
			continue
		}
		out = append(out, Move{
			Origin:   origin,
			Path:     []Square{to},
			Promotes: p.Rank == Man && to.Row == p.Color.crownRow(),
		})
	}
	return out
}

func (g MoveGenerator) capturesFrom(b Board, origin Square) []Move {
	p, ok := b.Get(origin)
	if !ok {
		return nil
	}
	// The mover leaves its origin for the duration of the chain, so a king may
	// pass back over it.
	b.Remove(origin)
	var out []Move
	g.extendChain(b, p, origin, Move{Origin: origin}, &out)
	return out
}

// extendChain tries every jump from at. b is a private copy with the jumped pieces
// already removed; each branch recurses on its own copy. A chain is recorded only
// when no further jump exists, so every result is maximal.
func (g MoveGenerator) extendChain(b Board, p Piece, at Square, chain Move, out *[]Move) {
	extended := false
	for _, d := range g.jumpDirections(p) {
		over, land := at.offset(d, 1), at.offset(d, 2)
		if !land.Playable() {
			continue
		}
		victim, ok := b.Get(over)
		if !ok || victim.Color == p.Color {
			continue
		}
		if _, occupied := b.Get(land); occupied {
			continue
		}

		next := b
		next.Remove(over)

		mover := p
		promotes := chain.Promotes
		if mover.Rank == Man && land.Row == mover.Color.crownRow() {
			mover.Rank = King
			promotes = true
		}

		branch := chain.clone()
		branch.Path = append(branch.Path, land)
		branch.Captured = append(branch.Captured, over)
		branch.Promotes = promotes

		g.extendChain(next, mover, land, branch, out)
		extended = true
	}
	if !extended && len(chain.Path) > 0 {
		*out = append(*out, chain)
	}
}
