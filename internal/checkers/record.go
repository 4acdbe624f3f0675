package checkers

import "fmt"

// Record is the persistable form of a game. Position counts are not stored: replaying
// Moves from the start recomputes them exactly.
type Record struct {
	Rules        Rules    `json:"rules"`
	StartingSide Color    `json:"startingSide"`
	Setup        string   `json:"setup,omitempty"`
	Moves        []string `json:"moves"`
	// Verdict is set only for outcomes the board cannot reproduce: resignation and
	// agreed draws.
	Verdict *Outcome `json:"verdict,omitempty"`
	// Offer is the side with a draw offer on the table.
	Offer *Color `json:"offer,omitempty"`
}

func (e *Engine) Record() Record {
	r := Record{
		Rules:        e.gen.Rules(),
		StartingSide: e.startSide,
		Moves:        make([]string, 0, len(e.history)),
	}
	if e.customSetup {
		r.Setup = encodeFEN(e.startBoard, e.startSide)
	}
	for _, p := range e.history {
		r.Moves = append(r.Moves, EncodeMove(p.move))
	}
	if e.outcome.Kind == Resignation || e.outcome.Kind == DrawByAgreement {
		v := e.outcome
		r.Verdict = &v
	}
	if e.offer.pending {
		by := e.offer.by
		r.Offer = &by
	}
	return r
}

// Replay rebuilds an engine from a Record. Observers in opts are attached after the
// moves are replayed, so they only see later transitions.
func Replay(r Record, opts ...Option) (*Engine, error) {
	base := []Option{WithRules(r.Rules), WithStartingSide(r.StartingSide)}
	if r.Setup != "" {
		b, side, err := DecodePosition(r.Setup)
		if err != nil {
			return nil, fmt.Errorf("replay setup: %w", err)
		}
		base = append(base, WithPosition(b, side))
	}
	e := NewEngine(base...)

	for i, text := range r.Moves {
		m, err := DecodeMove(text, e.LegalMoves())
		if err != nil {
			return nil, fmt.Errorf("replay move %d: %w", i+1, err)
		}
		if _, err := e.Apply(m); err != nil {
			return nil, fmt.Errorf("replay move %d %s: %w", i+1, text, err)
		}
	}
	if r.Verdict != nil && !e.outcome.Terminal() {
		e.outcome = *r.Verdict
	}
	if r.Offer != nil && !e.outcome.Terminal() {
		e.offer = drawOffer{by: *r.Offer, pending: true}
	}

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}
