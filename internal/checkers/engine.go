package checkers

// GameState is a detached snapshot of an engine. Mutating it does not affect the
// engine it came from.
type GameState struct {
	Board          Board          `json:"-"`
	SideToMove     Color          `json:"sideToMove"`
	History        []Move         `json:"history"`
	PositionCounts map[string]int `json:"positionCounts"`
	Outcome        Outcome        `json:"outcome"`
	DrawOfferedBy  *Color         `json:"drawOfferedBy,omitempty"`
}

// ply is one applied move plus what Undo needs to reverse it without recomputing.
type ply struct {
	move      Move
	mover     Piece
	captured  []Piece
	signature string
	offer     drawOffer
}

type drawOffer struct {
	by      Color
	pending bool
}

type EventKind string

const (
	EventMoveApplied  EventKind = "moveApplied"
	EventMoveUndone   EventKind = "moveUndone"
	EventResigned     EventKind = "resigned"
	EventDrawOffered  EventKind = "drawOffered"
	EventDrawDeclined EventKind = "drawDeclined"
	EventDrawAgreed   EventKind = "drawAgreed"
	EventReset        EventKind = "reset"
)

// Event describes a state transition for observers. Changed lists every square whose
// contents differ from before the transition.
type Event struct {
	Kind       EventKind `json:"kind"`
	Move       *Move     `json:"move,omitempty"`
	Changed    []Square  `json:"changed,omitempty"`
	Captured   []Square  `json:"captured,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	SideToMove Color     `json:"sideToMove"`
}

// Engine owns the authoritative board and turn state. It is not safe for
// concurrent use; callers funnel all calls through a single owner.
type Engine struct {
	gen MoveGenerator

	startBoard  Board
	startSide   Color
	customSetup bool

	board     Board
	side      Color
	history   []ply
	positions map[string]int
	outcome   Outcome
	offer     drawOffer

	observers []func(Event)
}

type Option func(*Engine)

func WithRules(r Rules) Option {
	return func(e *Engine) { e.gen = NewMoveGenerator(r) }
}

func WithStartingSide(c Color) Option {
	return func(e *Engine) { e.startSide = c }
}

// WithPosition starts the game from an arbitrary board instead of the opening.
func WithPosition(b Board, side Color) Option {
	return func(e *Engine) {
		e.startBoard = b
		e.startSide = side
		e.customSetup = true
	}
}

func WithObserver(fn func(Event)) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		gen:        NewMoveGenerator(Rules{}),
		startBoard: NewStandardBoard(),
		startSide:  Light,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.restart()
	return e
}

func (e *Engine) restart() {
	e.board = e.startBoard
	e.side = e.startSide
	e.history = nil
	e.positions = map[string]int{e.signature(): 1}
	e.offer = drawOffer{}
	e.outcome = e.evaluate()
}

func (e *Engine) emit(ev Event) {
	ev.Outcome = e.outcome
	ev.SideToMove = e.side
	for _, fn := range e.observers {
		fn(ev)
	}
}

func (e *Engine) Rules() Rules             { return e.gen.Rules() }
func (e *Engine) StartingSide() Color      { return e.startSide }
func (e *Engine) SideToMove() Color        { return e.side }
func (e *Engine) Outcome() Outcome         { return e.outcome }
func (e *Engine) Board() Board             { return e.board }
func (e *Engine) HistoryLen() int          { return len(e.history) }
func (e *Engine) Generator() MoveGenerator { return e.gen }

func (e *Engine) History() []Move {
	out := make([]Move, len(e.history))
	for i, p := range e.history {
		out[i] = p.move.clone()
	}
	return out
}

func (e *Engine) PendingDrawOffer() (Color, bool) {
	return e.offer.by, e.offer.pending
}

func (e *Engine) State() GameState {
	counts := make(map[string]int, len(e.positions))
	for k, v := range e.positions {
		counts[k] = v
	}
	st := GameState{
		Board:          e.board,
		SideToMove:     e.side,
		History:        e.History(),
		PositionCounts: counts,
		Outcome:        e.outcome,
	}
	if e.offer.pending {
		by := e.offer.by
		st.DrawOfferedBy = &by
	}
	return st
}

// LegalMoves returns the moves available to the side to move, or nothing once the
// game is over.
func (e *Engine) LegalMoves() []Move {
	if e.outcome.Terminal() {
		return nil
	}
	return e.gen.LegalMoves(e.board, e.side)
}

// LegalMovesFrom supports incremental selection: the complete moves whose origin is sq.
func (e *Engine) LegalMovesFrom(sq Square) []Move {
	if e.outcome.Terminal() {
		return nil
	}
	return e.gen.MovesFrom(e.board, e.side, sq)
}

// Apply plays m for the side to move.
func (e *Engine) Apply(m Move) (Move, error) {
	return e.ApplyAs(e.side, m)
}

// ApplyAs plays m on behalf of by. m needs only Origin and Path; the returned move is
// the engine's canonical version with captures and promotion filled in. On error
// nothing changes.
func (e *Engine) ApplyAs(by Color, m Move) (Move, error) {
	if e.outcome.Terminal() {
		return Move{}, ErrGameOver
	}
	if by != e.side {
		return Move{}, ErrWrongTurn
	}
	p, ok := e.board.Get(m.Origin)
	if !ok {
		return Move{}, ErrNoPieceAtOrigin
	}
	if p.Color != by {
		return Move{}, ErrNotOwnPiece
	}

	legal := e.gen.LegalMoves(e.board, e.side)
	for _, l := range legal {
		if l.SameRoute(m) {
			e.commit(p, l)
			return l.clone(), nil
		}
	}
	return Move{}, classify(m, legal)
}

func classify(m Move, legal []Move) error {
	if len(m.Path) == 0 {
		return ErrDestinationUnreachable
	}
	captureTurn := len(legal) > 0 && legal[0].IsCapture()
	for _, l := range legal {
		if l.IsCapture() && m.startsRoute(l) {
			return ErrIncompleteCaptureChain
		}
	}
	if captureTurn && m.isStep() {
		return ErrCaptureMandatory
	}
	return ErrDestinationUnreachable
}

func (e *Engine) commit(mover Piece, m Move) {
	rec := ply{
		move:     m.clone(),
		mover:    mover,
		captured: make([]Piece, len(m.Captured)),
		offer:    e.offer,
	}
	for i, sq := range m.Captured {
		rec.captured[i], _ = e.board.Get(sq)
	}

	at := m.Origin
	for i, land := range m.Path {
		e.board.Move(at, land)
		if i < len(m.Captured) {
			e.board.Remove(m.Captured[i])
		}
		at = land
	}
	if m.Promotes {
		e.board.Place(at, Piece{Color: mover.Color, Rank: King})
	}

	// An offer lapses once the offered side plays on.
	if e.offer.pending && e.offer.by != mover.Color {
		e.offer = drawOffer{}
	}

	e.side = e.side.Opponent()
	rec.signature = e.signature()
	e.positions[rec.signature]++
	e.history = append(e.history, rec)
	e.outcome = e.evaluate()

	moved := rec.move
	e.emit(Event{
		Kind:     EventMoveApplied,
		Move:     &moved,
		Changed:  changedSquares(m),
		Captured: append([]Square(nil), m.Captured...),
	})
}

// evaluate applies the end-of-turn checks in order: no pieces, no moves, repetition.
func (e *Engine) evaluate() Outcome {
	winner := e.side.Opponent()
	if e.board.Count(e.side) == 0 {
		return Outcome{Kind: WinByCapture, Color: winner}
	}
	if len(e.gen.LegalMoves(e.board, e.side)) == 0 {
		return Outcome{Kind: WinByBlockade, Color: winner}
	}
	if e.positions[e.signature()] >= 3 {
		return Outcome{Kind: DrawByRepetition}
	}
	return inProgress()
}

func (e *Engine) signature() string {
	return e.board.Signature() + ":" + e.side.String()
}

// Undo reverses the last move, including from a finished game. Any outcome, a
// resignation or agreed draw included, goes back to in progress with it.
func (e *Engine) Undo() error {
	if len(e.history) == 0 {
		return ErrNothingToUndo
	}

	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]

	if e.positions[last.signature] <= 1 {
		delete(e.positions, last.signature)
	} else {
		e.positions[last.signature]--
	}

	m := last.move
	e.board.Remove(m.Destination())
	e.board.Place(m.Origin, last.mover)
	for i, sq := range m.Captured {
		e.board.Place(sq, last.captured[i])
	}

	e.side = last.mover.Color
	e.offer = last.offer
	e.outcome = inProgress()

	e.emit(Event{
		Kind:     EventMoveUndone,
		Move:     &m,
		Changed:  changedSquares(m),
		Captured: append([]Square(nil), m.Captured...),
	})
	return nil
}

func (e *Engine) Resign(c Color) error {
	if e.outcome.Terminal() {
		return ErrGameOver
	}
	e.outcome = Outcome{Kind: Resignation, Color: c}
	e.offer = drawOffer{}
	e.emit(Event{Kind: EventResigned})
	return nil
}

// OfferDraw records c's offer. If the opponent already has an offer on the table,
// offering back is agreement.
func (e *Engine) OfferDraw(c Color) error {
	if e.outcome.Terminal() {
		return ErrGameOver
	}
	if e.offer.pending {
		if e.offer.by == c {
			return ErrDrawAlreadyOffered
		}
		return e.AcceptDraw(c)
	}
	e.offer = drawOffer{by: c, pending: true}
	e.emit(Event{Kind: EventDrawOffered})
	return nil
}

// AcceptDraw ends the game as agreed when the opponent of c has an offer pending.
func (e *Engine) AcceptDraw(c Color) error {
	if e.outcome.Terminal() {
		return ErrGameOver
	}
	if !e.offer.pending || e.offer.by == c {
		return ErrNoDrawOffer
	}
	e.offer = drawOffer{}
	e.outcome = Outcome{Kind: DrawByAgreement}
	e.emit(Event{Kind: EventDrawAgreed})
	return nil
}

func (e *Engine) DeclineDraw(c Color) error {
	if e.outcome.Terminal() {
		return ErrGameOver
	}
	if !e.offer.pending || e.offer.by == c {
		return ErrNoDrawOffer
	}
	e.offer = drawOffer{}
	e.emit(Event{Kind: EventDrawDeclined})
	return nil
}

// Reset returns to the configured starting position.
func (e *Engine) Reset() {
	e.restart()
	e.emit(Event{Kind: EventReset})
}

func changedSquares(m Move) []Square {
	out := make([]Square, 0, 2+len(m.Captured))
	out = append(out, m.Origin)
	if d := m.Destination(); d != m.Origin {
		out = append(out, d)
	}
	return append(out, m.Captured...)
}
