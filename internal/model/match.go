package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrGameFull        = errors.New("game is full")
	ErrNotInGame       = errors.New("player not in game")
	ErrAdvisorThinking = errors.New("advisor is choosing a move")
)

// Conn is the part of a websocket connection a match writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific match
type MatchConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.Mutex
}

func NewMatchConnections() *MatchConnections {
	return &MatchConnections{
		connections: make(map[string]Conn),
	}
}

type Seats struct {
	Light ClientPlayer `json:"light"`
	Dark  ClientPlayer `json:"dark"`
}

func (s *Seats) seat(c checkers.Color) *ClientPlayer {
	if c == checkers.Dark {
		return &s.Dark
	}
	return &s.Light
}

type MatchOptions struct {
	Rules        checkers.Rules
	StartingSide checkers.Color
	// AdvisorSeat, when set, is played by the advisor instead of a person.
	AdvisorSeat *checkers.Color
	TimeControl time.Duration
}

// Match is one game and the people watching it. Every engine call goes through mu, so the
// match is the only owner of turn state.
type Match struct {
	ID   string
	Name string

	mu             sync.Mutex
	engine         *checkers.Engine
	seats          Seats
	advisorSeat    *checkers.Color
	advisorPending bool
	timeControl    time.Duration
	clocks         map[checkers.Color]*Clock
	spent          []time.Duration // thinking time per ply, credited back on undo
	lastEvent      *EventView

	connections *MatchConnections
}

// MatchState is what clients render.
type MatchState struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Board           []PieceView      `json:"board"`
	ToMove          checkers.Color   `json:"toMove"`
	MoveHistory     []MoveView       `json:"moveHistory"`
	Movetext        string           `json:"movetext"`
	Position        string           `json:"position"`
	LegalMoves      []MoveView       `json:"legalMoves"`
	Outcome         checkers.Outcome `json:"outcome"`
	Result          string           `json:"result"`
	DrawOfferedBy   *checkers.Color  `json:"drawOfferedBy"`
	AdvisorThinking bool             `json:"advisorThinking"`
	Rules           checkers.Rules   `json:"rules"`
	Players         Seats            `json:"players"`
	LastEvent       *EventView       `json:"lastEvent"`
}

// EventView is the last engine transition, so clients can animate it.
type EventView struct {
	Kind     checkers.EventKind `json:"kind"`
	Move     *MoveView          `json:"move,omitempty"`
	Changed  []int              `json:"changed,omitempty"`
	Captured []int              `json:"captured,omitempty"`
}

// AdvisorTurn is everything the advisor is told about the position it must move in.
type AdvisorTurn struct {
	Side     checkers.Color
	Position string
	Movetext string
	Legal    []checkers.Move
}

func NewMatch(id, name string, opts MatchOptions) *Match {
	if opts.TimeControl <= 0 {
		opts.TimeControl = DefaultTimeControl
	}
	m := newMatch(id, name, opts.TimeControl)
	m.advisorSeat = opts.AdvisorSeat
	m.engine = checkers.NewEngine(
		checkers.WithRules(opts.Rules),
		checkers.WithStartingSide(opts.StartingSide),
		checkers.WithObserver(m.onEvent),
	)
	if m.advisorSeat != nil {
		m.seatAdvisor()
	}
	return m
}

// RestoreMatch rebuilds a match from its stored record. Clocks restart from full time.
func RestoreMatch(rec MatchRecord, timeControl time.Duration) (*Match, error) {
	if timeControl <= 0 {
		timeControl = DefaultTimeControl
	}
	m := newMatch(rec.ID, rec.Name, timeControl)
	engine, err := checkers.Replay(rec.Game, checkers.WithObserver(m.onEvent))
	if err != nil {
		return nil, fmt.Errorf("restore match %s: %w", rec.ID, err)
	}
	m.engine = engine
	m.advisorSeat = rec.AdvisorSeat
	m.seats = rec.Players
	m.seats.Light.Color = checkers.Light
	m.seats.Dark.Color = checkers.Dark
	m.spent = make([]time.Duration, engine.HistoryLen())
	m.syncClocks()
	if m.seats.Light.seated() && m.seats.Dark.seated() && !engine.Outcome().Terminal() {
		m.clocks[engine.SideToMove()].Start()
	}
	return m, nil
}

func newMatch(id, name string, timeControl time.Duration) *Match {
	return &Match{
		ID:          id,
		Name:        name,
		timeControl: timeControl,
		clocks: map[checkers.Color]*Clock{
			checkers.Light: NewClock(timeControl),
			checkers.Dark:  NewClock(timeControl),
		},
		seats: Seats{
			Light: ClientPlayer{Color: checkers.Light, TimeLeft: tenths(timeControl)},
			Dark:  ClientPlayer{Color: checkers.Dark, TimeLeft: tenths(timeControl)},
		},
		connections: NewMatchConnections(),
	}
}

func (m *Match) seatAdvisor() {
	s := m.seats.seat(*m.advisorSeat)
	s.ID = AdvisorPlayerID
	s.Name = "advisor"
	s.Advisor = true
}

// onEvent runs inside engine calls, which always hold mu.
func (m *Match) onEvent(ev checkers.Event) {
	v := &EventView{
		Kind:     ev.Kind,
		Changed:  numbers(ev.Changed),
		Captured: numbers(ev.Captured),
	}
	if ev.Move != nil {
		mv := NewMoveView(*ev.Move)
		v.Move = &mv
	}
	m.lastEvent = v
}

// AddPlayer seats playerID in the first open seat, Light first. A player who is already
// seated gets their existing color back.
func (m *Match) AddPlayer(playerID, name string) (checkers.Color, error) {
	if playerID == "" || playerID == AdvisorPlayerID {
		return checkers.Light, ErrNotInGame
	}
	m.mu.Lock()
	if c, err := m.colorOf(playerID); err == nil {
		m.mu.Unlock()
		return c, nil
	}

	var color checkers.Color
	switch {
	case !m.seats.Light.seated():
		color = checkers.Light
	case !m.seats.Dark.seated():
		color = checkers.Dark
	default:
		m.mu.Unlock()
		return checkers.Light, ErrGameFull
	}
	s := m.seats.seat(color)
	s.ID = playerID
	s.Name = name

	if m.seats.Light.seated() && m.seats.Dark.seated() && !m.engine.Outcome().Terminal() {
		m.clocks[m.engine.SideToMove()].Start()
	}
	state := m.stateLocked()
	m.mu.Unlock()

	log.Info().Str("gameId", m.ID).Str("playerId", playerID).Stringer("color", color).Msg("player seated")
	m.broadcastState(state)
	return color, nil
}

func (m *Match) ColorOf(playerID string) (checkers.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorOf(playerID)
}

func (m *Match) colorOf(playerID string) (checkers.Color, error) {
	if playerID == "" || playerID == AdvisorPlayerID {
		return checkers.Light, ErrNotInGame
	}
	if m.seats.Light.ID == playerID {
		return checkers.Light, nil
	}
	if m.seats.Dark.ID == playerID {
		return checkers.Dark, nil
	}
	return checkers.Light, ErrNotInGame
}

func (m *Match) HasAdvisor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advisorSeat != nil
}

// act runs fn for the seat of playerID and broadcasts the new state on success.
func (m *Match) act(playerID string, fn func(c checkers.Color) error) error {
	m.mu.Lock()
	c, err := m.colorOf(playerID)
	if err == nil && m.advisorPending {
		err = ErrAdvisorThinking
	}
	if err == nil {
		err = fn(c)
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	state := m.stateLocked()
	m.mu.Unlock()

	m.broadcastState(state)
	return nil
}

// MakeMove applies req for playerID's side and returns the move as the engine recorded it.
func (m *Match) MakeMove(playerID string, req MoveRequest) (checkers.Move, error) {
	var applied checkers.Move
	err := m.act(playerID, func(c checkers.Color) error {
		if m.engine.Outcome().Terminal() {
			return checkers.ErrGameOver
		}
		if m.engine.SideToMove() != c {
			return checkers.ErrWrongTurn
		}
		mv, err := req.Resolve(m.engine.LegalMoves())
		if err != nil {
			return err
		}
		applied, err = m.applyLocked(c, mv)
		return err
	})
	if err != nil {
		return checkers.Move{}, err
	}
	log.Info().Str("gameId", m.ID).Str("playerId", playerID).Stringer("move", applied).Msg("move applied")
	return applied, nil
}

func (m *Match) applyLocked(c checkers.Color, mv checkers.Move) (checkers.Move, error) {
	applied, err := m.engine.ApplyAs(c, mv)
	if err != nil {
		return checkers.Move{}, err
	}
	m.spent = append(m.spent, m.clocks[c].Stop())
	if !m.engine.Outcome().Terminal() {
		m.clocks[m.engine.SideToMove()].Start()
	}
	m.syncClocks()
	return applied, nil
}

// Undo takes back the last move. Against the advisor it keeps going until it is a person's
// turn again, so the advisor's reply is taken back together with the move that provoked it.
func (m *Match) Undo(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		if err := m.undoLocked(); err != nil {
			return err
		}
		if m.advisorSeat != nil && m.engine.SideToMove() == *m.advisorSeat &&
			m.engine.HistoryLen() > 0 && !m.engine.Outcome().Terminal() {
			return m.undoLocked()
		}
		return nil
	})
}

func (m *Match) undoLocked() error {
	before := m.engine.HistoryLen()
	running := m.engine.SideToMove()
	if err := m.engine.Undo(); err != nil {
		return err
	}
	if m.engine.HistoryLen() < before {
		m.clocks[running].Stop()
		mover := m.engine.SideToMove()
		if n := len(m.spent) - 1; n >= 0 {
			m.clocks[mover].Credit(m.spent[n])
			m.spent = m.spent[:n]
		}
	}
	m.clocks[m.engine.SideToMove()].Start()
	m.syncClocks()
	return nil
}

func (m *Match) Resign(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		if err := m.engine.Resign(c); err != nil {
			return err
		}
		m.stopClocks()
		return nil
	})
}

func (m *Match) OfferDraw(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		if err := m.engine.OfferDraw(c); err != nil {
			return err
		}
		if m.engine.Outcome().Terminal() {
			m.stopClocks()
		}
		return nil
	})
}

func (m *Match) AcceptDraw(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		if err := m.engine.AcceptDraw(c); err != nil {
			return err
		}
		m.stopClocks()
		return nil
	})
}

func (m *Match) DeclineDraw(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		return m.engine.DeclineDraw(c)
	})
}

// Reset starts the game over in the same seats.
func (m *Match) Reset(playerID string) error {
	return m.act(playerID, func(c checkers.Color) error {
		m.engine.Reset()
		m.clocks[checkers.Light] = NewClock(m.timeControl)
		m.clocks[checkers.Dark] = NewClock(m.timeControl)
		m.spent = nil
		if m.seats.Light.seated() && m.seats.Dark.seated() {
			m.clocks[m.engine.SideToMove()].Start()
		}
		m.syncClocks()
		return nil
	})
}

// BeginAdvisorTurn marks the advisor as thinking when it is the advisor's turn. Until
// CompleteAdvisorTurn or AbortAdvisorTurn, people cannot change the game.
func (m *Match) BeginAdvisorTurn() (AdvisorTurn, bool) {
	m.mu.Lock()
	if m.advisorSeat == nil || m.advisorPending || m.engine.Outcome().Terminal() ||
		m.engine.SideToMove() != *m.advisorSeat {
		m.mu.Unlock()
		return AdvisorTurn{}, false
	}
	m.advisorPending = true
	turn := m.snapshotLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.broadcastState(state)
	return turn, true
}

// CompleteAdvisorTurn plays the advisor's reply. Text that names no legal move leaves the
// game untouched; the turn stays with the advisor.
func (m *Match) CompleteAdvisorTurn(text string) (checkers.Move, error) {
	m.mu.Lock()
	if !m.advisorPending {
		m.mu.Unlock()
		return checkers.Move{}, fmt.Errorf("%w: advisor turn not started", checkers.ErrInvalidState)
	}
	m.advisorPending = false
	mv, err := checkers.DecodeMove(text, m.engine.LegalMoves())
	var applied checkers.Move
	if err == nil {
		applied, err = m.applyLocked(*m.advisorSeat, mv)
	}
	state := m.stateLocked()
	m.mu.Unlock()

	m.broadcastState(state)
	if err != nil {
		return checkers.Move{}, err
	}
	log.Info().Str("gameId", m.ID).Stringer("move", applied).Msg("advisor moved")
	return applied, nil
}

func (m *Match) AbortAdvisorTurn() {
	m.mu.Lock()
	m.advisorPending = false
	state := m.stateLocked()
	m.mu.Unlock()
	m.broadcastState(state)
}

// Snapshot describes the position for the side to move, for hints.
func (m *Match) Snapshot() AdvisorTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() AdvisorTurn {
	st := m.engine.State()
	return AdvisorTurn{
		Side:     st.SideToMove,
		Position: checkers.EncodePosition(st),
		Movetext: checkers.EncodeHistory(m.engine.StartingSide(), st.History),
		Legal:    m.engine.LegalMoves(),
	}
}

// LegalMovesFrom lists legal moves, from one square when from is non-zero.
func (m *Match) LegalMovesFrom(from int) ([]checkers.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from == 0 {
		return m.engine.LegalMoves(), nil
	}
	sq, ok := checkers.SquareFromNumber(from)
	if !ok {
		return nil, fmt.Errorf("%w: no square %d", ErrBadMoveRequest, from)
	}
	return m.engine.LegalMovesFrom(sq), nil
}

func (m *Match) SideToMove() checkers.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.SideToMove()
}

func (m *Match) Outcome() checkers.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Outcome()
}

func (m *Match) GetState() MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Match) stateLocked() MatchState {
	st := m.engine.State()
	m.syncClocks()

	state := MatchState{
		ID:              m.ID,
		Name:            m.Name,
		Board:           NewBoardView(st.Board),
		ToMove:          st.SideToMove,
		MoveHistory:     NewMoveViews(st.History),
		Movetext:        checkers.EncodeHistory(m.engine.StartingSide(), st.History),
		Position:        checkers.EncodePosition(st),
		LegalMoves:      NewMoveViews(m.engine.LegalMoves()),
		Outcome:         st.Outcome,
		Result:          st.Outcome.String(),
		DrawOfferedBy:   st.DrawOfferedBy,
		AdvisorThinking: m.advisorPending,
		Rules:           m.engine.Rules(),
		Players:         m.seats,
	}
	if m.lastEvent != nil {
		ev := *m.lastEvent
		state.LastEvent = &ev
	}
	return state
}

// Record is the persistable form of the match.
func (m *Match) Record() MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MatchRecord{
		ID:          m.ID,
		Name:        m.Name,
		Players:     m.seats,
		AdvisorSeat: m.advisorSeat,
		Game:        m.engine.Record(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func (m *Match) syncClocks() {
	m.seats.Light.TimeLeft = tenths(m.clocks[checkers.Light].GetTimeLeft())
	m.seats.Dark.TimeLeft = tenths(m.clocks[checkers.Dark].GetTimeLeft())
	m.seats.Light.Ticking = m.clocks[checkers.Light].IsRunning()
	m.seats.Dark.Ticking = m.clocks[checkers.Dark].IsRunning()
}

func (m *Match) stopClocks() {
	m.clocks[checkers.Light].Stop()
	m.clocks[checkers.Dark].Stop()
	m.syncClocks()
}

// RegisterConnection attaches a websocket for playerID and sends it the current state.
// Anyone may watch; only seated players can act. A second connection for the same player is
// turned away.
func (m *Match) RegisterConnection(playerID string, conn Conn) error {
	if playerID == "" {
		return ErrNotInGame
	}

	m.connections.mu.Lock()
	if _, exists := m.connections.connections[playerID]; exists {
		m.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	m.connections.connections[playerID] = conn
	m.connections.mu.Unlock()
	log.Debug().Str("gameId", m.ID).Str("playerId", playerID).Msg("connection registered")

	m.broadcastState(m.GetState())
	return nil
}

// UnregisterConnection detaches conn, unless playerID has since connected again.
func (m *Match) UnregisterConnection(playerID string, conn Conn) {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()

	if current, exists := m.connections.connections[playerID]; exists && current == conn {
		delete(m.connections.connections, playerID)
		log.Debug().Str("gameId", m.ID).Str("playerId", playerID).Msg("connection unregistered")
	}
}

func (m *Match) ConnectionCount() int {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()
	return len(m.connections.connections)
}

// Send writes one message to conn, serialized with broadcasts.
func (m *Match) Send(conn Conn, msg ws.Message) error {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()
	return conn.WriteJSON(msg)
}

// broadcastState writes state to every connection. Connections that fail are dropped.
func (m *Match) broadcastState(state MatchState) {
	msg, err := ws.New(ws.MessageTypeGameState, state)
	if err != nil {
		log.Error().Err(err).Str("gameId", m.ID).Msg("marshal state")
		return
	}

	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()
	for playerID, conn := range m.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warn().Err(err).Str("gameId", m.ID).Str("playerId", playerID).Msg("send state failed")
			delete(m.connections.connections, playerID)
		}
	}
}
