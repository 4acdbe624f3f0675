package checkers

import "fmt"

type OutcomeKind string

const (
	InProgress       OutcomeKind = "inProgress"
	WinByCapture     OutcomeKind = "winByCapture"
	WinByBlockade    OutcomeKind = "winByBlockade"
	DrawByRepetition OutcomeKind = "drawByRepetition"
	DrawByAgreement  OutcomeKind = "drawByAgreement"
	Resignation      OutcomeKind = "resignation"
)

// Outcome is the game verdict. Color is the winner for the two win kinds and the
// resigning side for Resignation; it is meaningless for draws and InProgress.
type Outcome struct {
	Kind  OutcomeKind `json:"kind"`
	Color Color       `json:"color"`
}

func (o Outcome) Terminal() bool {
	return o.Kind != InProgress && o.Kind != ""
}

// Winner reports the winning side, if the game has one.
func (o Outcome) Winner() (Color, bool) {
	switch o.Kind {
	case WinByCapture, WinByBlockade:
		return o.Color, true
	case Resignation:
		return o.Color.Opponent(), true
	}
	return Light, false
}

func (o Outcome) IsDraw() bool {
	return o.Kind == DrawByRepetition || o.Kind == DrawByAgreement
}

func (o Outcome) String() string {
	switch o.Kind {
	case WinByCapture:
		return fmt.Sprintf("%s wins, all opponent pieces captured", o.Color)
	case WinByBlockade:
		return fmt.Sprintf("%s wins, opponent has no legal moves", o.Color)
	case DrawByRepetition:
		return "draw by threefold repetition"
	case DrawByAgreement:
		return "draw by agreement"
	case Resignation:
		return fmt.Sprintf("%s resigns, %s wins", o.Color, o.Color.Opponent())
	}
	return "in progress"
}

func inProgress() Outcome { return Outcome{Kind: InProgress} }
