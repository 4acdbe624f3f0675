package checkers

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove = errors.New("illegal move")

	ErrWrongTurn              = fmt.Errorf("%w: not this side's turn", ErrIllegalMove)
	ErrNoPieceAtOrigin        = fmt.Errorf("%w: no piece at origin", ErrIllegalMove)
	ErrNotOwnPiece            = fmt.Errorf("%w: piece belongs to the opponent", ErrIllegalMove)
	ErrDestinationUnreachable = fmt.Errorf("%w: destination occupied or unreachable", ErrIllegalMove)
	ErrCaptureMandatory       = fmt.Errorf("%w: a capture is available and must be taken", ErrIllegalMove)
	ErrIncompleteCaptureChain = fmt.Errorf("%w: capture chain must continue", ErrIllegalMove)
)

var (
	ErrInvalidState = errors.New("invalid state")

	ErrGameOver           = fmt.Errorf("%w: game is over", ErrInvalidState)
	ErrNothingToUndo      = fmt.Errorf("%w: no move to undo", ErrInvalidState)
	ErrNoDrawOffer        = fmt.Errorf("%w: no draw offer to answer", ErrInvalidState)
	ErrDrawAlreadyOffered = fmt.Errorf("%w: draw already offered", ErrInvalidState)
)

var (
	ErrNotation = errors.New("notation")

	ErrNotationMalformed = fmt.Errorf("%w: malformed move text", ErrNotation)
	ErrNotationUnmatched = fmt.Errorf("%w: no legal move matches", ErrNotation)
	ErrNotationAmbiguous = fmt.Errorf("%w: several legal moves match", ErrNotation)
)

// NotationError reports move text that could not be resolved to exactly one legal
// move. It unwraps to one of the ErrNotation sentinels.
type NotationError struct {
	Text       string
	Candidates int
	Err        error
}

func (e *NotationError) Error() string {
	if e.Candidates > 1 {
		return fmt.Sprintf("%v: %q (%d candidates)", e.Err, e.Text, e.Candidates)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Text)
}

func (e *NotationError) Unwrap() error { return e.Err }
