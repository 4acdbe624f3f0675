package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const help = `commands:
  <move>     play a move, e.g. 11-15 or 15x22
  moves [n]  list legal moves, optionally from square n
  undo       take back the last move
  resign     resign the game
  draw       offer a draw
  accept     accept a draw offer
  decline    decline a draw offer
  new        start over
  pdn        print the position and movetext
  quit       leave`

type session struct {
	engine   *checkers.Engine
	advisor  advisor.Advisor
	seat     checkers.Color // advisor's side, when advisor is set
	timeout  time.Duration
	color    bool
	out      io.Writer
	lastMove []int
}

func main() {
	vs := flag.String("advisor", "", `let the advisor play "light" or "dark"`)
	backward := flag.Bool("backward", false, "men may capture backwards")
	start := flag.String("start", "light", "side that moves first")
	setup := flag.String("fen", "", "start from a PDN FEN position")
	noColor := flag.Bool("no-color", false, "disable colors")
	timeout := flag.Duration("timeout", 20*time.Second, "advisor time limit per move")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	opts := []checkers.Option{checkers.WithRules(checkers.Rules{MenCaptureBackward: *backward})}
	if *setup != "" {
		board, side, err := checkers.DecodePosition(*setup)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -fen")
		}
		opts = append(opts, checkers.WithPosition(board, side))
	} else {
		side, err := checkers.ParseColor(*start)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -start")
		}
		opts = append(opts, checkers.WithStartingSide(side))
	}

	s := &session{
		engine:  checkers.NewEngine(opts...),
		timeout: *timeout,
		color:   !*noColor,
		out:     os.Stdout,
	}
	if *vs != "" {
		seat, err := checkers.ParseColor(*vs)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -advisor")
		}
		s.seat = seat
		s.advisor = advisor.FirstLegal
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			s.advisor = advisor.NewOpenAI(key, os.Getenv("OPENAI_MODEL"))
		}
	}

	s.run(os.Stdin)
}

func (s *session) run(in io.Reader) {
	s.show()
	s.advisorTurn()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(s.out, "%s> ", s.engine.SideToMove())
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := s.command(line); err != nil {
			fmt.Fprintln(s.out, "error:", err)
			continue
		}
		s.advisorTurn()
	}
}

func (s *session) command(line string) error {
	fields := strings.Fields(line)
	side := s.engine.SideToMove()
	switch fields[0] {
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return nil
	case "moves":
		return s.listMoves(fields[1:])
	case "pdn":
		fmt.Fprintf(s.out, "%s\n%s\n", checkers.EncodePosition(s.engine.State()),
			checkers.EncodeHistory(s.engine.StartingSide(), s.engine.History()))
		return nil
	case "undo":
		if err := s.engine.Undo(); err != nil {
			return err
		}
		// Against the advisor, step back to the human's own turn.
		if s.advisor != nil && s.engine.SideToMove() == s.seat && s.engine.HistoryLen() > 0 {
			if err := s.engine.Undo(); err != nil {
				return err
			}
		}
		s.lastMove = nil
	case "resign":
		if err := s.engine.Resign(s.human(side)); err != nil {
			return err
		}
	case "draw":
		if err := s.engine.OfferDraw(s.human(side)); err != nil {
			return err
		}
		if s.advisor != nil {
			// The advisor never agrees to draws.
			if err := s.engine.DeclineDraw(s.seat); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "draw declined")
			return nil
		}
		fmt.Fprintf(s.out, "%s offers a draw\n", side)
		return nil
	case "accept":
		if err := s.engine.AcceptDraw(s.responder()); err != nil {
			return err
		}
	case "decline":
		if err := s.engine.DeclineDraw(s.responder()); err != nil {
			return err
		}
		return nil
	case "new":
		s.engine.Reset()
		s.lastMove = nil
	default:
		if s.advisor != nil && side == s.seat {
			return fmt.Errorf("%w: waiting for the advisor", checkers.ErrWrongTurn)
		}
		if err := s.play(line); err != nil {
			return err
		}
	}
	s.show()
	return nil
}

// human is the side the person at the keyboard acts for when the prompt shows side.
func (s *session) human(side checkers.Color) checkers.Color {
	if s.advisor != nil {
		return s.seat.Opponent()
	}
	return side
}

// responder is the side answering the pending draw offer.
func (s *session) responder() checkers.Color {
	by, _ := s.engine.PendingDrawOffer()
	return by.Opponent()
}

func (s *session) play(text string) error {
	mv, err := checkers.DecodeMove(text, s.engine.LegalMoves())
	if err != nil {
		return err
	}
	applied, err := s.engine.Apply(mv)
	if err != nil {
		return err
	}
	s.lastMove = squareNumbers(applied)
	return nil
}

func (s *session) listMoves(args []string) error {
	moves := s.engine.LegalMoves()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad square %q", args[0])
		}
		sq, ok := checkers.SquareFromNumber(n)
		if !ok {
			return fmt.Errorf("bad square %d", n)
		}
		moves = s.engine.LegalMovesFrom(sq)
	}
	names := make([]string, 0, len(moves))
	for _, m := range moves {
		names = append(names, checkers.EncodeMove(m))
	}
	fmt.Fprintln(s.out, strings.Join(names, " "))
	return nil
}

// advisorTurn lets the advisor move while it holds the move. A failed or illegal reply falls
// back to the first legal move so a local game never stalls.
func (s *session) advisorTurn() {
	for s.advisor != nil && !s.engine.Outcome().Terminal() && s.engine.SideToMove() == s.seat {
		legal := s.engine.LegalMoves()
		req := advisor.NewRequest(checkers.EncodePosition(s.engine.State()), s.seat,
			checkers.EncodeHistory(s.engine.StartingSide(), s.engine.History()), legal)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		text, err := s.advisor.ChooseMove(ctx, req)
		cancel()
		if err == nil {
			if found, ok := advisor.ExtractMove(text); ok {
				text = found
			}
			err = s.play(text)
		}
		if err != nil {
			log.Warn().Err(err).Str("reply", text).Msg("advisor failed, playing first legal move")
			if err := s.play(req.LegalMoves[0]); err != nil {
				log.Error().Err(err).Msg("advisor fallback")
				return
			}
		}
		fmt.Fprintf(s.out, "advisor plays %s\n", checkers.EncodeMove(s.engine.History()[s.engine.HistoryLen()-1]))
		s.show()
	}
}

func (s *session) show() {
	if err := render.Board(s.out, s.engine.Board(), render.Options{Color: s.color, Highlight: s.lastMove}); err != nil {
		log.Error().Err(err).Msg("render board")
		return
	}
	if out := s.engine.Outcome(); out.Terminal() {
		fmt.Fprintln(s.out, out)
		return
	}
	if by, ok := s.engine.PendingDrawOffer(); ok {
		fmt.Fprintf(s.out, "%s has offered a draw\n", by)
	}
}

func squareNumbers(m checkers.Move) []int {
	nums := []int{m.Origin.Number()}
	for _, sq := range m.Path {
		nums = append(nums, sq.Number())
	}
	return nums
}
