package session

import (
	"errors"

	"github.com/park285/arbiter-client/internal/rules"
	"github.com/park285/arbiter-client/pkg/protocol"
	"go.uber.org/zap"
)

// Outcome tells the caller what AttemptMove did. None of them are errors; the
// user just sees the piece snap back unless the outcome is OutcomeSent.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeNoPiece
	OutcomeSpectator
	OutcomeWrongColor
	OutcomeNotYourTurn
	OutcomeIllegal
	OutcomeFinished
	OutcomeDisconnected
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeNoPiece:
		return "no_piece"
	case OutcomeSpectator:
		return "spectator"
	case OutcomeWrongColor:
		return "wrong_color"
	case OutcomeNotYourTurn:
		return "not_your_turn"
	case OutcomeIllegal:
		return "illegal"
	case OutcomeFinished:
		return "finished"
	case OutcomeDisconnected:
		return "disconnected"
	case OutcomeDropped:
		return "dropped"
	}
	return "unknown"
}

// Sender transmits one outbound command without blocking.
type Sender interface {
	Send(cmd protocol.Command) error
}

// autoPromotion is what a pawn reaching the last rank always becomes.
const autoPromotion = "q"

// MovePipeline validates a user move, applies it optimistically and sends it.
type MovePipeline struct {
	state  *State
	board  *rules.Board
	sender Sender
	logger *zap.Logger
}

func NewMovePipeline(state *State, board *rules.Board, sender Sender, logger *zap.Logger) *MovePipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovePipeline{state: state, board: board, sender: sender, logger: logger}
}

// AttemptMove runs the preconditions in order and stops at the first failure
// without touching state or the network.
func (p *MovePipeline) AttemptMove(from, to string) Outcome {
	st := p.state
	if st.Finished() {
		return p.reject(OutcomeFinished, from, to)
	}

	piece, err := p.board.PieceAt(from)
	if err != nil {
		return p.reject(OutcomeNoPiece, from, to)
	}
	if st.MySide == Spectator || st.MySide == NoSide {
		return p.reject(OutcomeSpectator, from, to)
	}
	mine := colorOf(st.MySide)
	if piece.Color != mine {
		return p.reject(OutcomeWrongColor, from, to)
	}
	if p.board.SideToMove() != mine {
		return p.reject(OutcomeNotYourTurn, from, to)
	}

	promotion := ""
	if rules.IsPromotion(piece, to) {
		promotion = autoPromotion
	}
	fen, err := p.board.Apply(from, to, promotion)
	if err != nil {
		if errors.Is(err, rules.ErrBadSquare) {
			return p.reject(OutcomeNoPiece, from, to)
		}
		p.logger.Debug("move_rejected",
			zap.String("session_id", st.SessionID),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return OutcomeIllegal
	}
	st.Position = fen

	cmd := protocol.NewMove(st.SessionID, from, to, promotion)
	if p.sender == nil {
		return OutcomeDropped
	}
	if err := p.sender.Send(cmd); err != nil {
		p.logger.Warn("move_send_dropped",
			zap.String("session_id", st.SessionID),
			zap.String("from", cmd.From),
			zap.String("to", cmd.To),
			zap.Error(err),
		)
		return OutcomeDropped
	}
	p.logger.Debug("move_sent",
		zap.String("session_id", st.SessionID),
		zap.String("from", cmd.From),
		zap.String("to", cmd.To),
		zap.String("promotion", promotion),
	)
	return OutcomeSent
}

// Resign sends RESIGN. State stays as is until the service ends the game.
func (p *MovePipeline) Resign() bool {
	st := p.state
	if st.Finished() || st.MySide == Spectator || st.MySide == NoSide || p.sender == nil {
		return false
	}
	if err := p.sender.Send(protocol.NewResign(st.SessionID)); err != nil {
		p.logger.Warn("resign_send_dropped", zap.String("session_id", st.SessionID), zap.Error(err))
		return false
	}
	p.logger.Info("resign_sent", zap.String("session_id", st.SessionID))
	return true
}

func (p *MovePipeline) reject(o Outcome, from, to string) Outcome {
	p.logger.Debug("move_precondition_failed",
		zap.String("session_id", p.state.SessionID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Stringer("outcome", o),
	)
	return o
}

func colorOf(s Side) rules.Color {
	switch s {
	case White:
		return rules.White
	case Black:
		return rules.Black
	}
	return rules.NoColor
}
