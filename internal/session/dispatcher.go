package session

import (
	"strings"
	"unicode/utf8"

	"github.com/park285/arbiter-client/internal/rules"
	"github.com/park285/arbiter-client/pkg/protocol"
	"go.uber.org/zap"
)

const (
	defaultReason  = "Game finished"
	implicitWinner = "you won"
	winnerSuffix   = " won"
)

// Change summarises what one dispatched envelope did to the state.
type Change struct {
	Mutated       bool
	StatusChanged bool
	TurnChanged   bool
}

// Dispatcher applies inbound envelopes to the state. It never sends anything.
type Dispatcher struct {
	state  *State
	board  *rules.Board
	logger *zap.Logger
}

func NewDispatcher(state *State, board *rules.Board, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{state: state, board: board, logger: logger}
}

// Handle routes one envelope. Unknown types are ignored.
func (d *Dispatcher) Handle(env *protocol.Envelope) Change {
	if env == nil {
		return Change{}
	}
	switch {
	case env.Type == protocol.TypeGameUpdate:
		return d.applyUpdate(env.GameUpdate())
	case env.Type.Terminal():
		return d.applyEnd(env.Type, env.GameEnd())
	case env.Type == protocol.TypeMoveInvalid, env.Type == protocol.TypeError:
		d.logger.Info("session_server_notice",
			zap.String("session_id", d.state.SessionID),
			zap.String("type", string(env.Type)),
			zap.String("text", env.Text()),
		)
	case env.Type == protocol.TypeConnected, env.Type == protocol.TypePlayerJoined:
	default:
		d.logger.Debug("session_unknown_type", zap.String("type", string(env.Type)))
	}
	return Change{}
}

func (d *Dispatcher) applyUpdate(u *protocol.GameUpdate) Change {
	var ch Change
	st := d.state

	if u.YourSide != nil {
		if side, ok := ParseSide(*u.YourSide); ok {
			if st.MySide != side {
				st.MySide = side
				ch.Mutated = true
			}
		} else {
			d.logger.Warn("session_side_ignored", zap.String("session_id", st.SessionID), zap.String("value", *u.YourSide))
		}
	}

	frozen := st.Finished()

	if u.Position != nil && !frozen {
		if err := d.board.Load(*u.Position); err != nil {
			d.logger.Warn("session_position_rejected",
				zap.String("session_id", st.SessionID),
				zap.String("position", truncate(*u.Position, 120)),
				zap.Error(err),
			)
		} else if st.Position != *u.Position {
			st.Position = *u.Position
			ch.Mutated = true
		}
	}

	var (
		next      Status
		hasStatus bool
	)
	if u.Status != nil {
		next, hasStatus = ParseStatus(*u.Status)
		if !hasStatus {
			d.logger.Warn("session_status_unknown", zap.String("session_id", st.SessionID), zap.String("value", *u.Status))
		}
	}

	if hasStatus && next != st.Status {
		if st.advance(next) {
			ch.Mutated = true
			ch.StatusChanged = true
		} else {
			d.logger.Debug("session_status_ignored",
				zap.String("session_id", st.SessionID),
				zap.String("from", string(st.Status)),
				zap.String("to", string(next)),
			)
		}
	}

	// turn only means something for an active game, judged after the status
	// above has been accepted or refused
	if u.Turn != nil && !frozen && st.Status == StatusActive {
		if side, ok := ParseSide(*u.Turn); ok && side != Spectator {
			if st.Turn != side {
				st.Turn = side
				ch.Mutated = true
				ch.TurnChanged = true
			}
		} else {
			d.logger.Warn("session_turn_ignored", zap.String("session_id", st.SessionID), zap.String("value", *u.Turn))
		}
	}

	if u.WhitePlayer != nil && st.Players.White != *u.WhitePlayer {
		st.Players.White = *u.WhitePlayer
		ch.Mutated = true
	}
	if u.BlackPlayer != nil && st.Players.Black != *u.BlackPlayer {
		st.Players.Black = *u.BlackPlayer
		ch.Mutated = true
	}
	return ch
}

func (d *Dispatcher) applyEnd(t protocol.MessageType, end protocol.GameEnd) Change {
	st := d.state
	wasFinished := st.Finished()
	hadResult := st.Result != nil

	r := Result{Winner: implicitWinner, Loser: end.Loser, Reason: end.Reason}
	if end.Winner != "" {
		r.Winner = end.Winner + winnerSuffix
	}
	if r.Reason == "" {
		r.Reason = defaultReason
	}
	st.finish(r)

	d.logger.Info("session_finished",
		zap.String("session_id", st.SessionID),
		zap.String("type", string(t)),
		zap.String("winner", st.Result.Winner),
		zap.String("reason", st.Result.Reason),
	)
	return Change{
		Mutated:       !wasFinished || !hadResult,
		StatusChanged: !wasFinished,
	}
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
