package session

import "strings"

// Status is the session lifecycle. It only moves forward.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusActive:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// ParseStatus maps a service status string. ABANDONED is terminal like
// FINISHED; anything unknown yields ok=false.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WAITING":
		return StatusWaiting, true
	case "ACTIVE":
		return StatusActive, true
	case "FINISHED", "ABANDONED":
		return StatusFinished, true
	}
	return "", false
}

// Side is a colour or the viewer's relationship to the session.
type Side string

const (
	White     Side = "WHITE"
	Black     Side = "BLACK"
	Spectator Side = "SPECTATOR"
	NoSide    Side = "NONE"
)

// ParseSide accepts WHITE/BLACK/SPECTATOR in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WHITE", "W":
		return White, true
	case "BLACK", "B":
		return Black, true
	case "SPECTATOR":
		return Spectator, true
	}
	return "", false
}

// Clocks holds remaining seconds per colour.
type Clocks struct {
	White int
	Black int
}

func (c Clocks) Of(side Side) int {
	switch side {
	case White:
		return c.White
	case Black:
		return c.Black
	}
	return 0
}

// Players holds display names per colour.
type Players struct {
	White string
	Black string
}

// Result is the terminal summary.
type Result struct {
	Winner string
	Loser  string
	Reason string
}

// WaitingPlaceholder is shown until the service names a player.
const WaitingPlaceholder = "Waiting..."

// State is the single mutable model of one open session screen. Only the
// screen loop mutates it; everything else receives copies.
type State struct {
	SessionID string
	Position  string
	Status    Status
	Turn      Side
	MySide    Side
	Clocks    Clocks
	Players   Players
	Result    *Result
	Connected bool
}

// NewState returns the state of a freshly opened screen.
func NewState(sessionID, position string, initialClock int) *State {
	if initialClock < 0 {
		initialClock = 0
	}
	return &State{
		SessionID: sessionID,
		Position:  position,
		Status:    StatusWaiting,
		Turn:      NoSide,
		MySide:    Spectator,
		Clocks:    Clocks{White: initialClock, Black: initialClock},
		Players:   Players{White: WaitingPlaceholder, Black: WaitingPlaceholder},
	}
}

// Clone returns a deep copy for readers.
func (s *State) Clone() State {
	out := *s
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return out
}

// Finished reports whether the session reached its terminal status.
func (s *State) Finished() bool { return s.Status == StatusFinished }

// advance moves status forward. Backward or unknown transitions are refused.
func (s *State) advance(next Status) bool {
	if next.rank() <= s.Status.rank() {
		return false
	}
	s.Status = next
	return true
}

// finish makes the session terminal and records the result once. A second
// terminal message does not overwrite the first result.
func (s *State) finish(r Result) {
	s.advance(StatusFinished)
	if s.Result == nil {
		s.Result = &r
	}
}

// tick removes one second from the side to move, floored at zero.
func (s *State) tick() bool {
	if s.Status != StatusActive {
		return false
	}
	switch s.Turn {
	case White:
		if s.Clocks.White > 0 {
			s.Clocks.White--
			return true
		}
	case Black:
		if s.Clocks.Black > 0 {
			s.Clocks.Black--
			return true
		}
	}
	return false
}

// Orientation is the colour drawn at the bottom of the board.
func (s *State) Orientation() Side {
	if s.MySide == Black {
		return Black
	}
	return White
}
