package session

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// TickerState is the clock ticker's state machine.
type TickerState string

const (
	TickerStopped TickerState = "STOPPED"
	TickerRunning TickerState = "RUNNING"
)

// Clock is the time source the ticker needs. clockwork.NewRealClock() in
// production, a FakeClock in tests.
type Clock interface {
	NewTicker(d time.Duration) clockwork.Ticker
}

// ClockTicker owns at most one underlying ticker. The screen loop selects on
// C() and calls State.tick on each receive; a stopped ticker returns a nil
// channel, so a tick queued before Stop is never delivered.
type ClockTicker struct {
	clock    Clock
	interval time.Duration
	logger   *zap.Logger

	t     clockwork.Ticker
	state TickerState
	turn  Side
}

func NewClockTicker(clock Clock, interval time.Duration, logger *zap.Logger) *ClockTicker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClockTicker{clock: clock, interval: interval, logger: logger, state: TickerStopped}
}

// State reports STOPPED or RUNNING.
func (c *ClockTicker) State() TickerState { return c.state }

// C is the channel of the running ticker, nil when stopped.
func (c *ClockTicker) C() <-chan time.Time {
	if c.t == nil {
		return nil
	}
	return c.t.Chan()
}

// Reconcile brings the ticker in line with the state: running only while the
// session is active, restarted whenever the side to move changes.
func (c *ClockTicker) Reconcile(st *State) {
	if st.Status != StatusActive {
		c.Stop()
		return
	}
	if c.state == TickerRunning && c.turn == st.Turn {
		return
	}
	c.start(st.Turn)
}

// Restart re-anchors a running ticker to a full interval from now.
func (c *ClockTicker) Restart(st *State) {
	c.Stop()
	c.Reconcile(st)
}

func (c *ClockTicker) start(turn Side) {
	c.Stop()
	c.t = c.clock.NewTicker(c.interval)
	c.state = TickerRunning
	c.turn = turn
	c.logger.Debug("clock_ticker_start", zap.String("turn", string(turn)))
}

// Stop is idempotent.
func (c *ClockTicker) Stop() {
	if c.t != nil {
		c.t.Stop()
		c.t = nil
		c.logger.Debug("clock_ticker_stop", zap.String("turn", string(c.turn)))
	}
	c.state = TickerStopped
}
