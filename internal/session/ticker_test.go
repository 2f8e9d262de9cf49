package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func recvTick(t *testing.T, c <-chan time.Time) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(time.Second):
		t.Fatalf("no tick")
	}
}

func TestClockTicker_RunsOnlyWhileActive(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tk := NewClockTicker(fc, time.Second, nil)
	st := NewState("S", "", 600)

	tk.Reconcile(st)
	if tk.State() != TickerStopped || tk.C() != nil {
		t.Fatalf("ticker running while waiting")
	}

	st.Status = StatusActive
	st.Turn = White
	tk.Reconcile(st)
	if tk.State() != TickerRunning || tk.C() == nil {
		t.Fatalf("ticker not running while active")
	}
	fc.Advance(time.Second)
	recvTick(t, tk.C())

	st.Status = StatusFinished
	tk.Reconcile(st)
	if tk.State() != TickerStopped || tk.C() != nil {
		t.Fatalf("ticker running after finish")
	}
	tk.Stop()
	if tk.State() != TickerStopped {
		t.Fatalf("second Stop changed state")
	}
}

func TestClockTicker_TurnChangeRestarts(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tk := NewClockTicker(fc, time.Second, nil)
	st := NewState("S", "", 600)
	st.Status = StatusActive
	st.Turn = White
	tk.Reconcile(st)
	first := tk.C()

	tk.Reconcile(st)
	if tk.C() != first {
		t.Fatalf("same turn should keep the running ticker")
	}

	st.Turn = Black
	tk.Reconcile(st)
	if tk.C() == first {
		t.Fatalf("turn change should start a new ticker")
	}
	// the old ticker is stopped, so only the new one fires
	fc.Advance(time.Second)
	recvTick(t, tk.C())
	select {
	case <-first:
		t.Fatalf("stopped ticker fired")
	default:
	}
}

func TestStateTick_FloorsAtZeroAndOnlyTurnSide(t *testing.T) {
	st := NewState("S", "", 1)
	if st.tick() {
		t.Fatalf("tick while waiting")
	}
	st.Status = StatusActive
	st.Turn = White
	if !st.tick() || st.Clocks.White != 0 || st.Clocks.Black != 1 {
		t.Fatalf("clocks = %+v", st.Clocks)
	}
	if st.tick() || st.Clocks.White != 0 {
		t.Fatalf("clock went below zero: %+v", st.Clocks)
	}
	if NewState("S", "", -5).Clocks.White != 0 {
		t.Fatalf("negative initial clock accepted")
	}
}
