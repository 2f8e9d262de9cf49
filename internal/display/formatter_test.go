package display

import (
	"strings"
	"testing"

	"github.com/park285/arbiter-client/internal/lobby"
	"github.com/park285/arbiter-client/internal/session"
)

func activeView(my session.Side) session.View {
	st := session.NewState("ABC123", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 600)
	st.Status = session.StatusActive
	st.Turn = session.White
	st.MySide = my
	st.Connected = true
	st.Players = session.Players{White: "alice", Black: "bob"}
	st.Clocks = session.Clocks{White: 599, Black: 61}
	return session.View{State: st.Clone(), Orientation: st.Orientation()}
}

func TestClock(t *testing.T) {
	for in, want := range map[int]string{0: "00:00", 600: "10:00", 61: "01:01", 3599: "59:59", -3: "00:00"} {
		if got := Clock(in); got != want {
			t.Fatalf("Clock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestScreen_WhiteViewer(t *testing.T) {
	f := NewFormatter(nil, nil)
	out := f.Screen(activeView(session.White))
	lines := strings.Split(out, "\n")
	if lines[0] != "Game ABC123" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "BLACK  bob  01:01" {
		t.Fatalf("opponent line = %q", lines[1])
	}
	if !strings.Contains(out, "WHITE (You)  alice  09:59") {
		t.Fatalf("viewer line missing:\n%s", out)
	}
	if !strings.Contains(out, "Status: ACTIVE\nYour move.") {
		t.Fatalf("status missing:\n%s", out)
	}
	if !strings.Contains(out, "1 R N B Q K B N R 1") {
		t.Fatalf("board missing:\n%s", out)
	}
}

func TestScreen_BlackViewerFlips(t *testing.T) {
	f := NewFormatter(nil, nil)
	out := f.Screen(activeView(session.Black))
	lines := strings.Split(out, "\n")
	if lines[1] != "WHITE  alice  09:59" {
		t.Fatalf("top line = %q", lines[1])
	}
	if !strings.Contains(out, "BLACK (You)  bob  01:01") {
		t.Fatalf("viewer line missing:\n%s", out)
	}
	if !strings.Contains(out, "WHITE to move.") {
		t.Fatalf("turn hint missing:\n%s", out)
	}
}

func TestStatus_FinishedAndDisconnected(t *testing.T) {
	f := NewFormatter(nil, nil)
	v := activeView(session.White)
	v.Status = session.StatusFinished
	v.Result = &session.Result{Winner: "BLACK won", Reason: "Checkmate"}
	if got := f.Status(v.State); got != "Status: FINISHED\nBLACK won (Checkmate)\n" {
		t.Fatalf("status = %q", got)
	}

	v = activeView(session.White)
	v.Connected = false
	if got := f.Status(v.State); !strings.Contains(got, "Connection closed") {
		t.Fatalf("status = %q", got)
	}

	waiting := session.NewState("XYZ", "", 600)
	if got := f.Status(waiting.Clone()); !strings.Contains(got, "Share code XYZ") {
		t.Fatalf("waiting status = %q", got)
	}
}

func TestOutcomeAndGames(t *testing.T) {
	f := NewFormatter(nil, nil)
	if got := f.Outcome(session.OutcomeIllegal, "e2", "e5"); got != "Illegal move E2-E5." {
		t.Fatalf("outcome = %q", got)
	}
	if got := f.Games(nil); got != "No games yet.\n" {
		t.Fatalf("empty games = %q", got)
	}
	winner := "alice"
	out := f.Games([]lobby.GameSummary{{GameCode: "ABC123", Status: "FINISHED", Result: &winner, CreatedAt: "2024-01-01"}})
	if !strings.Contains(out, "alice won") || !strings.HasPrefix(out, "CODE") {
		t.Fatalf("games = %q", out)
	}
}
