package display

import (
	"fmt"
	"strings"

	"github.com/park285/arbiter-client/internal/lobby"
	"github.com/park285/arbiter-client/internal/msgcat"
	"github.com/park285/arbiter-client/internal/render"
	"github.com/park285/arbiter-client/internal/session"
)

// BoardDrawer turns a position into text.
type BoardDrawer interface {
	Render(fen string, o render.Orientation) (string, error)
}

// Formatter renders session views and lobby results into terminal text.
type Formatter struct {
	cat   *msgcat.Catalog
	board BoardDrawer
}

func NewFormatter(cat *msgcat.Catalog, board BoardDrawer) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	if board == nil {
		board = render.Terminal{}
	}
	return &Formatter{cat: cat, board: board}
}

// Clock formats seconds as MM:SS. Negative values show as 00:00.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Orientation maps the view's bottom side to a render orientation.
func Orientation(v session.View) render.Orientation {
	return render.OrientationFor(string(v.Orientation))
}

// Screen is the whole session screen: header, opponent, board, viewer,
// status and result.
func (f *Formatter) Screen(v session.View) string {
	var sb strings.Builder
	sb.WriteString(f.cat.Text("session.header", struct{ Code string }{v.SessionID}))
	sb.WriteString("\n")

	top, bottom := session.Black, session.White
	if v.Orientation == session.Black {
		top, bottom = session.White, session.Black
	}
	sb.WriteString(f.Player(v.State, top))
	sb.WriteString("\n")
	if board, err := f.board.Render(v.Position, Orientation(v)); err == nil {
		sb.WriteString(board)
	} else {
		sb.WriteString("(board unavailable)\n")
	}
	sb.WriteString(f.Player(v.State, bottom))
	sb.WriteString("\n")
	sb.WriteString(f.Status(v.State))
	return sb.String()
}

// Player is one side's label, name and clock.
func (f *Formatter) Player(st session.State, side session.Side) string {
	name := st.Players.White
	if side == session.Black {
		name = st.Players.Black
	}
	return f.cat.Text("session.player", struct {
		Color, Name, Clock string
		You                bool
	}{string(side), name, Clock(st.Clocks.Of(side)), st.MySide == side})
}

// Status is the status line plus whichever hint applies.
func (f *Formatter) Status(st session.State) string {
	lines := []string{f.cat.Text("session.status", struct{ Status string }{string(st.Status)})}
	switch {
	case st.Finished():
		if r := f.Result(st); r != "" {
			lines = append(lines, r)
		}
	case st.Status == session.StatusWaiting:
		lines = append(lines, f.cat.Text("session.waiting", struct{ Code string }{st.SessionID}))
	case st.MySide == session.Spectator:
		lines = append(lines, f.cat.Text("session.spectating", nil))
	case st.Turn == st.MySide:
		lines = append(lines, f.cat.Text("session.your_turn", nil))
	case st.Turn == session.White || st.Turn == session.Black:
		lines = append(lines, f.cat.Text("session.their_turn", struct{ Turn string }{string(st.Turn)}))
	}
	if !st.Connected && !st.Finished() {
		lines = append(lines, f.cat.Text("session.disconnected", nil))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Result is the finish banner, empty while the game runs.
func (f *Formatter) Result(st session.State) string {
	if st.Result == nil {
		return ""
	}
	if st.Result.Reason == "" {
		return f.cat.Text("session.result", struct{ Winner string }{st.Result.Winner})
	}
	return f.cat.Text("session.result_reason", struct{ Winner, Reason string }{st.Result.Winner, st.Result.Reason})
}

// Outcome explains a move attempt that did nothing.
func (f *Formatter) Outcome(o session.Outcome, from, to string) string {
	key := "move." + o.String()
	if !f.cat.Has(key) {
		return ""
	}
	return f.cat.Text(key, struct{ From, To string }{strings.ToUpper(from), strings.ToUpper(to)})
}

// Games is the game list table.
func (f *Formatter) Games(games []lobby.GameSummary) string {
	if len(games) == 0 {
		return f.cat.Text("lobby.no_games", nil) + "\n"
	}
	var sb strings.Builder
	sb.WriteString(f.cat.Text("lobby.games_header", nil))
	sb.WriteString("\n")
	for _, g := range games {
		sb.WriteString(f.cat.Text("lobby.game_row", struct{ Code, Status, Result, Created string }{
			g.GameCode, g.Status, g.ResultLabel(), g.CreatedAt,
		}))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Message renders any catalog key.
func (f *Formatter) Message(key string, data any) string {
	return f.cat.Text(key, data)
}
