package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chzyer/readline"
	"github.com/park285/arbiter-client/internal/clientbuilder"
	"github.com/park285/arbiter-client/internal/credstore"
	"github.com/park285/arbiter-client/internal/display"
	"github.com/park285/arbiter-client/internal/lobby"
	"github.com/park285/arbiter-client/internal/session"
	"go.uber.org/zap"
)

// lineReader is the part of the readline instance the app drives.
type lineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Refresh()
}

type app struct {
	deps    *clientbuilder.Deps
	rl      lineReader
	out     io.Writer
	logger  *zap.Logger
	verbose bool

	user  string
	token string

	// set while a y/N question owns the prompt
	confirming atomic.Bool
}

func (a *app) say(key string, data any) {
	fmt.Fprintln(a.out, a.deps.Formatter.Message(key, data))
}

func (a *app) fail(err error) {
	a.say("lobby.error", struct{ Err error }{err})
}

// restore picks up the last saved credential, if the store still has one.
func (a *app) restore(ctx context.Context) {
	cred, err := a.deps.Creds.Current(ctx)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			a.logger.Warn("credential_restore_failed", zap.Error(err))
		}
		return
	}
	a.user, a.token = cred.Username, cred.Token
	a.say("lobby.logged_in", struct{ User string }{a.user})
}

func (a *app) lobby(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p := "chess"
		if a.user != "" {
			p = "chess [" + a.user + "]"
		}
		a.rl.SetPrompt(prompt(p))

		line, err := a.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if err != nil {
			return
		}

		verb, arg := splitCommand(line)
		switch verb {
		case "":
		case "quit", "exit", "x":
			return
		case "help", "?":
			fmt.Fprint(a.out, a.deps.Formatter.Message("help.lobby", nil))
		case "register", "login":
			a.authenticate(ctx, verb, arg)
		case "logout":
			a.logout(ctx)
		case "create":
			a.create(ctx)
		case "join":
			a.join(ctx, arg)
		case "open":
			if a.requireLogin() && arg != "" {
				a.play(ctx, arg)
			}
		case "games":
			a.games(ctx)
		default:
			fmt.Fprint(a.out, a.deps.Formatter.Message("help.lobby", nil))
		}
	}
}

func (a *app) requireLogin() bool {
	if a.token == "" {
		a.say("lobby.need_login", nil)
		return false
	}
	return true
}

// handleAuthError forgets a token the service no longer accepts.
func (a *app) handleAuthError(ctx context.Context, err error) {
	if errors.Is(err, lobby.ErrUnauthorized) && a.user != "" {
		_ = a.deps.Creds.Delete(ctx, a.user)
		a.user, a.token = "", ""
		a.say("lobby.need_login", nil)
		return
	}
	a.fail(err)
}

func (a *app) authenticate(ctx context.Context, verb, user string) {
	user = strings.TrimSpace(user)
	if user == "" {
		a.say("lobby.need_login", nil)
		return
	}
	pw, err := a.rl.ReadPassword("Password: ")
	if err != nil {
		return
	}
	var token string
	if verb == "register" {
		token, err = a.deps.Lobby.Register(ctx, user, string(pw))
	} else {
		token, err = a.deps.Lobby.Login(ctx, user, string(pw))
	}
	if err != nil {
		a.fail(err)
		return
	}
	if err := a.deps.Remember(ctx, user, token); err != nil {
		a.logger.Warn("credential_save_failed", zap.String("user", user), zap.Error(err))
	}
	a.user, a.token = user, token
	if verb == "register" {
		a.say("lobby.registered", struct{ User string }{user})
	}
	a.say("lobby.logged_in", struct{ User string }{user})
}

func (a *app) logout(ctx context.Context) {
	if a.user != "" {
		if err := a.deps.Creds.Delete(ctx, a.user); err != nil {
			a.logger.Warn("credential_delete_failed", zap.Error(err))
		}
	}
	a.user, a.token = "", ""
	a.say("lobby.logged_out", nil)
}

func (a *app) create(ctx context.Context) {
	if !a.requireLogin() {
		return
	}
	code, err := a.deps.Lobby.CreateGame(ctx, a.token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return
	}
	a.say("lobby.created", struct{ Code string }{code})
	a.play(ctx, code)
}

func (a *app) join(ctx context.Context, code string) {
	if !a.requireLogin() || strings.TrimSpace(code) == "" {
		return
	}
	if err := a.deps.Lobby.JoinGame(ctx, a.token, code); err != nil {
		a.handleAuthError(ctx, err)
		return
	}
	a.say("lobby.joined", struct{ Code string }{strings.ToUpper(code)})
	a.play(ctx, code)
}

func (a *app) games(ctx context.Context) {
	if !a.requireLogin() {
		return
	}
	list, err := a.deps.Lobby.Games(ctx, a.token)
	if err != nil {
		a.handleAuthError(ctx, err)
		return
	}
	fmt.Fprint(a.out, a.deps.Formatter.Games(list))
}

// play runs the session screen until the user leaves. The screen is torn
// down on every way out of here.
func (a *app) play(ctx context.Context, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := credstore.RememberSession(ctx, a.deps.Creds, a.user, code); err != nil {
		a.logger.Debug("remember_session_failed", zap.Error(err))
	}

	view := &viewPrinter{app: a}
	screen, err := a.deps.OpenScreen(ctx, code, a.token, view.onRender)
	if err != nil {
		a.fail(err)
		return
	}
	defer func() {
		screen.Close()
		a.say("session.closed", struct{ Code string }{code})
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := a.rl.Readline()
		if err != nil {
			// ^C, EOF and a closed reader all leave the game
			return
		}
		cmd := parseGameCommand(line)
		switch cmd.kind {
		case gameCmdExit:
			return
		case gameCmdMove:
			out := screen.AttemptMove(cmd.from, cmd.to)
			if out != session.OutcomeSent && a.verbose {
				if msg := a.deps.Formatter.Outcome(out, cmd.from, cmd.to); msg != "" {
					fmt.Fprintln(a.out, msg)
				}
			}
		case gameCmdResign:
			a.resign(screen)
		case gameCmdBoard:
			fmt.Fprint(a.out, a.deps.Formatter.Screen(screen.View()))
		case gameCmdStatus:
			v := screen.View()
			fmt.Fprint(a.out, a.deps.Formatter.Status(v.State))
			fmt.Fprintln(a.out, a.deps.Formatter.Player(v.State, session.White))
			fmt.Fprintln(a.out, a.deps.Formatter.Player(v.State, session.Black))
		case gameCmdSnapshot:
			path, err := a.deps.WriteSnapshot(ctx, screen.View())
			if err != nil {
				a.fail(err)
				continue
			}
			a.say("session.snapshot_saved", struct{ Path string }{path})
		case gameCmdHelp:
			fmt.Fprint(a.out, a.deps.Formatter.Message("help.session", nil))
		default:
			if strings.TrimSpace(line) != "" {
				fmt.Fprint(a.out, a.deps.Formatter.Message("help.session", nil))
			}
		}
	}
}

func (a *app) resign(screen *session.Screen) {
	if st := screen.Snapshot(); st.Finished() {
		a.say("move.finished", nil)
		return
	}
	a.confirming.Store(true)
	a.rl.SetPrompt(a.deps.Formatter.Message("session.resign_confirm", nil))
	answer, err := a.rl.Readline()
	a.confirming.Store(false)
	a.rl.SetPrompt(sessionPrompt(screen.View()))
	if err != nil || !confirmed(answer) {
		return
	}
	if screen.Resign() {
		a.say("session.resign_sent", nil)
	}
}

// viewPrinter is the screen's render hook. It redraws the board when
// something other than the clocks changed and otherwise only refreshes the
// prompt, which carries both clocks.
type viewPrinter struct {
	app *app

	mu   sync.Mutex
	last *viewKey
}

type viewKey struct {
	position, status, turn, mySide, white, black string
	connected, finished                          bool
}

func keyOf(v session.View) viewKey {
	return viewKey{
		position:  v.Position,
		status:    string(v.Status),
		turn:      string(v.Turn),
		mySide:    string(v.MySide),
		white:     v.Players.White,
		black:     v.Players.Black,
		connected: v.Connected,
		finished:  v.Result != nil,
	}
}

func (p *viewPrinter) onRender(v session.View) {
	k := keyOf(v)
	p.mu.Lock()
	redraw := p.last == nil || *p.last != k
	p.last = &k
	p.mu.Unlock()

	a := p.app
	if redraw {
		fmt.Fprint(a.out, a.deps.Formatter.Screen(v))
	}
	if !a.confirming.Load() {
		a.rl.SetPrompt(sessionPrompt(v))
	}
	a.rl.Refresh()
}

func sessionPrompt(v session.View) string {
	return prompt(fmt.Sprintf("%s W %s B %s",
		v.SessionID, display.Clock(v.Clocks.White), display.Clock(v.Clocks.Black)))
}
