package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/arbiter-client/internal/rules"
	"github.com/park285/arbiter-client/pkg/protocol"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("session channel not connected")

// Channel is an open session channel as seen by the screen.
type Channel interface {
	Sender
	Close() error
}

// Handlers receive channel events. They are called from the channel's own
// goroutines; the screen re-posts them onto its loop.
type Handlers struct {
	OnMessage func(env *protocol.Envelope)
	OnClosed  func(err error)
}

// DialFunc opens the channel for one session.
type DialFunc func(ctx context.Context, sessionID, token string, h Handlers) (Channel, error)

// View is what the rendering side draws.
type View struct {
	State
	Orientation Side
}

type Options struct {
	SessionID    string
	Token        string
	InitialClock int
	TickInterval time.Duration
	Clock        Clock
	Dial         DialFunc
	// OnRender runs on the screen loop after every mutation. It must not call
	// back into the screen.
	OnRender func(View)
	Logger   *zap.Logger
}

const queueSize = 64

// Screen owns one session: its state, board, ticker and channel. Every
// mutation runs on a single loop goroutine, one event at a time.
type Screen struct {
	id     string
	logger *zap.Logger

	state      *State
	board      *rules.Board
	dispatcher *Dispatcher
	pipeline   *MovePipeline
	ticker     *ClockTicker
	onRender   func(View)

	// loop-owned
	ch       Channel
	chClosed bool

	queue     chan func()
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open creates the state, starts the loop and dials the channel. On dial
// failure the screen is torn down and the error returned.
func Open(ctx context.Context, opts Options) (*Screen, error) {
	sessionID := strings.TrimSpace(opts.SessionID)
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	if opts.Dial == nil {
		return nil, errors.New("dial func required")
	}
	s := newScreen(sessionID, opts)

	ch, err := opts.Dial(ctx, sessionID, opts.Token, Handlers{
		OnMessage: s.Deliver,
		OnClosed:  s.channelClosed,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open session %s: %w", sessionID, err)
	}
	if !s.do(func() {
		s.ch = ch
		// the channel may already have reported its close
		s.state.Connected = !s.chClosed
		s.render()
	}) {
		_ = ch.Close()
		return nil, ErrNotConnected
	}
	s.logger.Info("session_open", zap.String("session_id", sessionID), zap.String("screen_id", s.id))
	return s, nil
}

func newScreen(sessionID string, opts Options) *Screen {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	board := rules.New()
	st := NewState(sessionID, board.FEN(), opts.InitialClock)

	s := &Screen{
		id:       uuid.NewString(),
		logger:   logger,
		state:    st,
		board:    board,
		ticker:   NewClockTicker(opts.Clock, opts.TickInterval, logger),
		onRender: opts.OnRender,
		queue:    make(chan func(), queueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.dispatcher = NewDispatcher(st, board, logger)
	s.pipeline = NewMovePipeline(st, board, channelSender{s}, logger)
	go s.run()
	return s
}

func (s *Screen) run() {
	defer close(s.done)
	for {
		// a pending tick goes before anything queued behind it
		select {
		case <-s.ticker.C():
			s.onTick()
			continue
		default:
		}
		select {
		case <-s.stop:
			s.state.Connected = false
			return
		case <-s.ticker.C():
			s.onTick()
		case fn := <-s.queue:
			fn()
		}
	}
}

// post queues fn for the loop. It is dropped once the screen is closed.
func (s *Screen) post(fn func()) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.queue <- fn:
		return true
	case <-s.stop:
		return false
	}
}

// do runs fn on the loop and waits for it.
func (s *Screen) do(fn func()) bool {
	ran := make(chan struct{})
	if !s.post(func() {
		fn()
		close(ran)
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-s.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// ID identifies this screen in logs.
func (s *Screen) ID() string { return s.id }

// Deliver hands one inbound envelope to the loop.
func (s *Screen) Deliver(env *protocol.Envelope) {
	if env == nil {
		return
	}
	if !s.post(func() { s.handle(env) }) {
		s.logger.Debug("session_event_dropped", zap.String("session_id", s.state.SessionID), zap.String("type", string(env.Type)))
	}
}

func (s *Screen) handle(env *protocol.Envelope) {
	ch := s.dispatcher.Handle(env)
	if ch.StatusChanged || ch.TurnChanged || s.state.Finished() {
		s.ticker.Reconcile(s.state)
	}
	if ch.Mutated {
		s.render()
	}
}

func (s *Screen) onTick() {
	if s.state.tick() {
		s.render()
	}
}

func (s *Screen) channelClosed(err error) {
	s.post(func() {
		s.chClosed = true
		if !s.state.Connected {
			return
		}
		s.state.Connected = false
		s.logger.Info("session_channel_closed", zap.String("session_id", s.state.SessionID), zap.Error(err))
		s.render()
	})
}

// AttemptMove runs the move pipeline on the loop.
func (s *Screen) AttemptMove(from, to string) Outcome {
	out := OutcomeDisconnected
	s.do(func() {
		if !s.state.Connected && !s.state.Finished() {
			out = OutcomeDisconnected
			return
		}
		out = s.pipeline.AttemptMove(from, to)
		if out == OutcomeSent {
			s.render()
		}
	})
	return out
}

// Resign sends RESIGN. The caller is expected to have confirmed with the user.
func (s *Screen) Resign() bool {
	var ok bool
	s.do(func() {
		if !s.state.Connected {
			return
		}
		ok = s.pipeline.Resign()
	})
	return ok
}

// Snapshot returns a copy of the current state. After Close it returns the
// final state.
func (s *Screen) Snapshot() State {
	var out State
	if s.do(func() { out = s.state.Clone() }) {
		return out
	}
	<-s.done
	return s.state.Clone()
}

// View is Snapshot plus board orientation.
func (s *Screen) View() View {
	st := s.Snapshot()
	return View{State: st, Orientation: st.Orientation()}
}

// TickerState reports the clock ticker's state.
func (s *Screen) TickerState() TickerState {
	out := TickerStopped
	if s.do(func() { out = s.ticker.State() }) {
		return out
	}
	return TickerStopped
}

// Done is closed once the screen has been torn down.
func (s *Screen) Done() <-chan struct{} { return s.done }

// Close stops the loop, the ticker and the channel in one step. Events that
// arrive afterwards are dropped. Safe to call more than once.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.ticker.Stop()
		if s.ch != nil {
			if err := s.ch.Close(); err != nil {
				s.logger.Debug("session_channel_close_error", zap.String("session_id", s.state.SessionID), zap.Error(err))
			}
		}
		s.logger.Info("session_closed", zap.String("session_id", s.state.SessionID), zap.String("screen_id", s.id))
	})
}

func (s *Screen) render() {
	if s.onRender == nil {
		return
	}
	st := s.state.Clone()
	s.onRender(View{State: st, Orientation: st.Orientation()})
}

type channelSender struct{ s *Screen }

func (c channelSender) Send(cmd protocol.Command) error {
	if c.s.ch == nil {
		return ErrNotConnected
	}
	return c.s.ch.Send(cmd)
}
