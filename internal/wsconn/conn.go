package wsconn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/arbiter-client/pkg/protocol"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type State string

const (
	StateConnecting State = "CONNECTING"
	StateOpen       State = "OPEN"
	StateClosed     State = "CLOSED"
)

type MessageCallback func(env *protocol.Envelope)

type StateCallback func(state State, err error)

const closeWait = 3 * time.Second

// Conn is the handle for one open channel.
type Conn struct {
	id        string
	sessionID string
	cfg       Config
	logger    *zap.Logger

	ws     *websocket.Conn
	state  State
	stateM sync.RWMutex

	onMessage MessageCallback
	stateCbs  []StateCallback

	out chan protocol.Command

	rootCtx    context.Context
	rootCancel context.CancelFunc

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newConn(sessionID string, cfg Config, logger *zap.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:         uuid.NewString(),
		sessionID:  sessionID,
		cfg:        cfg,
		logger:     logger,
		state:      StateClosed,
		out:        make(chan protocol.Command, cfg.SendBuffer),
		rootCtx:    ctx,
		rootCancel: cancel,
		stopCh:     make(chan struct{}),
	}
}

func (c *Conn) start(ws *websocket.Conn) {
	c.ws = ws
	c.setState(StateOpen, nil)
	c.wg.Add(3)
	go c.listen()
	go c.writeLoop()
	go c.pingLoop()
}

// ID identifies the handle in logs.
func (c *Conn) ID() string { return c.id }

func (c *Conn) SessionID() string { return c.sessionID }

func (c *Conn) State() State {
	c.stateM.RLock()
	defer c.stateM.RUnlock()
	return c.state
}

// Send queues cmd for the writer without blocking. When the channel is not
// open the command is dropped and ErrNotOpen returned; nothing is retried.
func (c *Conn) Send(cmd protocol.Command) error {
	if cmd == nil {
		return errors.New("nil command")
	}
	if c.State() != StateOpen {
		c.logger.Debug("ws_send_dropped",
			zap.String("conn_id", c.id),
			zap.String("type", string(cmd.CommandType())),
			zap.String("reason", "not_open"),
		)
		return ErrNotOpen
	}
	select {
	case <-c.stopCh:
		return ErrNotOpen
	case c.out <- cmd:
		return nil
	default:
		c.logger.Warn("ws_send_dropped",
			zap.String("conn_id", c.id),
			zap.String("type", string(cmd.CommandType())),
			zap.String("reason", "queue_full"),
		)
		return ErrQueueFull
	}
}

// Close releases the channel. Safe to call more than once and from any exit
// path; it must not be called from inside a callback.
func (c *Conn) Close() error {
	err := c.shutdown(websocket.StatusNormalClosure, "close", nil)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeWait):
		c.logger.Warn("ws_close_timeout", zap.String("conn_id", c.id))
	}
	return err
}

func (c *Conn) listen() {
	defer c.wg.Done()
	for {
		typ, raw, err := c.ws.Read(c.rootCtx)
		if err != nil {
			if c.isStopping() {
				return
			}
			c.logger.Info("ws_read_closed", zap.String("conn_id", c.id), zap.Error(err))
			_ = c.shutdown(websocket.StatusGoingAway, "read failure", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		env, err := protocol.ParseEnvelope(raw)
		if err != nil {
			c.logger.Warn("ws_inbound_parse_error",
				zap.String("conn_id", c.id),
				zap.Int("bytes", len(raw)),
				zap.Error(err),
			)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(env)
		}
	}
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case cmd := <-c.out:
			ctx, cancel := context.WithTimeout(c.rootCtx, c.cfg.WriteTimeout)
			err := wsjson.Write(ctx, c.ws, cmd)
			cancel()
			if err != nil {
				if c.isStopping() {
					return
				}
				c.logger.Warn("ws_write_failed",
					zap.String("conn_id", c.id),
					zap.String("type", string(cmd.CommandType())),
					zap.Error(err),
				)
				_ = c.shutdown(websocket.StatusGoingAway, "write failure", err)
				return
			}
		}
	}
}

func (c *Conn) pingLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := c.ws.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if c.isStopping() {
					return
				}
				_ = c.shutdown(websocket.StatusGoingAway, "ping failure", err)
				return
			}
		}
	}
}

// shutdown runs once: stop the loops, close the socket, report CLOSED.
func (c *Conn) shutdown(code websocket.StatusCode, reason string, cause error) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if c.ws != nil {
			err = c.ws.Close(code, reason)
		}
		c.rootCancel()
		c.setState(StateClosed, cause)
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (c *Conn) setState(state State, err error) {
	c.stateM.Lock()
	if c.state == state {
		c.stateM.Unlock()
		return
	}
	c.state = state
	c.stateM.Unlock()

	for _, cb := range c.stateCbs {
		if cb != nil {
			cb(state, err)
		}
	}
}

func (c *Conn) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}
