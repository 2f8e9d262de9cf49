package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

var (
	ErrNotOpen   = errors.New("channel not open")
	ErrQueueFull = errors.New("send queue full")
)

type Config struct {
	BaseURL      string
	DialTimeout  time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

// Manager opens session channels. Each Open returns its own handle; nothing is
// shared between handles.
type Manager struct {
	cfg    Config
	logger *zap.Logger
}

func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Open dials one channel for sessionID, authorised by token. onMessage gets
// every frame that parses as an envelope; onState, if given, sees OPEN and the
// final CLOSED transition. There is no reconnect.
func (m *Manager) Open(ctx context.Context, sessionID, token string, onMessage MessageCallback, onState ...StateCallback) (*Conn, error) {
	target, err := ChannelURL(m.cfg.BaseURL, sessionID, token)
	if err != nil {
		return nil, err
	}

	c := newConn(sessionID, m.cfg, m.logger)
	c.onMessage = onMessage
	c.stateCbs = append(c.stateCbs, onState...)
	c.setState(StateConnecting, nil)

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	defer cancel()
	ws, _, err := websocket.Dial(dialCtx, target, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		c.rootCancel()
		c.setState(StateClosed, err)
		m.logger.Warn("ws_dial_failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("dial session channel: %w", err)
	}
	c.start(ws)
	m.logger.Info("ws_open", zap.String("session_id", sessionID), zap.String("conn_id", c.id))
	return c, nil
}

// ChannelURL builds <base>/<sessionID>?token=<token>.
func ChannelURL(base, sessionID, token string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	sessionID = strings.TrimSpace(sessionID)
	if base == "" {
		return "", errors.New("channel base url required")
	}
	if sessionID == "" {
		return "", errors.New("session id required")
	}
	u, err := url.Parse(base + "/" + url.PathEscape(sessionID))
	if err != nil {
		return "", fmt.Errorf("channel url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("channel url: unsupported scheme %q", u.Scheme)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
