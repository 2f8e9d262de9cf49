package clientbuilder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/park285/arbiter-client/internal/config"
	"github.com/park285/arbiter-client/internal/credstore"
	"github.com/park285/arbiter-client/internal/display"
	"github.com/park285/arbiter-client/internal/lobby"
	"github.com/park285/arbiter-client/internal/msgcat"
	"github.com/park285/arbiter-client/internal/render"
	"github.com/park285/arbiter-client/internal/session"
	"github.com/park285/arbiter-client/internal/wsconn"
	"github.com/park285/arbiter-client/pkg/protocol"
	"go.uber.org/zap"
)

type Deps struct {
	Config    *config.AppConfig
	Lobby     *lobby.Client
	Creds     credstore.Store
	Catalog   *msgcat.Catalog
	Formatter *display.Formatter
	Channels  *wsconn.Manager
	Snapshots render.PNG
	Clock     clockwork.Clock

	logger *zap.Logger
}

// New wires the client from cfg. Credentials go to Redis when REDIS_URL is
// set and stay in memory otherwise.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("init messages: %w", err)
	}

	clock := clockwork.NewRealClock()
	var creds credstore.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rs, err := credstore.NewRedisStore(ctx, cfg.RedisURL, cfg.TokenTTL())
		if err != nil {
			return nil, fmt.Errorf("init credential store: %w", err)
		}
		creds = rs
	} else {
		creds = credstore.NewMemoryStore(clock, cfg.TokenTTL())
	}

	d := &Deps{
		Config:    cfg,
		Lobby:     lobby.NewClient(cfg.APIURL, lobby.WithTimeout(cfg.HTTPTimeout()), lobby.WithRetry(2)),
		Creds:     creds,
		Catalog:   cat,
		Formatter: display.NewFormatter(cat, render.Terminal{Color: true}),
		Channels: wsconn.NewManager(wsconn.Config{
			BaseURL:      cfg.WSURL,
			DialTimeout:  cfg.DialTimeout(),
			PingInterval: cfg.PingInterval(),
		}, logger),
		Clock:  clock,
		logger: logger,
	}
	return d, nil
}

// Dial adapts the channel manager to what a session screen expects: inbound
// envelopes go to OnMessage and the final CLOSED transition to OnClosed.
func (d *Deps) Dial() session.DialFunc {
	return func(ctx context.Context, sessionID, token string, h session.Handlers) (session.Channel, error) {
		onState := func(state wsconn.State, err error) {
			if state == wsconn.StateClosed && h.OnClosed != nil {
				h.OnClosed(err)
			}
		}
		onMessage := func(env *protocol.Envelope) {
			if h.OnMessage != nil {
				h.OnMessage(env)
			}
		}
		conn, err := d.Channels.Open(ctx, sessionID, token, onMessage, onState)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// OpenScreen opens the session screen for code, authorised by token.
func (d *Deps) OpenScreen(ctx context.Context, code, token string, onRender func(session.View)) (*session.Screen, error) {
	return session.Open(ctx, session.Options{
		SessionID:    strings.ToUpper(strings.TrimSpace(code)),
		Token:        token,
		InitialClock: d.Config.InitialClockSec,
		TickInterval: d.Config.TickInterval(),
		Clock:        d.Clock,
		Dial:         d.Dial(),
		OnRender:     onRender,
		Logger:       d.logger,
	})
}

// WriteSnapshot renders v as a PNG into SNAPSHOT_DIR (or the working
// directory) and returns the file path.
func (d *Deps) WriteSnapshot(ctx context.Context, v session.View) (string, error) {
	status := d.Formatter.Status(v.State)
	data, err := d.Snapshots.Render(ctx, v.Position, display.Orientation(v), render.PNGOptions{
		Header: d.Catalog.Text("session.header", struct{ Code string }{v.SessionID}),
		Status: strings.ReplaceAll(strings.TrimSpace(status), "\n", "  "),
	})
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	dir := strings.TrimSpace(d.Config.SnapshotDir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.png", v.SessionID, d.Clock.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Close releases the credential store.
func (d *Deps) Close() error {
	if d == nil || d.Creds == nil {
		return nil
	}
	return d.Creds.Close()
}

// Remember stores a freshly issued token as the current credential.
func (d *Deps) Remember(ctx context.Context, username, token string) error {
	return d.Creds.Save(ctx, credstore.Credential{
		Username: username,
		Token:    token,
		IssuedAt: d.Clock.Now().UTC().Truncate(time.Second),
	})
}
