package wsconn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/arbiter-client/pkg/protocol"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type fakeServer struct {
	srv  *httptest.Server
	reqs chan *http.Request
}

func newFakeServer(t *testing.T, serve func(ctx context.Context, c *websocket.Conn)) *fakeServer {
	t.Helper()
	fs := &fakeServer{reqs: make(chan *http.Request, 4)}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.reqs <- r
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")
		serve(r.Context(), c)
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) base() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http") + "/com/chess"
}

func TestOpen_DeliversEnvelopesAndSendsCommands(t *testing.T) {
	got := make(chan map[string]any, 1)
	fs := newFakeServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Write(ctx, websocket.MessageText, []byte("not json"))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"GAME_UPDATE","data":{"fen":"8/8/8/8/8/8/8/8 w - - 0 1"},"yourSide":"WHITE"}`))
		var m map[string]any
		if err := wsjson.Read(ctx, c, &m); err != nil {
			return
		}
		got <- m
		_, _, _ = c.Read(ctx)
	})

	msgs := make(chan *protocol.Envelope, 4)
	m := NewManager(Config{BaseURL: fs.base(), DialTimeout: 2 * time.Second}, nil)
	conn, err := m.Open(context.Background(), "ABC123", "tok en", func(env *protocol.Envelope) { msgs <- env })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	req := <-fs.reqs
	if req.URL.Path != "/com/chess/ABC123" {
		t.Fatalf("path = %q", req.URL.Path)
	}
	if req.URL.Query().Get("token") != "tok en" {
		t.Fatalf("token = %q", req.URL.Query().Get("token"))
	}

	select {
	case env := <-msgs:
		if env.Type != protocol.TypeGameUpdate || env.YourSide != "WHITE" {
			t.Fatalf("unexpected first envelope %+v", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no envelope delivered")
	}

	if conn.State() != StateOpen {
		t.Fatalf("state = %s", conn.State())
	}
	if err := conn.Send(protocol.NewMove("ABC123", "e2", "e4", "")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case frame := <-got:
		if frame["type"] != "MOVE" || frame["from"] != "E2" || frame["to"] != "E4" {
			t.Fatalf("unexpected frame %v", frame)
		}
		if v, ok := frame["promotion"]; !ok || v != nil {
			t.Fatalf("promotion should be null, got %v (present=%v)", v, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive the move")
	}

	_ = conn.Close()
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := conn.Send(protocol.NewResign("ABC123")); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Send after Close err = %v", err)
	}
}

func TestConn_ServerCloseReportsClosed(t *testing.T) {
	fs := newFakeServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Close(websocket.StatusNormalClosure, "bye")
	})

	var (
		mu     sync.Mutex
		states []State
	)
	closed := make(chan struct{})
	onState := func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
		if s == StateClosed {
			close(closed)
		}
	}

	m := NewManager(Config{BaseURL: fs.base()}, nil)
	conn, err := m.Open(context.Background(), "S1", "t", nil, onState)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatalf("CLOSED not reported")
	}
	if err := conn.Send(protocol.NewResign("S1")); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Send on closed channel err = %v", err)
	}
	_ = conn.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[len(states)-2] != StateOpen || states[len(states)-1] != StateClosed {
		t.Fatalf("states = %v", states)
	}
}

func TestOpen_DialFailure(t *testing.T) {
	fs := newFakeServer(t, func(context.Context, *websocket.Conn) {})
	base := fs.base()
	fs.srv.Close()

	m := NewManager(Config{BaseURL: base, DialTimeout: time.Second}, nil)
	if _, err := m.Open(context.Background(), "S1", "t", nil); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestChannelURL(t *testing.T) {
	got, err := ChannelURL("ws://h:8081/com/chess/", "AB C", "a+b")
	if err != nil {
		t.Fatalf("ChannelURL: %v", err)
	}
	if got != "ws://h:8081/com/chess/AB%20C?token=a%2Bb" {
		t.Fatalf("url = %s", got)
	}
	if _, err := ChannelURL("http://h/com/chess", "S", "t"); err == nil {
		t.Fatalf("http scheme should be rejected")
	}
	if _, err := ChannelURL("ws://h/com/chess", " ", "t"); err == nil {
		t.Fatalf("empty session id should be rejected")
	}
}
