// Command wscheck fetches a game from the lobby API and then watches its
// session channel for a short window, printing every envelope.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	appcfg "github.com/park285/arbiter-client/internal/config"
	"github.com/park285/arbiter-client/internal/lobby"
	"github.com/park285/arbiter-client/internal/obslog"
	"github.com/park285/arbiter-client/internal/wsconn"
	"github.com/park285/arbiter-client/pkg/protocol"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("log init error: %v", err)
	}
	defer obslog.Sync()

	code := strings.ToUpper(strings.TrimSpace(os.Getenv("GAME_CODE")))
	if len(os.Args) > 1 {
		code = strings.ToUpper(strings.TrimSpace(os.Args[1]))
	}
	token := strings.TrimSpace(os.Getenv("CHESS_TOKEN"))
	if code == "" {
		log.Fatal("usage: wscheck <game code> (or GAME_CODE); CHESS_TOKEN authorises the channel")
	}

	client := lobby.NewClient(cfg.APIURL, lobby.WithTimeout(cfg.HTTPTimeout()))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout())
	defer cancel()
	if token != "" {
		g, err := client.Game(ctx, token, code)
		if err != nil {
			log.Printf("/game/%s error: %v", code, err)
		} else {
			log.Printf("/game/%s ok: status=%s turn=%s white=%s black=%s fen=%s", g.GameCode, g.Status, g.Turn, g.WhitePlayer, g.BlackPlayer, g.FEN)
		}
	}

	mgr := wsconn.NewManager(wsconn.Config{
		BaseURL:      cfg.WSURL,
		DialTimeout:  cfg.DialTimeout(),
		PingInterval: cfg.PingInterval(),
	}, obslog.L())

	closed := make(chan struct{})
	conn, err := mgr.Open(context.Background(), code, token,
		func(env *protocol.Envelope) {
			fmt.Printf("WS %s side=%s body=%s\n", env.Type, env.YourSide, env.Body())
		},
		func(state wsconn.State, err error) {
			log.Printf("WS state: %s", state)
			if state == wsconn.StateClosed {
				close(closed)
			}
		})
	if err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	defer t.Stop()
	select {
	case <-t.C:
	case <-closed:
	}
	_ = conn.Close()
}
