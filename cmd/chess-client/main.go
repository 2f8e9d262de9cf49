// Command chess-client is the interactive terminal client for two-player
// arbiter chess games.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/park285/arbiter-client/internal/clientbuilder"
	appcfg "github.com/park285/arbiter-client/internal/config"
	"github.com/park285/arbiter-client/internal/obslog"
	"github.com/park285/arbiter-client/internal/render"
	"go.uber.org/zap"
)

func main() {
	verbose := flag.Bool("v", false, "show why a move was not sent")
	flag.Parse()
	os.Exit(run(*verbose))
}

// run owns every resource so that its defers close them on all exit paths.
func run(verbose bool) int {
	cfg, err := appcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "log init error: %v\n", err)
		return 1
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := clientbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("client_init_failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		return 1
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("credential_store_close_failed", zap.Error(err))
		}
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt("chess"),
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%v%s\n", render.Red, err, render.Reset)
		return 1
	}
	defer rl.Close()

	// readline keeps the terminal in raw mode, so ^C arrives as ErrInterrupt.
	// SIGTERM and friends close the reader to unblock it.
	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	a := &app{deps: deps, rl: rl, out: rl.Stdout(), logger: logger, verbose: verbose}
	fmt.Fprintf(a.out, "%sArbiter Chess%s\n", render.Cyan, render.Reset)
	fmt.Fprintf(a.out, "%sAPI: %s%s\n", render.Cyan, cfg.APIURL, render.Reset)
	a.restore(ctx)
	fmt.Fprintln(a.out, "Type 'help' for commands")

	a.lobby(ctx)
	logger.Info("client_exit")
	return 0
}

func prompt(s string) string {
	return fmt.Sprintf("%s%s>%s ", render.Cyan, s, render.Reset)
}
