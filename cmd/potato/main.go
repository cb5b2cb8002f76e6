// Command potato is an interactive shell for the potato expression engine.
//
// Usage:
//
//	potato [-config settings.yaml] [-db snapshots.db] [-e expr] [-v]
//
// Lines are evaluated against a session scope that carries the host
// functions set, get, delete, print, len and rand. Lines starting with a
// colon are commands; :help lists them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/lmorg/readline"

	"github.com/tlauterbach/potato-eval/pkg/potato/config"
	"github.com/tlauterbach/potato-eval/pkg/potato/snapshot"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "potato:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("potato", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML or JSON settings file")
	dbPath := fs.String("db", "", "SQLite file for snapshots (in memory when empty)")
	expr := fs.String("e", "", "evaluate one line and exit")
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	settings, err := loadSettings(*configPath)
	if err != nil {
		return err
	}

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := newSession(settings, store, stdout, logger, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *expr != "" {
		s.execute(ctx, *expr)
		if s.failures > 0 {
			return errors.New("evaluation failed")
		}
		return nil
	}
	return loop(ctx, s)
}

func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		return config.DefaultSettings(), nil
	}
	settings, err := config.Load(path)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}

func openStore(path string) (snapshot.Store, error) {
	if path == "" {
		return snapshot.NewMemoryStore(), nil
	}
	store, err := snapshot.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return store, nil
}

func loop(ctx context.Context, s *session) error {
	rl := readline.NewInstance()
	rl.SetPrompt("potato> ")
	rl.TabCompleter = func(line []rune, pos int, _ readline.DelayedTabContext) (string, []string, map[string]string, readline.TabDisplayType) {
		prefix, suggestions := s.complete(string(line[:pos]))
		return prefix, suggestions, nil, readline.TabDisplayGrid
	}

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrCtrlC):
			continue
		case errors.Is(err, readline.ErrEOF):
			return nil
		case err != nil:
			return err
		}
		if s.execute(ctx, line) {
			return nil
		}
	}
}
