package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tlauterbach/potato-eval/pkg/potato"
	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/config"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/snapshot"
	"github.com/tlauterbach/potato-eval/pkg/potato/template"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

var commands = []string{":dis", ":expand", ":help", ":load", ":quit", ":save", ":snapshots", ":stats", ":vars"}

const helpText = `expressions are evaluated against the session scope
  :dis <expr>      show the compiled bytecode
  :expand <text>   interpolate ${expr} and $name placeholders
  :vars            list members of the root scope
  :stats           show cache and evaluation counters
  :save [label]    snapshot every variable
  :load <id>       restore a snapshot
  :snapshots       list stored snapshots
  :quit            leave`

// session holds the REPL state for one run.
type session struct {
	engine   *potato.Engine
	root     *binding.Table
	snaps    *snapshot.Manager
	expander *template.Expander
	out      io.Writer

	evals    int
	failures int
}

// newSession builds the root scope from settings, imports the host library
// and preloads the configured variables.
func newSession(settings config.Settings, store snapshot.Store, out io.Writer, logger *slog.Logger, rng *rand.Rand) (*session, error) {
	engine := potato.NewFromSettings(settings, potato.WithLogger(logger))
	root := binding.NewTable(
		binding.WithName("root"),
		binding.WithPolicy(settings.ContextPolicy),
		binding.WithLogger(logger),
	)
	if err := root.Import(hostLibrary(root, out, rng)); err != nil {
		return nil, fmt.Errorf("import host functions: %w", err)
	}

	names := make([]string, 0, len(settings.Variables))
	for name := range settings.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := root.DeclareVariable(name, settings.Variables[name]); err != nil {
			return nil, fmt.Errorf("preload %s: %w", name, err)
		}
	}

	return &session{
		engine:   engine,
		root:     root,
		snaps:    snapshot.NewManager(store, snapshot.WithLogger(logger)),
		expander: template.NewExpander(engine, template.WithMissingAction(template.MissingError)),
		out:      out,
	}, nil
}

// execute runs one input line and reports whether the session should end.
func (s *session) execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		s.evaluate(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(s.out, helpText)
	case ":dis":
		s.disassemble(ctx, arg)
	case ":expand":
		s.expand(ctx, arg)
	case ":vars":
		s.vars()
	case ":stats":
		s.stats()
	case ":save":
		s.save(arg)
	case ":load":
		s.load(arg)
	case ":snapshots":
		s.list()
	default:
		fmt.Fprintf(s.out, "unknown command %s, try :help\n", cmd)
	}
	return false
}

func (s *session) evaluate(ctx context.Context, src string) {
	s.evals++
	v, err := s.engine.Eval(ctx, src, s.root)
	if err != nil {
		s.failures++
		s.printError(err)
		return
	}
	if !v.IsVoid() {
		fmt.Fprintln(s.out, v.Inspect())
	}
}

func (s *session) printError(err error) {
	var list perr.List
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintf(s.out, "error: %v\n", e)
		}
		return
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
}

func (s *session) disassemble(ctx context.Context, src string) {
	if src == "" {
		fmt.Fprintln(s.out, "usage: :dis <expr>")
		return
	}
	block, err := s.engine.Compile(ctx, src)
	if err != nil {
		s.printError(err)
		return
	}
	if err := block.Disassemble(s.out); err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "%s instructions, %d strings, %s\n",
		humanize.Comma(int64(block.Len())), len(block.Strings()), humanize.Bytes(uint64(block.Size())))
}

func (s *session) expand(ctx context.Context, text string) {
	out, err := s.expander.Expand(ctx, text, s.root)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out, out)
}

func (s *session) vars() {
	for _, name := range s.root.Names() {
		m, ok := s.root.Lookup(value.NewIdentifier(name))
		if !ok {
			continue
		}
		switch m := m.(type) {
		case *binding.Variable:
			fmt.Fprintf(s.out, "%-16s %-9s %s\n", name, m.Kind(), m.Value.Inspect())
		case binding.Constant:
			fmt.Fprintf(s.out, "%-16s %-9s %s\n", name, m.Kind(), m.Value.Inspect())
		default:
			fmt.Fprintf(s.out, "%-16s %s\n", name, m.Kind())
		}
	}
}

func (s *session) stats() {
	c := s.engine.CacheStats()
	fmt.Fprintf(s.out, "evaluations  %s (%s failed)\n", humanize.Comma(int64(s.evals)), humanize.Comma(int64(s.failures)))
	fmt.Fprintf(s.out, "cache        %s / %s entries\n", humanize.Comma(int64(c.Entries)), humanize.Comma(int64(c.Capacity)))
	fmt.Fprintf(s.out, "lookups      %s hits, %s misses (%.1f%%)\n",
		humanize.Comma(c.Hits), humanize.Comma(c.Misses), 100*c.HitRatio())
	fmt.Fprintf(s.out, "members      %s\n", humanize.Comma(int64(s.root.Len())))
}

func (s *session) save(label string) {
	id, err := s.snaps.Save(s.root, label)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out, id)
}

func (s *session) load(id string) {
	if id == "" {
		fmt.Fprintln(s.out, "usage: :load <id>")
		return
	}
	if err := s.snaps.Restore(id, s.root); err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "restored %s\n", id)
}

func (s *session) list() {
	infos, err := s.snaps.List()
	if err != nil {
		s.printError(err)
		return
	}
	if len(infos) == 0 {
		fmt.Fprintln(s.out, "no snapshots")
		return
	}
	for _, info := range infos {
		label := info.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(s.out, "%s  %-12s %-14s %s\n",
			info.ID, label, humanize.Time(info.Timestamp), humanize.Bytes(uint64(info.Size)))
	}
}

// complete suggests commands and root member names for the word under the
// cursor.
func (s *session) complete(line string) (prefix string, suggestions []string) {
	start := strings.LastIndexAny(line, " ()$+-*/%!=<>&|^~?:,") + 1
	if strings.HasPrefix(line, ":") && !strings.Contains(line, " ") {
		start = 0
	}
	prefix = line[start:]

	candidates := s.root.Names()
	if start == 0 && strings.HasPrefix(prefix, ":") {
		candidates = commands
	}
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			suggestions = append(suggestions, c[len(prefix):])
		}
	}
	return prefix, suggestions
}
