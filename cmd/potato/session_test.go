package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlauterbach/potato-eval/pkg/potato/config"
	"github.com/tlauterbach/potato-eval/pkg/potato/snapshot"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

func newTestSession(t *testing.T, settings config.Settings) (*session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := newSession(settings, snapshot.NewMemoryStore(), &out, nil, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return s, &out
}

func TestSession_Evaluate(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"arithmetic", []string{"1 + 2 * 3"}, "7\n"},
		{"string", []string{`"a" + 1`}, "\"a1\"\n"},
		{"assignment persists", []string{"x = 4", "$x * 2"}, "4\n8\n"},
		{"host set and get", []string{"set(y, 3)", "get(y) + 1"}, "3\n4\n"},
		{"delete", []string{"x = 1", "delete(x)", "x = \"again\""}, "1\ntrue\n\"again\"\n"},
		{"print", []string{`print("hp", 10)`}, "hp 10\n"},
		{"len", []string{`len("potato")`}, "6\n"},
		{"void prints nothing", []string{"undefined"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(t, config.DefaultSettings())
			for _, line := range tt.lines {
				assert.False(t, s.execute(context.Background(), line))
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestSession_Errors(t *testing.T) {
	s, out := newTestSession(t, config.DefaultSettings())

	s.execute(context.Background(), "1 +")
	s.execute(context.Background(), "$missing")
	s.execute(context.Background(), "rand(0)")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "error: "), line)
	}
	assert.Equal(t, 3, s.failures)
	assert.Equal(t, 3, s.evals)
}

func TestSession_Rand(t *testing.T) {
	s, out := newTestSession(t, config.DefaultSettings())
	s.execute(context.Background(), "r = rand(6)")
	s.execute(context.Background(), "$r >= 0 && $r < 6")
	assert.True(t, strings.HasSuffix(out.String(), "true\n"), out.String())
}

func TestSession_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("quit", func(t *testing.T) {
		s, _ := newTestSession(t, config.DefaultSettings())
		assert.True(t, s.execute(ctx, ":quit"))
	})

	t.Run("unknown", func(t *testing.T) {
		s, out := newTestSession(t, config.DefaultSettings())
		assert.False(t, s.execute(ctx, ":bogus"))
		assert.Contains(t, out.String(), "unknown command :bogus")
	})

	t.Run("dis", func(t *testing.T) {
		s, out := newTestSession(t, config.DefaultSettings())
		s.execute(ctx, ":dis $a + 1")
		assert.Contains(t, out.String(), "VALUE_OF")
		assert.Contains(t, out.String(), "4 instructions")
	})

	t.Run("vars", func(t *testing.T) {
		settings := config.DefaultSettings()
		settings.Variables = map[string]value.Value{"speed": value.Number(3)}
		s, out := newTestSession(t, settings)
		s.execute(ctx, ":vars")
		assert.Contains(t, out.String(), "speed")
		assert.Contains(t, out.String(), "variable")
		assert.Contains(t, out.String(), "function")
	})

	t.Run("expand", func(t *testing.T) {
		s, out := newTestSession(t, config.DefaultSettings())
		s.execute(ctx, "hp = 7")
		out.Reset()
		s.execute(ctx, ":expand hp is $hp, doubled ${$hp * 2}")
		assert.Equal(t, "hp is 7, doubled 14\n", out.String())
	})

	t.Run("stats", func(t *testing.T) {
		s, out := newTestSession(t, config.DefaultSettings())
		s.execute(ctx, "1 + 1")
		s.execute(ctx, "1 + 1")
		out.Reset()
		s.execute(ctx, ":stats")
		assert.Contains(t, out.String(), "evaluations  2 (0 failed)")
		assert.Contains(t, out.String(), "1 hits, 1 misses")
	})
}

func TestSession_Snapshots(t *testing.T) {
	ctx := context.Background()
	s, out := newTestSession(t, config.DefaultSettings())

	s.execute(ctx, "gold = 10")
	out.Reset()
	s.execute(ctx, ":save start")
	id := strings.TrimSpace(out.String())
	require.NotEmpty(t, id)

	s.execute(ctx, "gold = 99")
	out.Reset()
	s.execute(ctx, ":load "+id)
	assert.Equal(t, "restored "+id+"\n", out.String())

	out.Reset()
	s.execute(ctx, "$gold")
	assert.Equal(t, "10\n", out.String())

	out.Reset()
	s.execute(ctx, ":snapshots")
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "start")

	out.Reset()
	s.execute(ctx, ":load nope")
	assert.Contains(t, out.String(), "error:")
}

func TestSession_Complete(t *testing.T) {
	s, _ := newTestSession(t, config.DefaultSettings())

	prefix, got := s.complete(":sn")
	assert.Equal(t, ":sn", prefix)
	assert.Equal(t, []string{"apshots"}, got)

	prefix, got = s.complete("1 + pr")
	assert.Equal(t, "pr", prefix)
	assert.Equal(t, []string{"int"}, got)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("variables:\n  base: 40\n"), 0o600))

	var stdout, stderr bytes.Buffer
	err := run([]string{"-config", cfgPath, "-db", filepath.Join(dir, "snaps.db"), "-e", "$base + 2"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "42\n", stdout.String())

	stdout.Reset()
	err = run([]string{"-e", "1 / 0"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stdout.String(), "divided by zero")

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("variable:\n  base: 40\n"), 0o600))
	err = run([]string{"-config", typo, "-e", "1"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "config variable: unknown key")
}
