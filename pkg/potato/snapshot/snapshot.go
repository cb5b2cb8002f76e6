// Package snapshot captures the variable state of binding tables and
// persists it so a session can be restored later.
package snapshot

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// Version is the current snapshot format version.
const Version = 1

// Snapshot holds every Variable reachable from a table, keyed by dotted
// address relative to that table.
type Snapshot struct {
	Version   int                    `json:"version"`
	ID        string                 `json:"id"`
	Label     string                 `json:"label,omitempty"`
	Scope     string                 `json:"scope,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Variables map[string]value.Value `json:"variables"`
}

// Capture records the variables of t and of every sub-table it binds.
// Constants, getters and functions are host-provided and not captured.
// Sub-contexts that are not Tables are skipped.
func Capture(t *binding.Table) *Snapshot {
	s := &Snapshot{
		Version:   Version,
		Scope:     t.Name(),
		Timestamp: time.Now().UTC(),
		Variables: make(map[string]value.Value),
	}
	capture(t, "", s.Variables, map[*binding.Table]bool{})
	return s
}

func capture(t *binding.Table, prefix string, out map[string]value.Value, seen map[*binding.Table]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	for _, name := range t.Names() {
		m, _ := t.Lookup(value.NewIdentifier(name))
		path := prefix + name
		switch member := m.(type) {
		case *binding.Variable:
			out[path] = member.Value
		case binding.SubContext:
			if sub, ok := member.Scope.(*binding.Table); ok {
				capture(sub, path+".", out, seen)
			}
		}
	}
}

// Paths returns the captured addresses in sorted order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Variables))
	for p := range s.Variables {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Restore writes every captured variable back into t through SetValue,
// declaring variables that no longer exist. Sub-contexts must already be
// bound. It stops at the first error the table raises.
func (s *Snapshot) Restore(t *binding.Table) error {
	for _, path := range s.Paths() {
		addr, err := value.ParseAddress(path)
		if err != nil {
			return err
		}
		if err := binding.Set(t, addr, s.Variables[path]); err != nil {
			return err
		}
	}
	return nil
}

// Marshal serializes the snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
