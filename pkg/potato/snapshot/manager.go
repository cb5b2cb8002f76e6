package snapshot

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/observability"
)

// Manager saves and restores table snapshots through a Store.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger logs saves and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Save captures t and stores it under a new random ID, which it returns.
func (m *Manager) Save(t *binding.Table, label string) (string, error) {
	s := Capture(t)
	s.ID = uuid.NewString()
	s.Label = label

	data, err := s.Marshal()
	if err != nil {
		observability.LogSnapshotError(m.logger, s.ID, "marshal", err)
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := m.store.Put(s.ID, label, data); err != nil {
		observability.LogSnapshotError(m.logger, s.ID, "save", err)
		return "", err
	}
	observability.LogSnapshot(m.logger, s.ID, len(s.Variables), len(data))
	return s.ID, nil
}

// Load fetches and decodes the snapshot stored under id.
func (m *Manager) Load(id string) (*Snapshot, error) {
	data, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	s, err := Unmarshal(data)
	if err != nil {
		observability.LogSnapshotError(m.logger, id, "unmarshal", err)
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	if s.Version > Version {
		return nil, fmt.Errorf("snapshot %s has unsupported version %d", id, s.Version)
	}
	return s, nil
}

// Restore loads the snapshot stored under id into t.
func (m *Manager) Restore(id string, t *binding.Table) error {
	s, err := m.Load(id)
	if err != nil {
		return err
	}
	if err := s.Restore(t); err != nil {
		observability.LogSnapshotError(m.logger, id, "restore", err)
		return err
	}
	return nil
}

// List returns metadata for every stored snapshot, oldest first.
func (m *Manager) List() ([]Info, error) {
	return m.store.List()
}
