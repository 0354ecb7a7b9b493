package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/elfiee/elfiee/pkg/broadcast"
	"github.com/elfiee/elfiee/pkg/capability"
	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/store"
)

// Manager owns the set of currently-running archive actors, keyed by
// file ID. Go has no ready-made concurrent map in the example pack's
// dependency set, so this is a plain mutex-guarded map rather than an
// imported concurrent-map type.
type Manager struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	log     zerolog.Logger
}

// NewManager returns an empty manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{handles: map[string]*Handle{}, log: log}
}

// SpawnEngine starts a new actor for fileID and registers it. It returns
// an error if an engine for fileID is already running.
func (m *Manager) SpawnEngine(fileID string, st store.Interface, tempDir string, registry *capability.Registry, b *broadcast.Broadcaster) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handles[fileID]; exists {
		return nil, model.ArchiveInvalid("engine already running for file_id " + fileID)
	}
	h, err := Spawn(fileID, st, tempDir, registry, b, m.log)
	if err != nil {
		return nil, err
	}
	m.handles[fileID] = h
	return h, nil
}

// GetEngine returns the running handle for fileID, if any.
func (m *Manager) GetEngine(fileID string) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[fileID]
	return h, ok
}

// HasEngine reports whether an engine for fileID is currently running.
func (m *Manager) HasEngine(fileID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handles[fileID]
	return ok
}

// ShutdownEngine stops and deregisters the engine for fileID. It is a
// no-op if no such engine is running.
func (m *Manager) ShutdownEngine(fileID string) error {
	m.mu.Lock()
	h, ok := m.handles[fileID]
	if ok {
		delete(m.handles, fileID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return h.Shutdown()
}

// ShutdownAll stops every running engine. Errors are collected but do not
// stop the remaining engines from being shut down.
func (m *Manager) ShutdownAll() []error {
	m.mu.Lock()
	handles := make(map[string]*Handle, len(m.handles))
	for id, h := range m.handles {
		handles[id] = h
	}
	m.handles = map[string]*Handle{}
	m.mu.Unlock()

	var errs []error
	for id, h := range handles {
		if err := h.Shutdown(); err != nil {
			errs = append(errs, err)
			m.log.Warn().Err(err).Str("file_id", id).Msg("engine shutdown failed")
		}
	}
	return errs
}

// Count returns the number of currently-running engines.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}
