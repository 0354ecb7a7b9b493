package main

import (
	"fmt"
	"os"

	"github.com/elfiee/elfiee/engine"
	"github.com/elfiee/elfiee/internal/log"
	"github.com/elfiee/elfiee/internal/metrics"
	"github.com/elfiee/elfiee/pkg/archivefile"
	"github.com/elfiee/elfiee/pkg/broadcast"
	"github.com/elfiee/elfiee/pkg/capability"
	"github.com/elfiee/elfiee/pkg/store"
)

// session is one CLI invocation's working set: an open archive, its event
// store, and a running engine handle for it.
type session struct {
	archive *archivefile.Archive
	store   *store.Store
	handle  *engine.Handle
	fileID  string
}

// openSession opens path if it exists or creates a brand new archive at
// that path otherwise, then spawns an engine over it.
func openSession(path string) (*session, error) {
	var archive *archivefile.Archive
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		archive, err = archivefile.Open(path)
	} else {
		archive, err = archivefile.New()
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	st, err := store.New(archive.EventDBPath())
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("open event store: %w", err)
	}

	registry := capability.NewRegistry()
	onDrop := func(fileID string, subscriberID int) {
		metrics.BroadcastDroppedTotal.Inc()
		log.WithComponent("broadcast").Warn().
			Str("file_id", fileID).Int("subscriber_id", subscriberID).
			Msg("dropped a state change: subscriber buffer was full")
	}
	b, err := broadcast.New(broadcast.DefaultCapacity, onDrop)
	if err != nil {
		st.Close()
		archive.Close()
		return nil, fmt.Errorf("start broadcaster: %w", err)
	}

	fileID := path
	h, err := engine.Spawn(fileID, st, archive.TempPath(), registry, b, log.WithComponent("engine"))
	if err != nil {
		st.Close()
		archive.Close()
		return nil, fmt.Errorf("spawn engine: %w", err)
	}

	return &session{archive: archive, store: st, handle: h, fileID: fileID}, nil
}

// saveAndClose persists the archive back to path and tears everything
// down. Call this at the end of every mutating command.
func (s *session) saveAndClose(path string) error {
	if err := s.handle.Shutdown(); err != nil {
		return fmt.Errorf("shutdown engine: %w", err)
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err := s.archive.Save(path); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return s.archive.Close()
}

// closeWithoutSaving tears the session down without writing the archive
// back out, for read-only commands.
func (s *session) closeWithoutSaving() {
	_ = s.handle.Shutdown()
	_ = s.store.Close()
	_ = s.archive.Close()
}
