package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/elfiee/elfiee/pkg/broadcast"
	"github.com/elfiee/elfiee/pkg/capability"
	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/store"
)

// Handle is the public, concurrency-safe entrypoint to one archive's
// engine actor. Every method sends a message to the actor's mailbox and
// blocks on a dedicated reply channel, so callers never observe a
// partially-applied command regardless of how many goroutines hold the
// same Handle.
type Handle struct {
	actor *Actor

	// mu guards closed. Shutdown takes the write lock and only enqueues
	// its own shutdownMsg once every in-flight send has released the
	// read lock, so no send can win a race against the mailbox being
	// abandoned: it either lands strictly before the shutdown message or
	// is rejected outright once closed is true.
	mu     sync.RWMutex
	closed bool
}

// Spawn starts a new actor for fileID, replays its event history from st,
// and launches its mailbox loop in a new goroutine. b may be nil if no
// subscriber ever needs change notifications for this archive.
func Spawn(fileID string, st store.Interface, tempDir string, registry *capability.Registry, b *broadcast.Broadcaster, log zerolog.Logger) (*Handle, error) {
	a, err := newActor(fileID, st, tempDir, registry, b, log)
	if err != nil {
		return nil, err
	}
	go a.run()
	return &Handle{actor: a}, nil
}

func (h *Handle) send(msg message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return model.EngineClosed()
	}
	select {
	case h.actor.mailbox <- msg:
		return nil
	case <-h.actor.closed:
		return model.EngineClosed()
	}
}

// ProcessCommand submits cmd to the actor and waits for it to be either
// committed or rejected.
func (h *Handle) ProcessCommand(cmd model.Command) ([]model.Event, error) {
	reply := make(chan processCommandResult, 1)
	if err := h.send(processCommandMsg{cmd: cmd, reply: reply}); err != nil {
		return nil, err
	}
	result := <-reply
	return result.events, result.err
}

// GetBlock returns a scratch-dir-injected copy of a block, or nil if it
// does not exist.
func (h *Handle) GetBlock(blockID string) (*model.Block, error) {
	reply := make(chan *model.Block, 1)
	if err := h.send(getBlockMsg{blockID: blockID, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetAllBlocks returns every block, scratch-dir-injected, keyed by ID.
func (h *Handle) GetAllBlocks() (map[string]model.Block, error) {
	reply := make(chan map[string]model.Block, 1)
	if err := h.send(getAllBlocksMsg{reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetAllEditors returns every registered editor, keyed by ID.
func (h *Handle) GetAllEditors() (map[string]model.Editor, error) {
	reply := make(chan map[string]model.Editor, 1)
	if err := h.send(getAllEditorsMsg{reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetAllGrants returns the full grants table, keyed by editor ID.
func (h *Handle) GetAllGrants() (map[string][]model.Grant, error) {
	reply := make(chan map[string][]model.Grant, 1)
	if err := h.send(getAllGrantsMsg{reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetEditorGrants returns every grant held by one editor.
func (h *Handle) GetEditorGrants(editorID string) ([]model.Grant, error) {
	reply := make(chan []model.Grant, 1)
	if err := h.send(getEditorGrantsMsg{editorID: editorID, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetBlockGrants returns every grant naming one block (including wildcard
// grants that cover it).
func (h *Handle) GetBlockGrants(blockID string) ([]model.Grant, error) {
	reply := make(chan []model.Grant, 1)
	if err := h.send(getBlockGrantsMsg{blockID: blockID, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// CheckGrant reports whether editorID may exercise capID on blockID.
func (h *Handle) CheckGrant(editorID, capID, blockID string) (bool, error) {
	reply := make(chan bool, 1)
	if err := h.send(checkGrantMsg{editorID: editorID, capID: capID, blockID: blockID, reply: reply}); err != nil {
		return false, err
	}
	return <-reply, nil
}

// GetAllEvents returns the full persisted event log in insertion order.
func (h *Handle) GetAllEvents() ([]model.Event, error) {
	reply := make(chan getAllEventsResult, 1)
	if err := h.send(getAllEventsMsg{reply: reply}); err != nil {
		return nil, err
	}
	result := <-reply
	return result.events, result.err
}

// Shutdown stops the actor's mailbox loop and waits for it to drain. It is
// safe to call more than once; subsequent calls return model.EngineClosed.
//
// Taking the write lock here blocks until every send already in flight has
// finished enqueuing (or been rejected), so the shutdown message is always
// the last thing any caller can place in the mailbox.
func (h *Handle) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return model.EngineClosed()
	}
	h.closed = true
	h.mu.Unlock()

	done := make(chan struct{})
	select {
	case h.actor.mailbox <- shutdownMsg{done: done}:
	case <-h.actor.closed:
		return model.EngineClosed()
	}
	<-done
	return nil
}
