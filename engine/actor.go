// Package engine runs one archive's serialized command loop: a single
// goroutine owns the projector, the event store, and the scratch
// directory, and every public operation is a message round-tripped
// through its mailbox. Nothing outside this package ever mutates state
// directly — that is what makes replay, conflict detection, and
// broadcast ordering all agree with each other.
package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/elfiee/elfiee/internal/metrics"
	"github.com/elfiee/elfiee/pkg/broadcast"
	"github.com/elfiee/elfiee/pkg/capability"
	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/projector"
	"github.com/elfiee/elfiee/pkg/snapshot"
	"github.com/elfiee/elfiee/pkg/store"
	"github.com/elfiee/elfiee/pkg/vclock"
)

const implementRelation = "implement"

// Actor owns one archive's entire mutable state. It is never touched
// concurrently: every field below is read and written only from the
// goroutine running loop().
type Actor struct {
	fileID      string
	store       store.Interface
	tempDir     string
	registry    *capability.Registry
	state       *projector.Projector
	broadcaster *broadcast.Broadcaster
	log         zerolog.Logger
	mailbox     chan message
	closed      chan struct{}

	// lastBlockTypes is the set of block_type label values last reported
	// to the blocks-total gauge, so a type that disappears (its last
	// block deleted) gets its stale label removed instead of left behind
	// at a frozen nonzero value.
	lastBlockTypes map[string]bool
}

// newActor builds an actor pre-loaded from the store's full event history.
func newActor(fileID string, st store.Interface, tempDir string, registry *capability.Registry, b *broadcast.Broadcaster, log zerolog.Logger) (*Actor, error) {
	events, err := st.GetAllEvents()
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", fileID, err)
	}
	a := &Actor{
		fileID:         fileID,
		store:          st,
		tempDir:        tempDir,
		registry:       registry,
		state:          projector.Replay(events),
		broadcaster:    b,
		log:            log.With().Str("file_id", fileID).Logger(),
		mailbox:        make(chan message, 32),
		closed:         make(chan struct{}),
		lastBlockTypes: map[string]bool{},
	}
	a.updateBlocksGauge()
	return a, nil
}

// run drains the mailbox until shutdown is requested. It is meant to be
// started with `go a.run()` once, immediately after construction.
func (a *Actor) run() {
	defer close(a.closed)
	for msg := range a.mailbox {
		switch m := msg.(type) {
		case processCommandMsg:
			events, err := a.processCommand(m.cmd)
			m.reply <- processCommandResult{events: events, err: err}
		case getBlockMsg:
			block, ok := a.state.GetBlock(m.blockID)
			if !ok {
				m.reply <- nil
				continue
			}
			block.InjectBlockDir(a.blockDir(m.blockID))
			m.reply <- &block
		case getAllBlocksMsg:
			out := make(map[string]model.Block, len(a.state.Blocks))
			for id, b := range a.state.Blocks {
				cp := b.Clone()
				cp.InjectBlockDir(a.blockDir(id))
				out[id] = cp
			}
			m.reply <- out
		case getAllEditorsMsg:
			out := make(map[string]model.Editor, len(a.state.Editors))
			for id, ed := range a.state.Editors {
				out[id] = ed
			}
			m.reply <- out
		case getAllGrantsMsg:
			m.reply <- a.state.Grants.AsMap()
		case getEditorGrantsMsg:
			m.reply <- a.state.Grants.GetGrants(m.editorID)
		case getBlockGrantsMsg:
			m.reply <- a.state.Grants.GetBlockGrants(m.blockID)
		case checkGrantMsg:
			m.reply <- a.state.IsAuthorized(m.editorID, m.capID, m.blockID)
		case getAllEventsMsg:
			events, err := a.store.GetAllEvents()
			m.reply <- getAllEventsResult{events: events, err: err}
		case shutdownMsg:
			if a.broadcaster != nil {
				a.broadcaster.Close()
			}
			close(m.done)
			return
		}
	}
}

func (a *Actor) blockDir(blockID string) string {
	return a.tempDir + "/block-" + blockID
}

// ensureBlockDir creates a block's scratch directory, tolerating it already
// existing, and returns the path. Handlers are only ever given a block
// whose scratch directory is guaranteed to exist, so their own I/O can stay
// confined to it without a defensive mkdir of their own.
func (a *Actor) ensureBlockDir(blockID string) (string, error) {
	dir := a.blockDir(blockID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", model.ScratchIOFailure(blockID, err)
	}
	return dir, nil
}

// updateBlocksGauge reports the current block count by type for this
// archive, clearing the gauge for any type that no longer has any blocks.
func (a *Actor) updateBlocksGauge() {
	counts := map[string]int{}
	for _, b := range a.state.Blocks {
		counts[b.BlockType]++
	}
	for t := range a.lastBlockTypes {
		if _, ok := counts[t]; !ok {
			metrics.BlocksTotal.DeleteLabelValues(a.fileID, t)
		}
	}
	a.lastBlockTypes = make(map[string]bool, len(counts))
	for t, n := range counts {
		metrics.BlocksTotal.WithLabelValues(a.fileID, t).Set(float64(n))
		a.lastBlockTypes[t] = true
	}
}

// processCommand runs the full command pipeline:
//
//  1. resolve the capability handler
//  2. fetch the target block, if the capability needs one
//  3. create (tolerating already-exists) the block's scratch directory and
//     inject it into the fetched block
//  4. authorize the editor (owner or matching grant)
//  5. reject self-links and cyclic "implement" links before the handler runs
//  6. invoke the handler to produce candidate events
//  7. for a core.create event, create the new block's scratch directory and
//     re-inject _block_dir into its own value.contents, mirroring what a
//     later read of the same block would return
//  8. log (but do not reject) a stale command detected against the
//     editor's own prior count — conflicts are advisory, not a rejection
//  9. stamp each event's vector clock and strip the runtime-only scratch
//     directory from its value
//  10. persist the batch atomically
//  11. project the batch into in-memory state
//  12. write derived snapshot files for any block the batch touched
//  13. broadcast the stripped events to subscribers
//  14. return the persisted events to the caller
func (a *Actor) processCommand(cmd model.Command) (events []model.Event, err error) {
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.CommandsTotal.WithLabelValues(cmd.CapID, outcome).Inc()
		timer.ObserveDurationVec(metrics.CommandDuration, cmd.CapID)
	}()

	handler, ok := a.registry.Get(cmd.CapID)
	if !ok {
		return nil, model.UnknownCapability(cmd.CapID)
	}

	var block *model.Block
	if !capability.BlockFree(cmd.CapID) {
		b, ok := a.state.GetBlock(cmd.BlockID)
		if !ok {
			return nil, model.BlockNotFound(cmd.BlockID)
		}
		dir, err := a.ensureBlockDir(cmd.BlockID)
		if err != nil {
			return nil, err
		}
		b.InjectBlockDir(dir)
		block = &b

		if !a.state.IsAuthorized(cmd.EditorID, cmd.CapID, cmd.BlockID) {
			return nil, model.Unauthorized(cmd.EditorID, cmd.CapID, cmd.BlockID)
		}

		if cmd.CapID == "core.link" {
			if err := a.checkLinkPayload(cmd); err != nil {
				return nil, err
			}
		}
	}

	produced, err := handler(cmd, block)
	if err != nil {
		return nil, model.HandlerError(cmd.CapID, err)
	}

	if cmd.CapID == "core.create" {
		for i, e := range produced {
			dir, err := a.ensureBlockDir(e.Entity)
			if err != nil {
				return nil, err
			}
			injected, err := injectEventValueBlockDir(e.Value, dir)
			if err != nil {
				return nil, model.ScratchIOFailure(e.Entity, err)
			}
			produced[i].Value = injected
		}
	}

	expected := a.state.EditorCounts.Get(cmd.EditorID)
	if a.state.HasConflict(cmd.EditorID, expected) {
		a.log.Warn().Str("editor_id", cmd.EditorID).Msg("stale command: editor has advanced since this command was issued, committing anyway")
		metrics.StaleCommandsTotal.Inc()
	}

	finalEvents := make([]model.Event, 0, len(produced))
	for _, e := range produced {
		clock, _ := vclock.Stamp(a.state.EditorCounts, cmd.EditorID)
		e.Timestamp = clock
		a.state.EditorCounts = clock

		stripped, err := stripEventValue(e.Value)
		if err != nil {
			return nil, model.PersistError(err)
		}
		e.Value = stripped
		finalEvents = append(finalEvents, e)
	}

	if err := a.store.AppendEvents(finalEvents); err != nil {
		return nil, model.PersistError(err)
	}
	metrics.EventsAppendedTotal.Add(float64(len(finalEvents)))

	touched := map[string]bool{}
	for _, e := range finalEvents {
		a.state.ApplyEvent(e)
		touched[e.Entity] = true
	}
	a.updateBlocksGauge()

	for blockID := range touched {
		if b, ok := a.state.GetBlock(blockID); ok {
			if err := snapshot.Write(a.tempDir, blockID, b.BlockType, b.Name, b.Contents); err != nil {
				a.log.Warn().Err(err).Str("block_id", blockID).Msg("snapshot write failed")
			}
		}
	}

	if a.broadcaster != nil {
		a.broadcaster.Publish(broadcast.StateChange{FileID: a.fileID, Events: finalEvents})
	}

	return finalEvents, nil
}

// checkLinkPayload rejects a core.link command before the handler runs if
// it would create a self-link or a cycle in the "implement" relation.
// Other relations are unordered and never checked for cycles.
func (a *Actor) checkLinkPayload(cmd model.Command) error {
	var p struct {
		Relation string `json:"relation"`
		TargetID string `json:"target_id"`
	}
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return model.HandlerError(cmd.CapID, err)
	}
	if p.TargetID == cmd.BlockID {
		return model.CycleDetected(cmd.BlockID, p.TargetID)
	}
	if p.Relation != implementRelation {
		return nil
	}
	if a.reachable(p.TargetID, cmd.BlockID, map[string]bool{}) {
		return model.CycleDetected(cmd.BlockID, p.TargetID)
	}
	return nil
}

// reachable reports whether target is reachable from start by following
// only the "implement" relation's children — i.e. whether linking
// cmd.BlockID -> target would close a cycle back to cmd.BlockID.
func (a *Actor) reachable(start, target string, seen map[string]bool) bool {
	if start == target {
		return true
	}
	if seen[start] {
		return false
	}
	seen[start] = true
	block, ok := a.state.GetBlock(start)
	if !ok {
		return false
	}
	for _, child := range block.Children[implementRelation] {
		if a.reachable(child, target, seen) {
			return true
		}
	}
	return false
}

// stripEventValue removes the runtime-only scratch directory key from an
// event value's "contents" field, if present, so it never reaches the
// store. Values with no "contents" field pass through unmodified.
func stripEventValue(raw json.RawMessage) (json.RawMessage, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		// Not an object (e.g. a bare array or scalar) — nothing to strip.
		return raw, nil
	}
	contents, ok := generic["contents"].(map[string]any)
	if !ok {
		return raw, nil
	}
	generic["contents"] = model.StripBlockDir(contents)
	return json.Marshal(generic)
}

// injectEventValueBlockDir sets _block_dir on an event value's "contents"
// field, creating the field if the value has none. This is only ever used
// on a core.create event immediately after its scratch directory is
// created — the injected value is stripped again before persistence by
// stripEventValue, just like every other event's.
func injectEventValueBlockDir(raw json.RawMessage, dir string) (json.RawMessage, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	contents, ok := generic["contents"].(map[string]any)
	if !ok || contents == nil {
		contents = map[string]any{}
	}
	contents[model.BlockDirKey] = dir
	generic["contents"] = contents
	return json.Marshal(generic)
}
