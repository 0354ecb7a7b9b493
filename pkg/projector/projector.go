// Package projector rebuilds the in-memory block/editor/grant state by
// replaying the append-only event log. Replay is the only way this state
// ever comes into being: nothing here is ever mutated except through
// ApplyEvent, and constructing a fresh Projector from the same events
// always yields identical state.
package projector

import (
	"encoding/json"

	"github.com/elfiee/elfiee/pkg/grants"
	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/vclock"
)

// Projector holds the full derived state of one archive.
type Projector struct {
	Blocks       map[string]model.Block
	Editors      map[string]model.Editor
	Grants       *grants.Table
	EditorCounts vclock.Clock
}

// New returns an empty projector.
func New() *Projector {
	return &Projector{
		Blocks:       map[string]model.Block{},
		Editors:      map[string]model.Editor{},
		Grants:       grants.New(),
		EditorCounts: vclock.Clock{},
	}
}

// Replay folds events, in order, through ApplyEvent onto a fresh projector.
func Replay(events []model.Event) *Projector {
	p := New()
	for _, e := range events {
		p.ApplyEvent(e)
	}
	return p
}

// ApplyEvent is the single mutation entrypoint. It first merges the event's
// timestamp into editor_counts, then dispatches on the event's capability.
// A malformed attribute (no "/") is ignored silently, matching replay's
// tolerance for legacy or hand-edited logs.
func (p *Projector) ApplyEvent(e model.Event) {
	p.EditorCounts = vclock.Merge(p.EditorCounts, e.Timestamp)

	_, capID, ok := model.SplitAttribute(e.Attribute)
	if !ok {
		return
	}

	switch {
	case capID == "core.create":
		p.applyCreate(e)
	case capID == "core.unlink":
		p.applyUnlink(e)
	case capID == "core.delete":
		delete(p.Blocks, e.Entity)
	case capID == "core.update_metadata":
		p.applyUpdateMetadata(e)
	case capID == "core.grant":
		applyGrantRevoke(p.Grants, e, p.Grants.AddGrant)
	case capID == "core.revoke":
		applyGrantRevoke(p.Grants, e, func(editor, cap, block string) { p.Grants.RemoveGrant(editor, cap, block) })
	case capID == "editor.create":
		p.applyEditorCreate(e)
	case hasSuffix(capID, ".write") || hasSuffix(capID, ".link"):
		p.applyWriteOrLink(e)
	default:
		// No projection effect: a handler with side effects beyond
		// content/children/metadata must encode them in one of the
		// canonical shapes above, or the projector must be extended.
	}
}

func (p *Projector) applyCreate(e model.Event) {
	var v model.BlockCreateValue
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return
	}
	p.Blocks[e.Entity] = v.ToBlock(e.Entity)
}

func (p *Projector) applyWriteOrLink(e model.Event) {
	block, ok := p.Blocks[e.Entity]
	if !ok {
		return
	}
	var patch struct {
		Contents map[string]any      `json:"contents"`
		Children map[string][]string `json:"children"`
		Metadata *model.Metadata     `json:"metadata"`
	}
	if err := json.Unmarshal(e.Value, &patch); err != nil {
		return
	}
	if patch.Contents != nil {
		merged := block.Clone().Contents
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range patch.Contents {
			merged[k] = v
		}
		block.Contents = merged
	}
	if patch.Children != nil {
		block.Children = patch.Children
	}
	if patch.Metadata != nil {
		block.Metadata = *patch.Metadata
	}
	p.Blocks[e.Entity] = block
}

func (p *Projector) applyUnlink(e model.Event) {
	block, ok := p.Blocks[e.Entity]
	if !ok {
		return
	}
	var v struct {
		Children map[string][]string `json:"children"`
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return
	}
	block.Children = v.Children
	p.Blocks[e.Entity] = block
}

func (p *Projector) applyUpdateMetadata(e model.Event) {
	block, ok := p.Blocks[e.Entity]
	if !ok {
		return
	}
	var v struct {
		Metadata model.Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return
	}
	block.Metadata = v.Metadata
	p.Blocks[e.Entity] = block
}

func (p *Projector) applyEditorCreate(e model.Event) {
	var ed model.Editor
	if err := json.Unmarshal(e.Value, &ed); err != nil {
		return
	}
	if ed.EditorID == "" {
		ed.EditorID = e.Entity
	}
	p.Editors[ed.EditorID] = ed
}

func applyGrantRevoke(_ *grants.Table, e model.Event, apply func(editor, cap, block string)) {
	var v struct {
		Editor     string `json:"editor"`
		Capability string `json:"capability"`
		Block      string `json:"block"`
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return
	}
	if v.Editor == "" || v.Capability == "" {
		return
	}
	if v.Block == "" {
		v.Block = model.WildcardBlock
	}
	apply(v.Editor, v.Capability, v.Block)
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// GetBlock returns a clone of the block, or ok=false if absent.
func (p *Projector) GetBlock(blockID string) (model.Block, bool) {
	b, ok := p.Blocks[blockID]
	if !ok {
		return model.Block{}, false
	}
	return b.Clone(), true
}

// IsAuthorized reports whether editorID may exercise capID on blockID:
// either editorID owns the block, or the grants table has a matching grant.
func (p *Projector) IsAuthorized(editorID, capID, blockID string) bool {
	if block, ok := p.Blocks[blockID]; ok && block.Owner == editorID {
		return true
	}
	return p.Grants.HasGrant(editorID, capID, blockID)
}

// HasConflict reports whether a command built against expectedCount is
// stale: the editor has since advanced further than the command assumed.
func (p *Projector) HasConflict(editorID string, expectedCount int64) bool {
	return expectedCount < p.EditorCounts.Get(editorID)
}
