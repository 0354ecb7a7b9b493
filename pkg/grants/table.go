// Package grants projects core.grant / core.revoke events into the CBAC
// authorization table the state projector and engine actor consult on
// every command.
package grants

import (
	"encoding/json"

	"github.com/elfiee/elfiee/pkg/model"
)

type pair struct {
	capID string
	block string
}

// Table maps editor_id -> set of (cap_id, target_block) grants.
type Table struct {
	grants map[string][]pair
}

// New returns an empty grants table.
func New() *Table {
	return &Table{grants: map[string][]pair{}}
}

// FromEvents projects a fresh table from the full event log. Malformed or
// irrelevant events are ignored; only attributes ending in "/core.grant" or
// "/core.revoke" are consulted.
func FromEvents(events []model.Event) *Table {
	t := New()
	for _, e := range events {
		_, capID, ok := model.SplitAttribute(e.Attribute)
		if !ok {
			continue
		}
		switch capID {
		case "core.grant":
			applyGrantValue(t, e.Value, t.AddGrant)
		case "core.revoke":
			applyGrantValue(t, e.Value, func(editor, cap, block string) { t.RemoveGrant(editor, cap, block) })
		}
	}
	return t
}

func applyGrantValue(_ *Table, raw json.RawMessage, apply func(editor, cap, block string)) {
	var v struct {
		Editor     string `json:"editor"`
		Capability string `json:"capability"`
		Block      string `json:"block"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
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

// AddGrant adds a grant, deduplicated against existing entries.
func (t *Table) AddGrant(editorID, capID, blockID string) {
	p := pair{capID: capID, block: blockID}
	for _, existing := range t.grants[editorID] {
		if existing == p {
			return
		}
	}
	t.grants[editorID] = append(t.grants[editorID], p)
}

// RemoveGrant removes an exact (cap, block) match for editorID, pruning the
// editor's entry entirely once it is left empty.
func (t *Table) RemoveGrant(editorID, capID, blockID string) {
	existing, ok := t.grants[editorID]
	if !ok {
		return
	}
	kept := existing[:0]
	for _, p := range existing {
		if p.capID == capID && p.block == blockID {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		delete(t.grants, editorID)
		return
	}
	t.grants[editorID] = kept
}

// HasGrant reports whether editorID may exercise capID on blockID: an exact
// (capID, blockID) match, or a (capID, "*") wildcard grant.
func (t *Table) HasGrant(editorID, capID, blockID string) bool {
	for _, p := range t.grants[editorID] {
		if p.capID == capID && (p.block == blockID || p.block == model.WildcardBlock) {
			return true
		}
	}
	return false
}

// GetGrants returns the (cap_id, target_block) pairs granted to editorID.
func (t *Table) GetGrants(editorID string) []model.Grant {
	pairs := t.grants[editorID]
	out := make([]model.Grant, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.Grant{EditorID: editorID, CapID: p.capID, Target: p.block})
	}
	return out
}

// GetBlockGrants returns every grant (across all editors) whose target is
// exactly blockID or the wildcard.
func (t *Table) GetBlockGrants(blockID string) []model.Grant {
	var out []model.Grant
	for editorID, pairs := range t.grants {
		for _, p := range pairs {
			if p.block == blockID || p.block == model.WildcardBlock {
				out = append(out, model.Grant{EditorID: editorID, CapID: p.capID, Target: p.block})
			}
		}
	}
	return out
}

// AsMap returns every editor's grants, keyed by editor id.
func (t *Table) AsMap() map[string][]model.Grant {
	out := make(map[string][]model.Grant, len(t.grants))
	for editorID := range t.grants {
		out[editorID] = t.GetGrants(editorID)
	}
	return out
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	out := New()
	for editorID, pairs := range t.grants {
		cp := make([]pair, len(pairs))
		copy(cp, pairs)
		out.grants[editorID] = cp
	}
	return out
}
