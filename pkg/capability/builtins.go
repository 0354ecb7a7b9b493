package capability

import (
	"encoding/json"
	"fmt"

	"github.com/elfiee/elfiee/pkg/model"
)

func newEvent(entity, attribute string, value any) (model.Event, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		EventID:   newEventID(),
		Entity:    entity,
		Attribute: attribute,
		Value:     raw,
	}, nil
}

func decodePayload(cmd model.Command, out any) error {
	if len(cmd.Payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(cmd.Payload, out)
}

// handleCoreCreate builds a brand new block. No block is supplied — there
// is nothing to authorize yet; ownership is established by this very event.
func handleCoreCreate(cmd model.Command, _ *model.Block) ([]model.Event, error) {
	var p CreateBlockPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.create payload: %w", err)
	}
	if p.Name == "" || p.BlockType == "" {
		return nil, fmt.Errorf("core.create requires name and block_type")
	}
	blockID := newBlockID()
	value := model.BlockCreateValue{
		Name:     p.Name,
		Type:     p.BlockType,
		Owner:    cmd.EditorID,
		Contents: map[string]any{},
		Children: map[string][]string{},
		Metadata: model.NewMetadata(),
	}
	ev, err := newEvent(blockID, model.Attribute(cmd.EditorID, "core.create"), value)
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreLink appends target_id under relation in the block's children.
// Cycle and self-link checks happen in the engine actor before this handler
// ever runs; this handler only produces the resulting children map.
func handleCoreLink(cmd model.Command, block *model.Block) ([]model.Event, error) {
	var p LinkBlockPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.link payload: %w", err)
	}
	if p.Relation == "" || p.TargetID == "" {
		return nil, fmt.Errorf("core.link requires relation and target_id")
	}
	children := cloneChildren(block.Children)
	if !contains(children[p.Relation], p.TargetID) {
		children[p.Relation] = append(children[p.Relation], p.TargetID)
	}
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.link"),
		map[string]any{"children": children})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreUnlink removes target_id from relation in the block's children.
func handleCoreUnlink(cmd model.Command, block *model.Block) ([]model.Event, error) {
	var p UnlinkBlockPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.unlink payload: %w", err)
	}
	children := cloneChildren(block.Children)
	children[p.Relation] = remove(children[p.Relation], p.TargetID)
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.unlink"),
		map[string]any{"children": children})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreDelete removes a block outright. No payload is required.
func handleCoreDelete(cmd model.Command, block *model.Block) ([]model.Event, error) {
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.delete"), map[string]any{})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreGrant authorizes target_editor to exercise capability on
// target_block (or every block, for the wildcard).
func handleCoreGrant(cmd model.Command, block *model.Block) ([]model.Event, error) {
	var p GrantPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.grant payload: %w", err)
	}
	p.applyDefaults()
	if p.TargetEditor == "" || p.Capability == "" {
		return nil, fmt.Errorf("core.grant requires target_editor and capability")
	}
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.grant"), map[string]any{
		"editor":     p.TargetEditor,
		"capability": p.Capability,
		"block":      p.TargetBlock,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreRevoke removes a previously granted authorization.
func handleCoreRevoke(cmd model.Command, block *model.Block) ([]model.Event, error) {
	var p GrantPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.revoke payload: %w", err)
	}
	p.applyDefaults()
	if p.TargetEditor == "" || p.Capability == "" {
		return nil, fmt.Errorf("core.revoke requires target_editor and capability")
	}
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.revoke"), map[string]any{
		"editor":     p.TargetEditor,
		"capability": p.Capability,
		"block":      p.TargetBlock,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleCoreUpdateMetadata replaces a block's metadata wholesale, touching
// updated_at as part of the replacement.
func handleCoreUpdateMetadata(cmd model.Command, block *model.Block) ([]model.Event, error) {
	var p UpdateMetadataPayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("core.update_metadata payload: %w", err)
	}
	p.Metadata.Touch()
	ev, err := newEvent(block.BlockID, model.Attribute(cmd.EditorID, "core.update_metadata"),
		map[string]any{"metadata": p.Metadata})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// handleEditorCreate registers a new editor identity.
func handleEditorCreate(cmd model.Command, _ *model.Block) ([]model.Event, error) {
	var p EditorCreatePayload
	if err := decodePayload(cmd, &p); err != nil {
		return nil, fmt.Errorf("editor.create payload: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("editor.create requires name")
	}
	editor := model.NewEditorWithType(newEditorID(), p.Name, p.EditorType)
	ev, err := newEvent(editor.EditorID, model.Attribute(cmd.EditorID, "editor.create"), editor)
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

func cloneChildren(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for rel, ids := range in {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[rel] = cp
	}
	return out
}

func contains(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func remove(ids []string, target string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
