package capability

import (
	"encoding/json"
	"testing"

	"github.com/elfiee/elfiee/pkg/model"
)

func payload(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}

func TestRegistryHasAllBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, capID := range []string{
		"core.create", "core.link", "core.unlink", "core.delete",
		"core.grant", "core.revoke", "core.update_metadata", "editor.create",
	} {
		if _, ok := r.Get(capID); !ok {
			t.Errorf("expected built-in %q to be registered", capID)
		}
	}
	if _, ok := r.Get("nonexistent.cap"); ok {
		t.Error("expected unregistered capability to be absent")
	}
}

func TestBlockFreeMatchesCreateCapabilities(t *testing.T) {
	if !BlockFree("core.create") || !BlockFree("editor.create") {
		t.Fatal("expected core.create and editor.create to be block-free")
	}
	if BlockFree("core.link") {
		t.Fatal("expected core.link to require a block")
	}
}

func TestHandleCoreCreateRequiresNameAndType(t *testing.T) {
	cmd := model.Command{EditorID: "alice", Payload: payload(CreateBlockPayload{Name: "doc"})}
	if _, err := handleCoreCreate(cmd, nil); err == nil {
		t.Fatal("expected missing block_type to error")
	}

	cmd = model.Command{EditorID: "alice", Payload: payload(CreateBlockPayload{Name: "doc", BlockType: "markdown"})}
	events, err := handleCoreCreate(cmd, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	var v model.BlockCreateValue
	if err := json.Unmarshal(events[0].Value, &v); err != nil {
		t.Fatalf("unable to decode event value: %v", err)
	}
	if v.Owner != "alice" || v.Type != "markdown" {
		t.Fatalf("unexpected create value: %+v", v)
	}
}

func TestHandleCoreLinkAppendsWithoutDuplicating(t *testing.T) {
	block := &model.Block{BlockID: "block-1", Children: map[string][]string{"implement": {"block-2"}}}
	cmd := model.Command{EditorID: "alice", BlockID: "block-1", Payload: payload(LinkBlockPayload{Relation: "implement", TargetID: "block-2"})}

	events, err := handleCoreLink(cmd, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v struct {
		Children map[string][]string `json:"children"`
	}
	json.Unmarshal(events[0].Value, &v)
	if len(v.Children["implement"]) != 1 {
		t.Fatalf("expected no duplicate link, got %v", v.Children["implement"])
	}
}

func TestHandleCoreUnlinkRemovesTarget(t *testing.T) {
	block := &model.Block{BlockID: "block-1", Children: map[string][]string{"implement": {"block-2", "block-3"}}}
	cmd := model.Command{EditorID: "alice", BlockID: "block-1", Payload: payload(UnlinkBlockPayload{Relation: "implement", TargetID: "block-2"})}

	events, err := handleCoreUnlink(cmd, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v struct {
		Children map[string][]string `json:"children"`
	}
	json.Unmarshal(events[0].Value, &v)
	if len(v.Children["implement"]) != 1 || v.Children["implement"][0] != "block-3" {
		t.Fatalf("expected only block-3 to remain, got %v", v.Children["implement"])
	}
}

func TestHandleCoreGrantDefaultsToWildcardBlock(t *testing.T) {
	block := &model.Block{BlockID: "block-1"}
	cmd := model.Command{EditorID: "alice", Payload: payload(GrantPayload{TargetEditor: "bob", Capability: "core.link"})}

	events, err := handleCoreGrant(cmd, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v map[string]string
	json.Unmarshal(events[0].Value, &v)
	if v["block"] != model.WildcardBlock {
		t.Fatalf("expected default target block to be the wildcard, got %q", v["block"])
	}
}

func TestHandleEditorCreateRequiresName(t *testing.T) {
	cmd := model.Command{EditorID: "root", Payload: payload(EditorCreatePayload{})}
	if _, err := handleEditorCreate(cmd, nil); err == nil {
		t.Fatal("expected missing name to error")
	}
}

func TestDecodePayloadRejectsEmptyPayload(t *testing.T) {
	cmd := model.Command{EditorID: "alice"}
	var p CreateBlockPayload
	if err := decodePayload(cmd, &p); err == nil {
		t.Fatal("expected empty payload to error")
	}
}
