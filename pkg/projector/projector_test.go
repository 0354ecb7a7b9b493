package projector

import (
	"encoding/json"
	"testing"

	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/vclock"
)

func ev(entity, attribute string, value any, clock vclock.Clock) model.Event {
	raw, _ := json.Marshal(value)
	return model.Event{EventID: entity + "/" + attribute, Entity: entity, Attribute: attribute, Value: raw, Timestamp: clock}
}

func TestReplayBuildsBlockFromCreate(t *testing.T) {
	events := []model.Event{
		ev("block-1", "alice/core.create", model.BlockCreateValue{
			Name: "doc", Type: "markdown", Owner: "alice",
		}, vclock.Clock{"alice": 1}),
	}
	p := Replay(events)

	b, ok := p.GetBlock("block-1")
	if !ok {
		t.Fatal("expected block-1 to exist after create")
	}
	if b.Name != "doc" || b.BlockType != "markdown" || b.Owner != "alice" {
		t.Fatalf("unexpected block: %+v", b)
	}
}

func TestReplayDeleteRemovesBlock(t *testing.T) {
	events := []model.Event{
		ev("block-1", "alice/core.create", model.BlockCreateValue{Name: "doc", Owner: "alice"}, vclock.Clock{"alice": 1}),
		ev("block-1", "alice/core.delete", map[string]any{}, vclock.Clock{"alice": 2}),
	}
	p := Replay(events)

	if _, ok := p.GetBlock("block-1"); ok {
		t.Fatal("expected block-1 to be gone after delete")
	}
}

func TestReplayLinkSetsChildren(t *testing.T) {
	events := []model.Event{
		ev("block-1", "alice/core.create", model.BlockCreateValue{Name: "parent", Owner: "alice"}, vclock.Clock{"alice": 1}),
		ev("block-1", "alice/core.link", map[string]any{
			"children": map[string][]string{"implement": {"block-2"}},
		}, vclock.Clock{"alice": 2}),
	}
	p := Replay(events)

	b, _ := p.GetBlock("block-1")
	if !b.HasChild("implement", "block-2") {
		t.Fatalf("expected block-1 to link to block-2, got %+v", b.Children)
	}
}

func TestReplayWriteMergesContentsWithoutDroppingExisting(t *testing.T) {
	events := []model.Event{
		ev("block-1", "alice/core.create", model.BlockCreateValue{
			Name: "doc", Owner: "alice", Contents: map[string]any{"title": "v1"},
		}, vclock.Clock{"alice": 1}),
		ev("block-1", "alice/body.write", map[string]any{
			"contents": map[string]any{"body": "hello"},
		}, vclock.Clock{"alice": 2}),
	}
	p := Replay(events)

	b, _ := p.GetBlock("block-1")
	if b.Contents["title"] != "v1" || b.Contents["body"] != "hello" {
		t.Fatalf("expected merged contents, got %+v", b.Contents)
	}
}

func TestReplayEditorCreateRegistersEditor(t *testing.T) {
	events := []model.Event{
		ev("editor-1", "root/editor.create", model.Editor{EditorID: "editor-1", Name: "Alice"}, vclock.Clock{"root": 1}),
	}
	p := Replay(events)

	if _, ok := p.Editors["editor-1"]; !ok {
		t.Fatal("expected editor-1 to be registered")
	}
}

func TestReplayGrantThenRevokeLeavesNoGrant(t *testing.T) {
	events := []model.Event{
		ev("block-1", "owner/core.grant", map[string]string{"editor": "bob", "capability": "core.link", "block": "block-1"}, vclock.Clock{"owner": 1}),
		ev("block-1", "owner/core.revoke", map[string]string{"editor": "bob", "capability": "core.link", "block": "block-1"}, vclock.Clock{"owner": 2}),
	}
	p := Replay(events)

	if p.Grants.HasGrant("bob", "core.link", "block-1") {
		t.Fatal("expected the revoke to cancel the grant")
	}
}

func TestIsAuthorizedOwnerAlwaysAllowed(t *testing.T) {
	p := New()
	p.Blocks["block-1"] = model.Block{BlockID: "block-1", Owner: "alice"}

	if !p.IsAuthorized("alice", "core.delete", "block-1") {
		t.Fatal("expected owner to always be authorized")
	}
	if p.IsAuthorized("bob", "core.delete", "block-1") {
		t.Fatal("expected non-owner without a grant to be unauthorized")
	}
}

func TestHasConflictDetectsStaleExpectedCount(t *testing.T) {
	p := New()
	p.EditorCounts = vclock.Clock{"alice": 5}

	if !p.HasConflict("alice", 3) {
		t.Fatal("expected a command built against an earlier count to conflict")
	}
	if p.HasConflict("alice", 5) {
		t.Fatal("expected a command built against the current count to not conflict")
	}
}

func TestApplyEventIgnoresMalformedAttribute(t *testing.T) {
	p := New()
	p.ApplyEvent(model.Event{Entity: "block-1", Attribute: "no-slash-here", Value: json.RawMessage(`{}`)})

	if len(p.Blocks) != 0 {
		t.Fatal("expected malformed attribute to be silently ignored")
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	events := []model.Event{
		ev("block-1", "alice/core.create", model.BlockCreateValue{Name: "doc", Owner: "alice"}, vclock.Clock{"alice": 1}),
		ev("block-1", "alice/core.update_metadata", map[string]any{"metadata": model.Metadata{}}, vclock.Clock{"alice": 2}),
	}
	p1 := Replay(events)
	p2 := Replay(events)

	b1, _ := p1.GetBlock("block-1")
	b2, _ := p2.GetBlock("block-1")
	if b1.Name != b2.Name || b1.Owner != b2.Owner {
		t.Fatal("expected replaying the same events twice to produce identical state")
	}
}
