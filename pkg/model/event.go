package model

import (
	"encoding/json"
	"strings"

	"github.com/elfiee/elfiee/pkg/vclock"
)

// Event is an immutable fact appended to the event store. attribute is
// always exactly "{editor_id}/{cap_id}" — the one structural separator the
// state projector parses.
type Event struct {
	EventID   string          `json:"event_id"`
	Entity    string          `json:"entity"`
	Attribute string          `json:"attribute"`
	Value     json.RawMessage `json:"value"`
	Timestamp vclock.Clock    `json:"timestamp"`
}

// SplitAttribute parses "{editor_id}/{cap_id}" on its first slash. A
// malformed attribute (no slash) returns ok=false; callers must ignore such
// events silently rather than erroring the whole replay.
func SplitAttribute(attribute string) (editorID, capID string, ok bool) {
	i := strings.IndexByte(attribute, '/')
	if i < 0 {
		return "", "", false
	}
	return attribute[:i], attribute[i+1:], true
}

// Attribute builds the canonical "{editor_id}/{cap_id}" attribute string.
func Attribute(editorID, capID string) string {
	return editorID + "/" + capID
}

// Command is a request to the engine actor to execute a capability.
type Command struct {
	EditorID string          `json:"editor_id"`
	CapID    string          `json:"cap_id"`
	BlockID  string          `json:"block_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}
