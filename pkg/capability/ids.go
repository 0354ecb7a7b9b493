package capability

import (
	"github.com/google/uuid"
	"go.jetify.com/typeid"
)

// newBlockID and newEditorID use plain UUIDs — block and editor identifiers
// are referenced by value throughout the archive (owner fields, children
// lists, grant targets) and gain nothing from a type prefix.
func newBlockID() string  { return uuid.NewString() }
func newEditorID() string { return uuid.NewString() }

// newEventID mints a type-prefixed, sortable id for a freshly created event
// so event ids are visually distinguishable from block/editor ids in logs
// and archives. Falls back to an "evt_"-prefixed UUID if typeid generation ever errors
// (it only does so on prefix validation, which "evt" always satisfies).
func newEventID() string {
	tid, err := typeid.WithPrefix("evt")
	if err != nil {
		return "evt_" + uuid.NewString()
	}
	return tid.String()
}
