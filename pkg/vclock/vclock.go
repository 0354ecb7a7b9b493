// Package vclock implements the per-editor vector clock stamped on every
// event. It generalizes a single Lamport scalar counter to one counter per
// editor: instead of one process advancing one integer, each editor owns
// its own monotonically increasing count inside a shared map, and the only
// cross-editor operation is an element-wise merge (take the max seen for
// each editor), never a combined "tick".
//
// Clocks here are used for stale-write detection, not for ordering: the
// event log's insertion order is authoritative, and a clock is never
// consulted to decide whether one event happened before another.
package vclock

// Clock maps editor id to its monotonically non-decreasing count.
type Clock map[string]int64

// Clone returns an independent copy; mutating the result never affects c.
func (c Clock) Clone() Clock {
	out := make(Clock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Get returns the count recorded for editor, or 0 if the editor has never
// been stamped.
func (c Clock) Get(editor string) int64 {
	return c[editor]
}

// Stamp clones c, advances editor's count by one, and returns the full
// cloned map plus the new count. This is the only way a count may advance:
// one editor's own command bumps exactly its own entry.
func Stamp(c Clock, editor string) (Clock, int64) {
	next := c.Get(editor) + 1
	out := c.Clone()
	out[editor] = next
	return out, next
}

// Merge folds other into a clone of into using an element-wise max per
// editor — the vector-clock analogue of Lamport's "receive" rule, applied
// without incrementing anything. Used by the state projector to fold each
// event's timestamp into the running editor_counts as it replays the log.
func Merge(into, other Clock) Clock {
	out := into.Clone()
	for editor, v := range other {
		if v > out[editor] {
			out[editor] = v
		}
	}
	return out
}
