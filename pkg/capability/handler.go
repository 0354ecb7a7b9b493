// Package capability implements the capability registry and the built-in
// core/editor handlers. A handler's contract is deliberately narrow: given a
// command and an optional block snapshot, produce the events that describe
// the desired effect. Handlers never mutate the block they're given and
// never touch engine state directly — all side effects beyond the block's
// own scratch directory are expressed as returned events for the engine
// actor to stamp, persist, and project.
package capability

import "github.com/elfiee/elfiee/pkg/model"

// Handler is the contract every capability implements. block is nil only
// for capabilities that declare themselves block-free (core.create,
// editor.create).
type Handler func(cmd model.Command, block *model.Block) ([]model.Event, error)

// Registry is a static-first cap_id -> handler lookup. Built-ins are
// registered at construction time; extensions register afterward via
// Register.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry with every built-in capability registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[string]Handler{}}
	r.registerBuiltins()
	return r
}

// Register installs (or overwrites) the handler for capID.
func (r *Registry) Register(capID string, h Handler) {
	r.handlers[capID] = h
}

// Get looks up a handler by cap_id. ok is false for unknown capabilities.
func (r *Registry) Get(capID string) (Handler, bool) {
	h, ok := r.handlers[capID]
	return h, ok
}

// BlockFree reports whether capID is one of the handlers that never
// receives a block (core.create, editor.create). The set is fixed: every
// other capability, including any registered by an extension, is given the
// command's target block.
func BlockFree(capID string) bool {
	switch capID {
	case "core.create", "editor.create":
		return true
	default:
		return false
	}
}

func (r *Registry) registerBuiltins() {
	r.Register("core.create", handleCoreCreate)
	r.Register("core.link", handleCoreLink)
	r.Register("core.unlink", handleCoreUnlink)
	r.Register("core.delete", handleCoreDelete)
	r.Register("core.grant", handleCoreGrant)
	r.Register("core.revoke", handleCoreRevoke)
	r.Register("core.update_metadata", handleCoreUpdateMetadata)
	r.Register("editor.create", handleEditorCreate)
}
