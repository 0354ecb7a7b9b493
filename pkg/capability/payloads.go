package capability

import "github.com/elfiee/elfiee/pkg/model"

// Payload shapes decoded from Command.Payload, one per built-in capability.
// Carrying these as typed structs instead of ad hoc map lookups keeps every
// handler's expectations explicit and catches malformed payloads at decode
// time rather than deep inside dispatch logic.

// CreateBlockPayload is the core.create payload.
type CreateBlockPayload struct {
	Name      string `json:"name"`
	BlockType string `json:"block_type"`
}

// LinkBlockPayload is the core.link payload.
type LinkBlockPayload struct {
	Relation string `json:"relation"`
	TargetID string `json:"target_id"`
}

// UnlinkBlockPayload is the core.unlink payload.
type UnlinkBlockPayload struct {
	Relation string `json:"relation"`
	TargetID string `json:"target_id"`
}

// GrantPayload is the core.grant / core.revoke payload. TargetBlock defaults
// to the wildcard when absent.
type GrantPayload struct {
	TargetEditor string `json:"target_editor"`
	Capability   string `json:"capability"`
	TargetBlock  string `json:"target_block"`
}

func (p *GrantPayload) applyDefaults() {
	if p.TargetBlock == "" {
		p.TargetBlock = model.WildcardBlock
	}
}

// EditorCreatePayload is the editor.create payload.
type EditorCreatePayload struct {
	Name       string          `json:"name"`
	EditorType model.EditorType `json:"editor_type,omitempty"`
}

// UpdateMetadataPayload is the core.update_metadata payload: the new
// metadata object to install on the block.
type UpdateMetadataPayload struct {
	Metadata model.Metadata `json:"metadata"`
}

