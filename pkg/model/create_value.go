package model

// BlockCreateValue is the on-the-wire shape of a core.create event's value.
// The state projector reads a fresh Block directly out of this struct. Note
// the field is "type", not "block_type" — this one key keeps the event
// log's older per-field naming even though Block.BlockType carries the json
// tag "block_type" everywhere else in the system.
type BlockCreateValue struct {
	Name     string              `json:"name"`
	Type     string              `json:"type"`
	Owner    string              `json:"owner"`
	Contents map[string]any      `json:"contents"`
	Children map[string][]string `json:"children"`
	Metadata Metadata            `json:"metadata"`
}

// ToBlock builds the Block this create value describes.
func (v BlockCreateValue) ToBlock(blockID string) Block {
	contents := v.Contents
	if contents == nil {
		contents = map[string]any{}
	}
	children := v.Children
	if children == nil {
		children = map[string][]string{}
	}
	return Block{
		BlockID:   blockID,
		Name:      v.Name,
		BlockType: v.Type,
		Owner:     v.Owner,
		Contents:  contents,
		Children:  children,
		Metadata:  v.Metadata,
	}
}
