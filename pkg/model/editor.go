package model

import "encoding/json"

// EditorType is a closed enumeration, unlike block_type which is an open
// string tag defined by whatever extensions are registered.
type EditorType string

const (
	EditorHuman EditorType = "Human"
	EditorBot   EditorType = "Bot"
)

// Editor is a writer identity. EditorType defaults to Human when absent from
// an older event, so decoding must not fail on a missing field.
type Editor struct {
	EditorID   string     `json:"editor_id"`
	Name       string     `json:"name"`
	EditorType EditorType `json:"editor_type,omitempty"`
}

// NewEditor builds a Human editor with the given id and name.
func NewEditor(editorID, name string) Editor {
	return Editor{EditorID: editorID, Name: name, EditorType: EditorHuman}
}

// NewEditorWithType builds an editor of the given type.
func NewEditorWithType(editorID, name string, t EditorType) Editor {
	if t == "" {
		t = EditorHuman
	}
	return Editor{EditorID: editorID, Name: name, EditorType: t}
}

// UnmarshalJSON defaults EditorType to Human when the field is absent,
// matching the backward-compatible decode of events recorded before
// editor_type existed.
func (e *Editor) UnmarshalJSON(data []byte) error {
	type alias Editor
	aux := alias{EditorType: EditorHuman}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.EditorType == "" {
		aux.EditorType = EditorHuman
	}
	*e = Editor(aux)
	return nil
}
