package model

import (
	"encoding/json"
	"time"
)

// Metadata is the recommended shape for Block.Metadata. created_at and
// updated_at are RFC 3339 UTC strings with seconds precision and are only
// present once set; custom fields flatten into the root JSON object so a
// reader sees one flat object rather than a nested "custom" key.
type Metadata struct {
	Description *string                `json:"description,omitempty"`
	CreatedAt   *string                `json:"created_at,omitempty"`
	UpdatedAt   *string                `json:"updated_at,omitempty"`
	Custom      map[string]interface{} `json:"-"`
}

// NewMetadata stamps created_at and updated_at to the current time.
func NewMetadata() Metadata {
	now := nowRFC3339()
	return Metadata{CreatedAt: &now, UpdatedAt: &now, Custom: map[string]interface{}{}}
}

// Touch refreshes updated_at, leaving created_at untouched.
func (m *Metadata) Touch() {
	now := nowRFC3339()
	m.UpdatedAt = &now
}

func nowRFC3339() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// MarshalJSON flattens Custom into the root object alongside the named
// fields, mirroring the source format's serde(flatten) behavior.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range m.Custom {
		out[k] = v
	}
	if m.Description != nil {
		out["description"] = *m.Description
	}
	if m.CreatedAt != nil {
		out["created_at"] = *m.CreatedAt
	}
	if m.UpdatedAt != nil {
		out["updated_at"] = *m.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON pulls the three named fields out and keeps everything else
// in Custom.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Custom = map[string]interface{}{}
	for k, v := range raw {
		switch k {
		case "description":
			if s, ok := v.(string); ok {
				m.Description = &s
			}
		case "created_at":
			if s, ok := v.(string); ok {
				m.CreatedAt = &s
			}
		case "updated_at":
			if s, ok := v.(string); ok {
				m.UpdatedAt = &s
			}
		default:
			m.Custom[k] = v
		}
	}
	return nil
}

// MetadataFromJSON decodes a Metadata from a raw JSON value, falling back to
// a zero-value Metadata on decode failure — callers log a warning and keep
// going rather than failing the whole projection.
func MetadataFromJSON(raw json.RawMessage) (Metadata, error) {
	var m Metadata
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
