package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// marshalJSONColumn encodes a slice or struct for a jsonb column. Nil and
// empty values are stored as an empty string so the column reads back as nil.
func marshalJSONColumn[T any](v []T) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// unmarshalJSONColumn decodes a jsonb column written by marshalJSONColumn.
// A malformed column is treated as empty.
func unmarshalJSONColumn[T any](s string) []T {
	if s == "" {
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// rawJSON converts a nullable column back into a raw message
func rawJSON(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	return json.RawMessage(*s)
}

// nullableJSON stores a raw message, keeping NULL for empty documents
func nullableJSON(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
