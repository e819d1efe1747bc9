package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Message roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChunkRef is a snapshot of a retrieved chunk taken at answer time. It is
// immutable once written: later chunk edits or document deletions do not
// rewrite history.
type ChunkRef struct {
	Filename   string  `json:"filename"`
	ChunkText  string  `json:"chunk_text"`
	Similarity float64 `json:"similarity"`
}

type RagMessage struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	Role           string         `gorm:"size:16;not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Refs           datatypes.JSON `gorm:"type:jsonb" json:"refs,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// References returns the parsed ref snapshots; empty on absent or bad JSON.
func (m *RagMessage) References() []ChunkRef {
	if len(m.Refs) == 0 {
		return nil
	}
	var refs []ChunkRef
	_ = json.Unmarshal(m.Refs, &refs)
	return refs
}

// SetReferences stores the ref snapshots as JSON.
func (m *RagMessage) SetReferences(refs []ChunkRef) {
	if len(refs) == 0 {
		m.Refs = nil
		return
	}
	b, _ := json.Marshal(refs)
	m.Refs = datatypes.JSON(b)
}
