package model

import "time"

// DefaultConversationTitle is the title a conversation starts with; the first
// user message replaces it automatically.
const DefaultConversationTitle = "New Conversation"

// RagConversation is a chat session over the rag_session document set.
// Saved conversations are exempt from the retention sweep; unsaved ones are
// deleted once UpdatedAt falls outside the retention window.
type RagConversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Saved     bool      `gorm:"not null;default:false" json:"saved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Messages []RagMessage `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}
