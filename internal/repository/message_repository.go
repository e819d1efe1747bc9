package repository

import (
	"fmt"

	"gorm.io/gorm"

	"marineai-backend/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.RagMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create rag message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListByConversationID(conversationID uint) ([]model.RagMessage, error) {
	var messages []model.RagMessage
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list rag messages failed: %w", err)
	}
	return messages, nil
}

// ListRecent returns the newest messages in chronological order.
func (r *MessageRepository) ListRecent(conversationID uint, limit int) ([]model.RagMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var messages []model.RagMessage
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list recent rag messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
