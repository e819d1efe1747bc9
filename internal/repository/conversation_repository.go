package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marineai-backend/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conv *model.RagConversation) error {
	if err := r.db.Create(conv).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) List() ([]model.RagConversation, error) {
	var list []model.RagConversation
	if err := r.db.Order("updated_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return list, nil
}

func (r *ConversationRepository) GetByID(id uint) (*model.RagConversation, error) {
	var conv model.RagConversation
	if err := r.db.First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) Rename(id uint, title string) (bool, error) {
	res := r.db.Model(&model.RagConversation{}).Where("id = ?", id).
		Update("title", title)
	if res.Error != nil {
		return false, fmt.Errorf("rename conversation failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ToggleSaved flips the pin flag and reports the new value.
func (r *ConversationRepository) ToggleSaved(id uint) (bool, bool, error) {
	conv, err := r.GetByID(id)
	if err != nil {
		return false, false, err
	}
	if conv == nil {
		return false, false, nil
	}
	saved := !conv.Saved
	err = r.db.Model(&model.RagConversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"saved": saved}).Error
	if err != nil {
		return false, false, fmt.Errorf("toggle saved failed: %w", err)
	}
	return saved, true, nil
}

// Delete removes a conversation; its messages go with it via the FK cascade.
func (r *ConversationRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&model.RagConversation{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete conversation failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// TouchAndAutoTitle bumps updated_at and, when the conversation still has
// its default title, replaces it with the given one.
func (r *ConversationRepository) TouchAndAutoTitle(id uint, title string) error {
	err := r.db.Exec(`
		UPDATE rag_conversations
		SET updated_at = ?,
		    title = CASE WHEN title = ? THEN ? ELSE title END
		WHERE id = ?`,
		time.Now(), model.DefaultConversationTitle, title, id,
	).Error
	if err != nil {
		return fmt.Errorf("touch conversation failed: %w", err)
	}
	return nil
}

// DeleteStale removes unsaved conversations whose updated_at is before
// cutoff. Saved conversations are exempt regardless of age.
func (r *ConversationRepository) DeleteStale(cutoff time.Time) (int64, error) {
	res := r.db.Where("saved = ? AND updated_at < ?", false, cutoff).
		Delete(&model.RagConversation{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale conversations failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
