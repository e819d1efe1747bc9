package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"marineai-backend/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// List returns documents newest first; purpose filters when non-empty.
func (r *DocumentRepository) List(purpose string) ([]model.Document, error) {
	q := r.db.Omit("raw_text")
	if purpose != "" {
		q = q.Where("purpose = ?", purpose)
	}
	var list []model.Document
	if err := q.Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// ListReadyByPurpose returns fully ingested documents for a purpose, the set
// a chat session may pick from.
func (r *DocumentRepository) ListReadyByPurpose(purpose string) ([]model.Document, error) {
	var list []model.Document
	err := r.db.Omit("raw_text").
		Where("purpose = ? AND status = ?", purpose, model.DocumentStatusDone).
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list ready documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// SetStatus records a lifecycle transition; errMsg is nil for any status
// other than error.
func (r *DocumentRepository) SetStatus(id uint, status string, errMsg *string) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "error_msg": errMsg}).Error
	if err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

// SetRawText persists the extracted text so later re-chunking or auditing
// does not need to re-run extraction.
func (r *DocumentRepository) SetRawText(id uint, rawText string) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).
		Update("raw_text", rawText).Error
	if err != nil {
		return fmt.Errorf("update document raw text failed: %w", err)
	}
	return nil
}

// Delete removes a document; owned chunks go with it via the FK cascade.
func (r *DocumentRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&model.Document{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete document failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
