package repository

import (
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"marineai-backend/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ChunkSearchResult is one similarity hit joined with its document.
type ChunkSearchResult struct {
	ChunkText  string  `json:"chunk_text"`
	DocumentID uint    `json:"document_id"`
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity"`
}

// InsertBatchAndMarkDone stores a document's full chunk set and flips the
// document to done in one transaction, so a document never ends up done with
// a partial chunk set.
func (r *ChunkRepository) InsertBatchAndMarkDone(documentID uint, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to insert for document %d", documentID)
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chunks).Error; err != nil {
			return fmt.Errorf("insert chunks failed: %w", err)
		}
		err := tx.Model(&model.Document{}).Where("id = ?", documentID).
			Updates(map[string]interface{}{
				"status":    model.DocumentStatusDone,
				"error_msg": nil,
			}).Error
		if err != nil {
			return fmt.Errorf("mark document done failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store chunks for document %d failed: %w", documentID, err)
	}
	return nil
}

func (r *ChunkRepository) ListByDocumentID(documentID uint) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	err := r.db.Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) GetByID(id uint) (*model.DocumentChunk, error) {
	var chunk model.DocumentChunk
	if err := r.db.First(&chunk, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chunk failed: %w", err)
	}
	return &chunk, nil
}

// UpdateTextAndEmbedding applies a manual chunk correction. Text and the
// re-computed embedding change together; chunk_index and document_id never do.
func (r *ChunkRepository) UpdateTextAndEmbedding(id uint, text string, embedding pgvector.Vector) error {
	err := r.db.Model(&model.DocumentChunk{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"chunk_text": text,
			"embedding":  embedding,
		}).Error
	if err != nil {
		return fmt.Errorf("update chunk failed: %w", err)
	}
	return nil
}

// SearchSimilar ranks chunks by cosine similarity to the query embedding.
// Only chunks of done documents are eligible; purpose and documentIDs narrow
// the candidate set further when provided.
func (r *ChunkRepository) SearchSimilar(queryEmbedding pgvector.Vector, topK int, purpose string, documentIDs []uint) ([]ChunkSearchResult, error) {
	query, args := buildSimilarityQuery(queryEmbedding, topK, purpose, documentIDs)

	var results []ChunkSearchResult
	if err := r.db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return results, nil
}

// buildSimilarityQuery assembles the ranking statement. Chunks of documents
// that are not done never qualify, regardless of the optional purpose and
// document-id filters.
func buildSimilarityQuery(queryEmbedding pgvector.Vector, topK int, purpose string, documentIDs []uint) (string, []interface{}) {
	if topK <= 0 {
		topK = 5
	}

	query := `
		SELECT
			dc.chunk_text,
			dc.document_id,
			d.filename,
			1 - (dc.embedding <=> ?) AS similarity
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE d.status = ?`
	args := []interface{}{queryEmbedding, model.DocumentStatusDone}

	if purpose != "" {
		query += " AND d.purpose = ?"
		args = append(args, purpose)
	}
	if len(documentIDs) > 0 {
		query += " AND d.id IN ?"
		args = append(args, documentIDs)
	}

	query += " ORDER BY dc.embedding <=> ? LIMIT ?"
	args = append(args, queryEmbedding, topK)

	return query, args
}
