package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"marineai-backend/internal/model"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrChunkNotFound    = errors.New("chunk not found")
)

// DocumentStore is the slice of document persistence the admin operations
// need.
type DocumentStore interface {
	Create(doc *model.Document) error
	List(purpose string) ([]model.Document, error)
	ListReadyByPurpose(purpose string) ([]model.Document, error)
	GetByID(id uint) (*model.Document, error)
	SetStatus(id uint, status string, errMsg *string) error
	Delete(id uint) (bool, error)
}

// ChunkStore is the chunk persistence slice for detail and correction.
type ChunkStore interface {
	ListByDocumentID(documentID uint) ([]model.DocumentChunk, error)
	GetByID(id uint) (*model.DocumentChunk, error)
	UpdateTextAndEmbedding(id uint, text string, embedding pgvector.Vector) error
}

// DocumentService covers the admin-facing document operations around the
// ingestion pipeline: listing, detail, chunk correction, deletion.
type DocumentService struct {
	docRepo   DocumentStore
	chunkRepo ChunkStore
	embedder  Embedder
}

func NewDocumentService(
	docRepo DocumentStore,
	chunkRepo ChunkStore,
	embedder Embedder,
) *DocumentService {
	return &DocumentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
	}
}

// CreateForUpload registers a new document in processing status. Ingestion
// runs synchronously right after, so the record never sits in pending.
func (s *DocumentService) CreateForUpload(filename, fileType, purpose, category string) (*model.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}
	if fileType != model.FileTypePDF && fileType != model.FileTypeImage {
		return nil, ErrInvalidInput
	}
	if !model.ValidPurpose(purpose) {
		return nil, ErrInvalidInput
	}

	doc := &model.Document{
		Filename: filename,
		FileType: fileType,
		Purpose:  purpose,
		Status:   model.DocumentStatusProcessing,
		Category: strings.TrimSpace(category),
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarkError records a failure that happened before ingestion could start,
// such as the uploaded file not reaching disk.
func (s *DocumentService) MarkError(id uint, msg string) error {
	return s.docRepo.SetStatus(id, model.DocumentStatusError, &msg)
}

func (s *DocumentService) List(purpose string) ([]model.Document, error) {
	if purpose != "" && !model.ValidPurpose(purpose) {
		return nil, ErrInvalidInput
	}
	return s.docRepo.List(purpose)
}

// ListReady lists fully ingested documents for one purpose.
func (s *DocumentService) ListReady(purpose string) ([]model.Document, error) {
	if !model.ValidPurpose(purpose) {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListReadyByPurpose(purpose)
}

// DocumentDetail is a document with its ordered chunk sequence.
type DocumentDetail struct {
	Document model.Document        `json:"document"`
	Chunks   []model.DocumentChunk `json:"chunks"`
}

func (s *DocumentService) Detail(id uint) (*DocumentDetail, error) {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	chunks, err := s.chunkRepo.ListByDocumentID(id)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, Chunks: chunks}, nil
}

func (s *DocumentService) Delete(id uint) error {
	deleted, err := s.docRepo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDocumentNotFound
	}
	return nil
}

// UpdateChunkText applies a manual correction to a chunk. The new text is
// re-embedded and both fields are persisted together, so the stored vector
// never describes stale text.
func (s *DocumentService) UpdateChunkText(ctx context.Context, chunkID uint, text string) (*model.DocumentChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}

	chunk, err := s.chunkRepo.GetByID(chunkID)
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, ErrChunkNotFound
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed edited chunk failed: %w", err)
	}

	vec := pgvector.NewVector(embedding)
	if err := s.chunkRepo.UpdateTextAndEmbedding(chunk.ID, text, vec); err != nil {
		return nil, err
	}

	chunk.ChunkText = text
	chunk.Embedding = vec
	return chunk, nil
}
