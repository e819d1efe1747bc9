package app

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"marineai-backend/internal/model"
)

type fakeDocumentStore struct {
	created []*model.Document
}

func (f *fakeDocumentStore) Create(doc *model.Document) error {
	doc.ID = uint(len(f.created) + 1)
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeDocumentStore) List(purpose string) ([]model.Document, error) { return nil, nil }

func (f *fakeDocumentStore) ListReadyByPurpose(purpose string) ([]model.Document, error) {
	return nil, nil
}

func (f *fakeDocumentStore) GetByID(id uint) (*model.Document, error) { return nil, nil }

func (f *fakeDocumentStore) SetStatus(id uint, status string, errMsg *string) error { return nil }

func (f *fakeDocumentStore) Delete(id uint) (bool, error) { return false, nil }

type fakeChunkEditStore struct {
	chunk *model.DocumentChunk

	updateCalls      int
	updatedText      string
	updatedEmbedding pgvector.Vector
}

func (f *fakeChunkEditStore) ListByDocumentID(documentID uint) ([]model.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkEditStore) GetByID(id uint) (*model.DocumentChunk, error) {
	if f.chunk == nil || f.chunk.ID != id {
		return nil, nil
	}
	copied := *f.chunk
	return &copied, nil
}

func (f *fakeChunkEditStore) UpdateTextAndEmbedding(id uint, text string, embedding pgvector.Vector) error {
	f.updateCalls++
	f.updatedText = text
	f.updatedEmbedding = embedding
	return nil
}

func TestUpdateChunkTextReembeds(t *testing.T) {
	oldEmbedding := pgvector.NewVector([]float32{5, 0, 1})
	chunks := &fakeChunkEditStore{chunk: &model.DocumentChunk{
		ID:         3,
		DocumentID: 1,
		ChunkIndex: 0,
		ChunkText:  "short",
		Embedding:  oldEmbedding,
	}}
	svc := NewDocumentService(&fakeDocumentStore{}, chunks, &fakeEmbedder{})

	updated, err := svc.UpdateChunkText(context.Background(), 3, "a much longer corrected chunk text")
	require.NoError(t, err)

	// text and the freshly computed embedding persist in one call
	require.Equal(t, 1, chunks.updateCalls)
	require.Equal(t, "a much longer corrected chunk text", chunks.updatedText)
	require.NotEqual(t, oldEmbedding.Slice(), chunks.updatedEmbedding.Slice())

	require.Equal(t, chunks.updatedText, updated.ChunkText)
	require.Equal(t, chunks.updatedEmbedding.Slice(), updated.Embedding.Slice())
}

func TestUpdateChunkTextEmptyInput(t *testing.T) {
	chunks := &fakeChunkEditStore{chunk: &model.DocumentChunk{ID: 3, ChunkText: "short"}}
	svc := NewDocumentService(&fakeDocumentStore{}, chunks, &fakeEmbedder{})

	_, err := svc.UpdateChunkText(context.Background(), 3, "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, chunks.updateCalls)
}

func TestUpdateChunkTextMissingChunk(t *testing.T) {
	chunks := &fakeChunkEditStore{}
	svc := NewDocumentService(&fakeDocumentStore{}, chunks, &fakeEmbedder{})

	_, err := svc.UpdateChunkText(context.Background(), 42, "corrected")
	require.ErrorIs(t, err, ErrChunkNotFound)
	require.Zero(t, chunks.updateCalls)
}

func TestUpdateChunkTextEmbedFailureLeavesChunkUntouched(t *testing.T) {
	chunks := &fakeChunkEditStore{chunk: &model.DocumentChunk{ID: 3, ChunkText: "short"}}
	svc := NewDocumentService(&fakeDocumentStore{}, chunks, &fakeEmbedder{err: errors.New("backend quota")})

	_, err := svc.UpdateChunkText(context.Background(), 3, "corrected")
	require.Error(t, err)
	require.Zero(t, chunks.updateCalls, "a chunk must never persist text without its new embedding")
}

func TestCreateForUploadValidation(t *testing.T) {
	docs := &fakeDocumentStore{}
	svc := NewDocumentService(docs, &fakeChunkEditStore{}, &fakeEmbedder{})

	_, err := svc.CreateForUpload("catalog.pdf", model.FileTypePDF, "marketing", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateForUpload("", model.FileTypePDF, model.PurposeConsultant, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	doc, err := svc.CreateForUpload("catalog.pdf", model.FileTypePDF, model.PurposeConsultant, "engines")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessing, doc.Status)
	require.Equal(t, model.PurposeConsultant, doc.Purpose)
}
