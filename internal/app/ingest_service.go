package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pgvector/pgvector-go"

	"marineai-backend/internal/model"
)

// Embedding providers often limit array input size, so document chunks are
// embedded in batches.
const embeddingBatchSize = 10

var (
	ErrNoExtractableText = errors.New("no extractable text")
	ErrNoChunks          = errors.New("no chunks produced")
)

// Embedder maps text to fixed-dimension vectors. Query and chunk embeddings
// must come from the same model or similarity scores are meaningless.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TextExtractor returns the raw text of an uploaded file.
type TextExtractor interface {
	Extract(path, fileType string) (string, error)
}

// Chunker splits raw text into bounded segments.
type Chunker interface {
	Chunk(text string) []string
}

// IngestDocumentStore is the slice of document persistence ingestion needs.
type IngestDocumentStore interface {
	SetStatus(id uint, status string, errMsg *string) error
	SetRawText(id uint, rawText string) error
}

// IngestChunkStore persists a document's chunk set atomically.
type IngestChunkStore interface {
	InsertBatchAndMarkDone(documentID uint, chunks []model.DocumentChunk) error
}

// IngestService owns the document lifecycle: extract, chunk, embed, store.
// Every failure lands on the document record as status=error with a message;
// the service never leaves a document stuck in processing on its own account.
type IngestService struct {
	docs      IngestDocumentStore
	chunks    IngestChunkStore
	extractor TextExtractor
	chunker   Chunker
	embedder  Embedder
}

func NewIngestService(
	docs IngestDocumentStore,
	chunks IngestChunkStore,
	extractor TextExtractor,
	chunker Chunker,
	embedder Embedder,
) *IngestService {
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
	}
}

// Ingest runs the pipeline for an uploaded file and returns the terminal
// document status. The uploaded temp file is removed on every exit path.
func (s *IngestService) Ingest(ctx context.Context, documentID uint, filePath, fileType string) (status string, err error) {
	defer func() {
		if removeErr := os.Remove(filePath); removeErr != nil && !os.IsNotExist(removeErr) {
			log.Printf("remove uploaded file %s failed: %v", filePath, removeErr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingest panic: %v", r)
			status = s.markError(documentID, err)
		}
	}()

	rawText, err := s.extractor.Extract(filePath, fileType)
	if err != nil {
		return s.markError(documentID, fmt.Errorf("extract text failed: %w", err)), err
	}
	if strings.TrimSpace(rawText) == "" {
		// Stop before the embedder: an empty extraction would only waste
		// API calls and the same file will not extract differently.
		return s.markError(documentID, ErrNoExtractableText), ErrNoExtractableText
	}

	if err := s.docs.SetRawText(documentID, rawText); err != nil {
		return s.markError(documentID, err), err
	}

	chunks := s.chunker.Chunk(rawText)
	if len(chunks) == 0 {
		return s.markError(documentID, ErrNoChunks), ErrNoChunks
	}

	var embeddings [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return s.markError(documentID, fmt.Errorf("embed chunks failed: %w", err)), err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		err := fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(chunks))
		return s.markError(documentID, err), err
	}

	rows := make([]model.DocumentChunk, len(chunks))
	for i := range chunks {
		rows[i] = model.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: i,
			ChunkText:  chunks[i],
			Embedding:  pgvector.NewVector(embeddings[i]),
		}
	}
	if err := s.chunks.InsertBatchAndMarkDone(documentID, rows); err != nil {
		return s.markError(documentID, err), err
	}

	return model.DocumentStatusDone, nil
}

func (s *IngestService) markError(documentID uint, cause error) string {
	msg := cause.Error()
	log.Printf("ingest document %d failed: %v", documentID, cause)
	if err := s.docs.SetStatus(documentID, model.DocumentStatusError, &msg); err != nil {
		log.Printf("record ingest error for document %d failed: %v", documentID, err)
	}
	return model.DocumentStatusError
}
