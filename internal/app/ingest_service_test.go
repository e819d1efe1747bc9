package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"marineai-backend/internal/model"
	"marineai-backend/internal/rag"
)

type fakeDocStore struct {
	status  string
	errMsg  *string
	rawText string
}

func (f *fakeDocStore) SetStatus(id uint, status string, errMsg *string) error {
	f.status = status
	f.errMsg = errMsg
	return nil
}

func (f *fakeDocStore) SetRawText(id uint, rawText string) error {
	f.rawText = rawText
	return nil
}

type fakeChunkStore struct {
	inserted []model.DocumentChunk
	err      error
}

func (f *fakeChunkStore) InsertBatchAndMarkDone(documentID uint, chunks []model.DocumentChunk) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = chunks
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(path, fileType string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 0, 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func tempUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1_catalog.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-stub"), 0o644))
	return path
}

func newIngestFixture(extractor *fakeExtractor, embedder *fakeEmbedder) (*IngestService, *fakeDocStore, *fakeChunkStore) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{}
	svc := NewIngestService(docs, chunks, extractor, rag.NewChunker(500, 100), embedder)
	return svc, docs, chunks
}

func TestIngestSuccessSingleChunk(t *testing.T) {
	text := "Part A costs 100. Part B costs 200."
	svc, docs, chunks := newIngestFixture(&fakeExtractor{text: text}, &fakeEmbedder{})
	path := tempUpload(t)

	status, err := svc.Ingest(context.Background(), 1, path, model.FileTypePDF)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusDone, status)

	require.Equal(t, text, docs.rawText)
	require.Len(t, chunks.inserted, 1)
	require.Equal(t, 0, chunks.inserted[0].ChunkIndex)
	require.Equal(t, text, chunks.inserted[0].ChunkText)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "uploaded temp file must be removed")
}

func TestIngestEmptyExtractionStopsBeforeEmbedder(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, docs, chunks := newIngestFixture(&fakeExtractor{text: "   \n "}, embedder)
	path := tempUpload(t)

	status, err := svc.Ingest(context.Background(), 2, path, model.FileTypePDF)
	require.ErrorIs(t, err, ErrNoExtractableText)
	require.Equal(t, model.DocumentStatusError, status)

	require.Equal(t, model.DocumentStatusError, docs.status)
	require.NotNil(t, docs.errMsg)
	require.NotEmpty(t, *docs.errMsg)
	require.Zero(t, embedder.calls, "embedder must not be called for empty extraction")
	require.Empty(t, chunks.inserted)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestIngestEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("quota exceeded")}
	svc, docs, chunks := newIngestFixture(&fakeExtractor{text: "Gasket torque specs for the SX-440."}, embedder)

	status, err := svc.Ingest(context.Background(), 3, tempUpload(t), model.FileTypePDF)
	require.Error(t, err)
	require.Equal(t, model.DocumentStatusError, status)
	require.Equal(t, model.DocumentStatusError, docs.status)
	require.Contains(t, *docs.errMsg, "quota exceeded")
	require.Empty(t, chunks.inserted)
}

func TestIngestStorageFailure(t *testing.T) {
	svc, docs, _ := newIngestFixture(&fakeExtractor{text: "Oil cooler assembly manual."}, &fakeEmbedder{})
	chunkStore := &fakeChunkStore{err: fmt.Errorf("connection refused")}
	svc.chunks = chunkStore

	status, err := svc.Ingest(context.Background(), 4, tempUpload(t), model.FileTypePDF)
	require.Error(t, err)
	require.Equal(t, model.DocumentStatusError, status)
	require.Contains(t, *docs.errMsg, "connection refused")
}

func TestIngestChunkIndexesContiguous(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "Spare part %04d fits engine family M series. ", i)
	}
	svc, _, chunks := newIngestFixture(&fakeExtractor{text: sb.String()}, &fakeEmbedder{})

	status, err := svc.Ingest(context.Background(), 5, tempUpload(t), model.FileTypePDF)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusDone, status)
	require.Greater(t, len(chunks.inserted), 1)

	for i, chunk := range chunks.inserted {
		require.Equal(t, i, chunk.ChunkIndex)
		require.NotEmpty(t, chunk.ChunkText)
		// The fake encodes input length into the vector, so matching values
		// prove chunk/embedding pairing survived batching.
		require.Equal(t, float32(len(chunk.ChunkText)), chunk.Embedding.Slice()[0])
	}
}
