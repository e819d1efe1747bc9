package app

import (
	"context"
	"log"

	"github.com/pgvector/pgvector-go"

	"marineai-backend/internal/repository"
)

const defaultTopK = 5

// ChunkSearcher runs the nearest-neighbor query against stored chunks.
type ChunkSearcher interface {
	SearchSimilar(queryEmbedding pgvector.Vector, topK int, purpose string, documentIDs []uint) ([]repository.ChunkSearchResult, error)
}

// RetrievalService embeds a query and ranks stored chunks against it.
// Retrieval failures degrade to an empty result set instead of erroring, so
// chat and mail composition keep working without document context when the
// embedding backend or the store is down.
type RetrievalService struct {
	embedder Embedder
	chunks   ChunkSearcher
}

func NewRetrievalService(embedder Embedder, chunks ChunkSearcher) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		chunks:   chunks,
	}
}

// Search returns up to topK chunks ordered by descending cosine similarity.
// purpose narrows results to one document partition; documentIDs, when
// non-empty, restrict to those documents. Callers apply their own similarity
// threshold to the scores.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int, purpose string, documentIDs []uint) []repository.ChunkSearchResult {
	if s.embedder == nil || s.chunks == nil {
		return nil
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("retrieval degraded, embed query failed: %v", err)
		return nil
	}

	results, err := s.chunks.SearchSimilar(pgvector.NewVector(queryEmbedding), topK, purpose, documentIDs)
	if err != nil {
		log.Printf("retrieval degraded, similarity search failed: %v", err)
		return nil
	}
	return results
}
