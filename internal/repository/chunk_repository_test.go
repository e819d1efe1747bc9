package repository

import (
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"marineai-backend/internal/model"
)

func TestSimilarityQueryFiltersDoneOnly(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1, 0.2})

	query, args := buildSimilarityQuery(vec, 5, "", nil)

	require.Contains(t, query, "WHERE d.status = ?")
	require.NotContains(t, query, "d.purpose")
	require.NotContains(t, query, "d.id IN")
	require.Equal(t, []interface{}{vec, model.DocumentStatusDone, vec, 5}, args)
}

func TestSimilarityQueryPurposeIsolation(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1, 0.2})

	query, args := buildSimilarityQuery(vec, 3, model.PurposeConsultant, nil)

	require.Contains(t, query, "AND d.purpose = ?")
	require.Equal(t, []interface{}{vec, model.DocumentStatusDone, model.PurposeConsultant, vec, 3}, args)
}

func TestSimilarityQueryDocumentIDFilter(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1, 0.2})
	ids := []uint{4, 9}

	query, args := buildSimilarityQuery(vec, 3, model.PurposeRAGSession, ids)

	require.Contains(t, query, "AND d.purpose = ?")
	require.Contains(t, query, "AND d.id IN ?")
	require.Equal(t, []interface{}{vec, model.DocumentStatusDone, model.PurposeRAGSession, ids, vec, 3}, args)
}

func TestSimilarityQueryDefaultTopK(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1})

	_, args := buildSimilarityQuery(vec, 0, "", nil)

	require.Equal(t, 5, args[len(args)-1])
}

func TestSimilarityQueryRanking(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1})

	query, _ := buildSimilarityQuery(vec, 5, "", nil)

	require.Contains(t, query, "1 - (dc.embedding <=> ?) AS similarity")
	require.Contains(t, query, "ORDER BY dc.embedding <=> ? LIMIT ?")
}
