package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"marineai-backend/internal/model"
	"marineai-backend/internal/repository"
)

func TestBuildReferencesThreshold(t *testing.T) {
	results := []repository.ChunkSearchResult{
		{Filename: "manual.pdf", ChunkText: "Impeller replacement steps.", Similarity: 0.81234567},
		{Filename: "manual.pdf", ChunkText: "Warranty terms.", Similarity: 0.3},
		{Filename: "pricelist.pdf", ChunkText: "Part A costs 100.", Similarity: 0.12},
	}

	refs := buildReferences(results, 0.3)
	require.Len(t, refs, 1)
	require.Equal(t, "manual.pdf", refs[0].Filename)
	require.Equal(t, 0.8123, refs[0].Similarity)
}

func TestBuildReferencesEmptyResults(t *testing.T) {
	require.Empty(t, buildReferences(nil, 0.3))
}

func TestAutoTitleTruncation(t *testing.T) {
	short := "impeller kit for SX-440"
	require.Equal(t, short, autoTitle(short))

	long := strings.Repeat("p", 45)
	got := autoTitle(long)
	require.Equal(t, strings.Repeat("p", 30)+"...", got)
}

func TestBuildChatPromptShape(t *testing.T) {
	refs := []model.ChunkRef{
		{Filename: "manual.pdf", ChunkText: "Torque to 25 Nm.", Similarity: 0.9},
	}
	history := []model.RagMessage{
		{Role: model.RoleUser, Content: "which gasket?"},
		{Role: model.RoleAssistant, Content: "Use gasket 12-B."},
	}

	prompt := buildChatPrompt(refs, history, "and the torque?")
	require.Len(t, prompt, 4)
	require.Equal(t, "system", prompt[0].Role)
	require.Contains(t, prompt[0].Content, "[manual.pdf] Torque to 25 Nm.")
	require.Equal(t, model.RoleUser, prompt[1].Role)
	require.Equal(t, model.RoleAssistant, prompt[2].Role)
	require.Equal(t, "and the torque?", prompt[3].Content)
}

func TestBuildChatPromptWithoutReferences(t *testing.T) {
	prompt := buildChatPrompt(nil, nil, "hello")
	require.Len(t, prompt, 2)
	require.Contains(t, prompt[0].Content, "(no relevant document content)")
}

type fakeHistoryCache struct {
	dirty    bool
	dirtyErr error

	setCalls int
	stored   []model.RagMessage
}

func (f *fakeHistoryCache) GetHistory(ctx context.Context, conversationID uint) ([]model.RagMessage, bool, error) {
	return nil, false, nil
}

func (f *fakeHistoryCache) SetHistory(ctx context.Context, conversationID uint, messages []model.RagMessage) error {
	f.setCalls++
	f.stored = messages
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(ctx context.Context, conversationID uint) error {
	return nil
}

func (f *fakeHistoryCache) MarkDirty(ctx context.Context, conversationID uint) error {
	return nil
}

func (f *fakeHistoryCache) IsDirty(ctx context.Context, conversationID uint) (bool, error) {
	return f.dirty, f.dirtyErr
}

func TestCacheHistorySkippedWhileDirty(t *testing.T) {
	cache := &fakeHistoryCache{dirty: true}
	messages := []model.RagMessage{{ConversationID: 7, Role: model.RoleUser, Content: "which gasket?"}}

	cacheHistoryIfClean(context.Background(), cache, 7, messages)

	require.Zero(t, cache.setCalls, "dirty history must not be cached")
}

func TestCacheHistoryWrittenWhenClean(t *testing.T) {
	cache := &fakeHistoryCache{dirty: false}
	messages := []model.RagMessage{{ConversationID: 7, Role: model.RoleUser, Content: "which gasket?"}}

	cacheHistoryIfClean(context.Background(), cache, 7, messages)

	require.Equal(t, 1, cache.setCalls)
	require.Equal(t, messages, cache.stored)
}

func TestCacheHistorySkippedOnDirtyCheckError(t *testing.T) {
	cache := &fakeHistoryCache{dirtyErr: errors.New("redis down")}

	cacheHistoryIfClean(context.Background(), cache, 7, nil)

	require.Zero(t, cache.setCalls)
}

func TestCacheHistoryNilCache(t *testing.T) {
	cacheHistoryIfClean(context.Background(), nil, 7, nil)
}
