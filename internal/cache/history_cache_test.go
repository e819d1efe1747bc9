package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"marineai-backend/internal/model"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHistoryCache(client, time.Minute, 5*time.Second), mr
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, hit, err := c.GetHistory(ctx, 7); err != nil || hit {
		t.Fatalf("expected cold miss, hit=%v err=%v", hit, err)
	}

	messages := []model.RagMessage{
		{ConversationID: 7, Role: model.RoleUser, Content: "impeller specs?"},
		{ConversationID: 7, Role: model.RoleAssistant, Content: "See the SX-440 manual."},
	}
	if err := c.SetHistory(ctx, 7, messages); err != nil {
		t.Fatalf("SetHistory: %v", err)
	}

	cached, hit, err := c.GetHistory(ctx, 7)
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if len(cached) != 2 || cached[1].Content != messages[1].Content {
		t.Fatalf("unexpected cached history: %+v", cached)
	}

	if err := c.DeleteHistory(ctx, 7); err != nil {
		t.Fatalf("DeleteHistory: %v", err)
	}
	if _, hit, _ := c.GetHistory(ctx, 7); hit {
		t.Fatalf("expected miss after delete")
	}
}

func TestHistoryCacheDirtyMarkerExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.MarkDirty(ctx, 3); err != nil {
		t.Fatalf("MarkDirty: %v", err)
	}
	dirty, err := c.IsDirty(ctx, 3)
	if err != nil || !dirty {
		t.Fatalf("expected dirty, got dirty=%v err=%v", dirty, err)
	}

	mr.FastForward(6 * time.Second)

	dirty, err = c.IsDirty(ctx, 3)
	if err != nil || dirty {
		t.Fatalf("expected marker expiry, got dirty=%v err=%v", dirty, err)
	}
}

func TestHistoryCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.SetHistory(ctx, 1, []model.RagMessage{{Role: model.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("SetHistory: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.GetHistory(ctx, 1); hit {
		t.Fatalf("expected miss after TTL")
	}
}
