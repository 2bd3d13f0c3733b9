package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"pychallenge-service/internal/domain"
)

func TestChallengeCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{challenges: map[string]domain.Challenge{"c1": sampleChallenge()}}
	cache := NewChallengeCache(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	got, err := cache.GetChallenge(ctx, "c1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if got.Title != "Basics" || loader.calls != 1 {
		t.Fatalf("expected loader hit once, got calls=%d challenge=%+v", loader.calls, got)
	}
	if ttl := mr.TTL("challenge:c1:cache"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	again, _ := cache.GetChallenge(ctx, "c1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(again.Questions) != 1 || again.Questions[0].Answer != "4" {
		t.Fatalf("cached copy lost data: %+v", again)
	}

	cache.Invalidate(ctx, "c1")
	if mr.Exists("challenge:c1:cache") {
		t.Fatalf("expected cache entry removed")
	}
	_, _ = cache.GetChallenge(ctx, "c1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestChallengeCacheDoesNotCacheMisses(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{challenges: map[string]domain.Challenge{}}
	cache := NewChallengeCache(newClient(mr), loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetChallenge(context.Background(), "nope"); !errors.Is(err, domain.ErrChallengeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected each miss to reach the loader, got %d", loader.calls)
	}
}

type countingLoader struct {
	challenges map[string]domain.Challenge
	calls      int
}

func (l *countingLoader) LoadChallenge(_ context.Context, challengeID string) (domain.Challenge, error) {
	l.calls++
	c, ok := l.challenges[challengeID]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return c, nil
}

func sampleChallenge() domain.Challenge {
	return domain.Challenge{
		ID:        "c1",
		Title:     "Basics",
		CreatedBy: "u1",
		Questions: []domain.Question{
			{Kind: domain.KindOpenAnswer, Prompt: "What is 2 + 2?", Answer: "4"},
		},
	}
}
