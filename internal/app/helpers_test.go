package app_test

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/domain"
	"pychallenge-service/internal/infra/memory"
	"pychallenge-service/internal/metrics"
)

var errUnavailable = errors.New("store unavailable")

// flakyStore fails the operations switched on, delegating the rest.
type flakyStore struct {
	app.DocumentStore
	failCreate bool
	failQuery  bool
	failDelete bool
	creates    int
}

func (s *flakyStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	s.creates++
	if s.failCreate {
		return "", errUnavailable
	}
	return s.DocumentStore.Create(ctx, collection, fields)
}

func (s *flakyStore) QueryBounded(ctx context.Context, collection string, limit int) ([]domain.Document, error) {
	if s.failQuery {
		return nil, errUnavailable
	}
	return s.DocumentStore.QueryBounded(ctx, collection, limit)
}

func (s *flakyStore) Delete(ctx context.Context, collection, id string) error {
	if s.failDelete {
		return errUnavailable
	}
	return s.DocumentStore.Delete(ctx, collection, id)
}

type fixture struct {
	store      *flakyStore
	mem        *memory.DocumentStore
	cache      *memory.ChallengeCache
	challenges *app.ChallengeService
	recorder   *app.AttemptRecorder
	play       *app.PlayService
	board      *app.LeaderboardService
	metrics    *metrics.Metrics
}

func newFixture() *fixture {
	clock := &stepClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mem := memory.NewDocumentStoreWithClock(clock.Now)
	store := &flakyStore{DocumentStore: mem}
	m := metrics.New(prometheus.NewRegistry())
	logger := zap.NewNop()
	cache := memory.NewChallengeCache(app.NewChallengeLoader(store), time.Minute)
	recorder := app.NewAttemptRecorder(store, logger, m)
	return &fixture{
		store:      store,
		mem:        mem,
		cache:      cache,
		challenges: app.NewChallengeService(store, cache, logger, m),
		recorder:   recorder,
		play:       app.NewPlayService(cache, recorder, m),
		board:      app.NewLeaderboardService(store, 100, m),
		metrics:    m,
	}
}

// stepClock advances one second per reading so server timestamps are distinct.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

var (
	alice = domain.User{ID: "u-alice", Name: "Alice"}
	bob   = domain.User{ID: "u-bob", Email: "bob@example.com"}
)

func arithmeticDraft() app.ChallengeDraft {
	return app.ChallengeDraft{
		Title:       "  Warm-up  ",
		Description: " Two quick ones ",
		Questions: []app.QuestionDraft{
			{Prompt: "2+2?", Answer: "4"},
			{Prompt: "Capital of France?", Answer: "Paris", Hint: "City of light"},
		},
	}
}

func texts(answers ...string) []domain.Submission {
	out := make([]domain.Submission, len(answers))
	for i, a := range answers {
		out[i] = domain.Submission{Text: a}
	}
	return out
}
