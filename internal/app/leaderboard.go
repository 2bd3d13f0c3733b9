package app

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"pychallenge-service/internal/domain"
	"pychallenge-service/internal/metrics"
)

// DefaultLeaderboardWindow is the number of attempts fetched per leaderboard read.
const DefaultLeaderboardWindow = 100

// Rank orders attempt documents by score (highest first), then by createdAt
// (most recent first). A missing or non-numeric score counts as 0 and a missing
// timestamp as the epoch, so malformed records sort last instead of being
// dropped. Equal keys keep their input order. Only the first windowSize
// documents are considered when windowSize > 0.
func Rank(docs []domain.Document, windowSize int) []domain.Document {
	if windowSize > 0 && len(docs) > windowSize {
		docs = docs[:windowSize]
	}
	type keyed struct {
		doc   domain.Document
		score float64
		at    int64
	}
	items := make([]keyed, len(docs))
	for i, doc := range docs {
		items[i] = keyed{doc: doc, score: CoerceScore(doc.Fields["score"]), at: coerceMillis(doc.Fields["createdAt"])}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].at > items[j].at
	})
	out := make([]domain.Document, len(items))
	for i, it := range items {
		out[i] = it.doc
	}
	return out
}

// Entries converts ranked documents into display rows numbered from 1.
func Entries(ranked []domain.Document) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, doc := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:    i + 1,
			Attempt: CoerceAttempt(doc),
		})
	}
	return entries
}

// CoerceScore returns the numeric value of a stored score, or 0.
func CoerceScore(v any) float64 {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if !isFinite(f) {
		return 0
	}
	return f
}

// CoerceAttempt reads an attempt record field by field, tolerating missing or
// mistyped values.
func CoerceAttempt(doc domain.Document) domain.AttemptRecord {
	f := doc.Fields
	record := domain.AttemptRecord{
		ID:              doc.ID,
		ChallengeID:     coerceString(f["challengeId"]),
		ChallengeTitle:  coerceString(f["challengeTitle"]),
		UserID:          coerceString(f["userId"]),
		UserName:        coerceString(f["userName"]),
		Score:           coerceCount(f["score"]),
		TotalQuestions:  coerceCount(f["totalQuestions"]),
		AnswersRevealed: f["answersRevealed"] == true,
	}
	if ts, ok := CoerceTime(f["createdAt"]); ok {
		record.CreatedAt = &ts
	}
	return record
}

// coerceCount rounds a stored number into [0, MaxInt32] for display.
func coerceCount(v any) int {
	f := math.Round(CoerceScore(v))
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

func coerceMillis(v any) int64 {
	ts, ok := CoerceTime(v)
	if !ok {
		return 0
	}
	return ts.UnixMilli()
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LeaderboardService fetches a bounded window of attempts and ranks it.
type LeaderboardService struct {
	store   DocumentStore
	window  int
	clock   func() time.Time
	metrics *metrics.Metrics
}

func NewLeaderboardService(store DocumentStore, window int, m *metrics.Metrics) *LeaderboardService {
	if window <= 0 {
		window = DefaultLeaderboardWindow
	}
	return &LeaderboardService{store: store, window: window, clock: time.Now, metrics: m}
}

// Leaderboard ranks among at most limit attempts (the configured window when
// limit is 0 or larger than the window).
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	window := s.window
	if limit > 0 && limit < window {
		window = limit
	}
	docs, err := s.store.QueryBounded(ctx, domain.AttemptsCollection, window)
	if err != nil {
		return domain.Leaderboard{}, domain.NewStorageError("query attempts", err)
	}
	s.metrics.LeaderboardReads.Inc()
	return domain.Leaderboard{
		Window:      window,
		Entries:     Entries(Rank(docs, window)),
		GeneratedAt: s.clock(),
	}, nil
}
