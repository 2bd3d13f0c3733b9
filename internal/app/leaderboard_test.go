package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/domain"
)

func attemptDoc(id string, score any, createdAt any) domain.Document {
	fields := map[string]any{"userId": "u-" + id}
	if score != nil {
		fields["score"] = score
	}
	if createdAt != nil {
		fields["createdAt"] = createdAt
	}
	return domain.Document{ID: id, Fields: fields}
}

func ids(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestRankTreatsNonNumericScoreAsZero(t *testing.T) {
	docs := []domain.Document{
		attemptDoc("nine", 9, nil),
		attemptDoc("text", "x", nil),
		attemptDoc("five", 5, nil),
	}
	got := ids(app.Rank(docs, 0))
	want := []string{"nine", "five", "text"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankBreaksTiesByRecency(t *testing.T) {
	docs := []domain.Document{
		attemptDoc("older", 3, float64(100)),
		attemptDoc("newer", 3, float64(200)),
	}
	got := ids(app.Rank(docs, 0))
	if got[0] != "newer" || got[1] != "older" {
		t.Fatalf("expected newer attempt first, got %v", got)
	}
}

func TestRankAcceptsMixedTimestampShapes(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.Document{
		attemptDoc("millis", 1, json.Number("1740700800000")), // base minus one day
		attemptDoc("string", 1, base.Add(time.Hour).Format(time.RFC3339Nano)),
		attemptDoc("time", 1, base),
		attemptDoc("missing", 1, nil),
	}
	got := ids(app.Rank(docs, 0))
	want := []string{"string", "time", "millis", "missing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankIsStableAndIdempotent(t *testing.T) {
	docs := []domain.Document{
		attemptDoc("a", 2, nil),
		attemptDoc("b", math.NaN(), nil),
		attemptDoc("c", 2, nil),
		attemptDoc("d", math.Inf(1), nil),
		attemptDoc("e", 7, float64(10)),
		attemptDoc("f", nil, nil),
	}
	once := app.Rank(docs, 0)
	want := []string{"e", "a", "c", "b", "d", "f"}
	if got := ids(once); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if twice := ids(app.Rank(once, 0)); !reflect.DeepEqual(twice, want) {
		t.Fatalf("ranking is not idempotent: %v", twice)
	}
	if len(docs) != 6 || docs[0].ID != "a" || docs[4].ID != "e" {
		t.Fatalf("input slice was reordered")
	}
}

func TestRankConsidersOnlyTheWindow(t *testing.T) {
	docs := []domain.Document{
		attemptDoc("low", 1, nil),
		attemptDoc("mid", 2, nil),
		attemptDoc("high", 9, nil),
	}
	got := ids(app.Rank(docs, 2))
	if !reflect.DeepEqual(got, []string{"mid", "low"}) {
		t.Fatalf("expected only the first two fetched documents ranked, got %v", got)
	}
}

func TestEntriesNumberFromOne(t *testing.T) {
	entries := app.Entries([]domain.Document{
		{ID: "a", Fields: map[string]any{"score": float64(2), "totalQuestions": float64(3), "userName": "Alice", "answersRevealed": true}},
		{ID: "b", Fields: map[string]any{"score": "oops"}},
	})
	if len(entries) != 2 || entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("unexpected ranks %+v", entries)
	}
	first := entries[0].Attempt
	if first.Score != 2 || first.TotalQuestions != 3 || first.UserName != "Alice" || !first.AnswersRevealed {
		t.Fatalf("unexpected attempt %+v", first)
	}
	if entries[1].Attempt.Score != 0 || entries[1].Attempt.CreatedAt != nil {
		t.Fatalf("expected tolerant decoding, got %+v", entries[1].Attempt)
	}
}

func TestEntriesRoundAndClampCounts(t *testing.T) {
	entries := app.Entries([]domain.Document{
		{ID: "frac", Fields: map[string]any{"score": 2.6, "totalQuestions": 3.4}},
		{ID: "huge", Fields: map[string]any{"score": 1e300}},
		{ID: "neg", Fields: map[string]any{"score": -4}},
	})
	got := []int{entries[0].Attempt.Score, entries[1].Attempt.Score, entries[2].Attempt.Score}
	if !reflect.DeepEqual(got, []int{3, math.MaxInt32, 0}) {
		t.Fatalf("unexpected scores %v", got)
	}
	if entries[0].Attempt.TotalQuestions != 3 {
		t.Fatalf("expected total rounded to 3, got %d", entries[0].Attempt.TotalQuestions)
	}
}

func TestLeaderboardServiceRanksRecordedAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	challenge := sampleChallenge()

	for _, answers := range [][]string{{"5", "Lyon"}, {"4", "paris"}, {"4", "Lyon"}, {"1", "Paris"}} {
		result := app.Score(challenge, texts(answers...))
		if _, err := f.recorder.Record(ctx, challenge, result, alice, false); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	f.mem.Put(domain.AttemptsCollection, "legacy", map[string]any{"score": "n/a"})

	board, err := f.board.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(board.Entries))
	}
	scores := make([]int, len(board.Entries))
	for i, e := range board.Entries {
		scores[i] = e.Attempt.Score
	}
	if !reflect.DeepEqual(scores, []int{2, 1, 1, 0, 0}) {
		t.Fatalf("unexpected score order %v", scores)
	}
	// equal scores: the later of the two single-point attempts comes first
	if board.Entries[1].Attempt.CreatedAt.Before(*board.Entries[2].Attempt.CreatedAt) {
		t.Fatalf("expected most recent tie first")
	}
	if board.Entries[4].Attempt.ID != "legacy" {
		t.Fatalf("expected malformed record last, got %s", board.Entries[4].Attempt.ID)
	}
}

func TestLeaderboardServiceLimitShrinksWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.mem.Put(domain.AttemptsCollection, string(rune('a'+i)), map[string]any{"score": float64(i)})
	}
	board, err := f.board.Leaderboard(ctx, 3)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board.Window != 3 || len(board.Entries) != 3 {
		t.Fatalf("expected window of 3, got %d with %d entries", board.Window, len(board.Entries))
	}

	board, _ = f.board.Leaderboard(ctx, 1000)
	if board.Window != app.DefaultLeaderboardWindow {
		t.Fatalf("expected configured window, got %d", board.Window)
	}
}

func TestLeaderboardWindowFollowsNewestAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	board := app.NewLeaderboardService(f.store, 3, f.metrics)
	challenge := sampleChallenge()

	for i := 0; i < 3; i++ {
		result := app.Score(challenge, texts("4", "Lyon"))
		if _, err := f.recorder.Record(ctx, challenge, result, alice, false); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	perfect := app.Score(challenge, texts("4", "Paris"))
	latest, err := f.recorder.Record(ctx, challenge, perfect, bob, false)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	lb, err := board.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 3 {
		t.Fatalf("expected a full window of 3, got %d", len(lb.Entries))
	}
	if lb.Entries[0].Attempt.ID != latest.ID || lb.Entries[0].Attempt.Score != 2 {
		t.Fatalf("newest attempt missing from the window, got %+v", lb.Entries[0].Attempt)
	}
}

func TestLeaderboardServiceStoreFailure(t *testing.T) {
	f := newFixture()
	f.store.failQuery = true
	if _, err := f.board.Leaderboard(context.Background(), 0); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
