package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pychallenge-service/internal/domain"
)

func seedChallenge(t *testing.T, f *fixture) string {
	t.Helper()
	created, err := f.challenges.Create(context.Background(), arithmeticDraft(), alice)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created.ID
}

func TestPlaySessionScoresAndRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := seedChallenge(t, f)

	session, err := f.play.Start(ctx, id, bob)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.SetAnswer(0, domain.Submission{Text: "4"}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := session.SetAnswer(1, domain.Submission{Text: " PARIS "}); err != nil {
		t.Fatalf("answer: %v", err)
	}

	result, err := session.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CorrectCount != 2 || result.Total != 2 {
		t.Fatalf("expected 2/2, got %d/%d", result.CorrectCount, result.Total)
	}

	record, err := session.Record(ctx)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if record.ID == "" || record.Score != 2 || record.UserName != "bob@example.com" || record.ChallengeTitle != "Warm-up" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.CreatedAt != nil {
		t.Fatalf("record must not wait for the server timestamp")
	}

	again, err := session.Record(ctx)
	if err != nil || again.ID != record.ID {
		t.Fatalf("expected the same record on repeat, got %+v err=%v", again, err)
	}
	docs, _ := f.mem.QueryBounded(ctx, domain.AttemptsCollection, 10)
	if len(docs) != 1 {
		t.Fatalf("expected one stored attempt, got %d", len(docs))
	}
}

func TestPlaySessionRecordFailureKeepsScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := seedChallenge(t, f)
	session, err := f.play.Start(ctx, id, bob)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = session.SetAnswer(0, domain.Submission{Text: "5"})
	_ = session.SetAnswer(1, domain.Submission{Text: "Paris"})
	if _, err := session.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.store.failCreate = true
	_, err = session.Record(ctx)
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) || !errors.Is(err, errUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	result, ok := session.Result()
	if !ok || result.CorrectCount != 1 || result.Results[0].Correct {
		t.Fatalf("score must survive a failed write, got %+v ok=%v", result, ok)
	}
	if got := testutil.ToFloat64(f.metrics.AttemptsRecorded.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected one failed write counted, got %v", got)
	}

	f.store.failCreate = false
	record, err := session.Record(ctx)
	if err != nil || record.ID == "" {
		t.Fatalf("expected retry to succeed, got %+v err=%v", record, err)
	}
}

func TestPlaySessionFreezesAfterSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := seedChallenge(t, f)
	session, _ := f.play.Start(ctx, id, bob)

	if _, err := session.Record(ctx); !errors.Is(err, domain.ErrNotSubmitted) {
		t.Fatalf("expected not submitted, got %v", err)
	}
	if _, ok := session.Result(); ok {
		t.Fatalf("expected no result before submit")
	}
	first, _ := session.Submit()
	if err := session.SetAnswer(0, domain.Submission{Text: "4"}); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
	second, err := session.Submit()
	if !errors.Is(err, domain.ErrAlreadySubmitted) || second.CorrectCount != first.CorrectCount {
		t.Fatalf("expected frozen result, got %+v err=%v", second, err)
	}
	if got := testutil.ToFloat64(f.metrics.AttemptsScored); got != 1 {
		t.Fatalf("expected one scored attempt, got %v", got)
	}
}

func TestPlaySessionRevealBeforeSubmitIsFlagged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := seedChallenge(t, f)

	session, _ := f.play.Start(ctx, id, bob)
	answers := session.RevealAnswers()
	if len(answers) != 2 || answers[1].Answer != "Paris" {
		t.Fatalf("unexpected revealed answers %+v", answers)
	}
	_, _ = session.Submit()
	record, err := session.Record(ctx)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !record.AnswersRevealed {
		t.Fatalf("expected attempt flagged as revealed")
	}

	after, _ := f.play.Start(ctx, id, bob)
	_, _ = after.Submit()
	after.RevealAnswers()
	if after.AnswersRevealed() {
		t.Fatalf("reviewing answers after submission must not flag the attempt")
	}
}

func TestPlaySessionHints(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := seedChallenge(t, f)
	session, _ := f.play.Start(ctx, id, bob)

	view, err := session.RequestHint(1)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if !view.Shown || view.Hint != "City of light" || view.Progressive != "P••••" {
		t.Fatalf("unexpected hint view %+v", view)
	}
	view, _ = session.ToggleHint(1)
	if view.Shown || view.Hint != "" || view.RevealCount != 1 {
		t.Fatalf("expected hidden panel keeping progress, got %+v", view)
	}
	if _, err := session.ToggleHint(7); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestPlayServiceStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	if _, err := f.play.Start(ctx, "missing", bob); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected challenge not found, got %v", err)
	}
	id := seedChallenge(t, f)
	if _, err := f.play.Start(ctx, id, domain.User{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
