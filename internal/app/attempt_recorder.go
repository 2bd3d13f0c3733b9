package app

import (
	"context"

	"go.uber.org/zap"

	"pychallenge-service/internal/domain"
	"pychallenge-service/internal/metrics"
)

// AttemptRecorder appends attempt records to the store. Records are never
// updated: a retake is simply another Record call.
type AttemptRecorder struct {
	store   DocumentStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewAttemptRecorder(store DocumentStore, logger *zap.Logger, m *metrics.Metrics) *AttemptRecorder {
	return &AttemptRecorder{store: store, logger: logger, metrics: m}
}

// Record persists the outcome of a scored attempt. The returned record has a
// nil CreatedAt: the store resolves the timestamp and callers must not wait for it.
// Failures are logged and returned as a StorageError; the score itself stays valid.
func (r *AttemptRecorder) Record(ctx context.Context, challenge domain.Challenge, result domain.ScoreResult, user domain.User, answersRevealed bool) (domain.AttemptRecord, error) {
	record := domain.AttemptRecord{
		ChallengeID:     challenge.ID,
		ChallengeTitle:  challenge.Title,
		UserID:          user.ID,
		UserName:        user.DisplayLabel(),
		Score:           result.CorrectCount,
		TotalQuestions:  result.Total,
		AnswersRevealed: answersRevealed,
	}

	fields, err := toFields(record)
	if err != nil {
		return record, err
	}
	id, err := r.store.Create(ctx, domain.AttemptsCollection, fields)
	if err != nil {
		r.metrics.AttemptsRecorded.WithLabelValues("error").Inc()
		r.logger.Error("record attempt",
			zap.String("challenge_id", challenge.ID),
			zap.String("user_id", user.ID),
			zap.Int("score", result.CorrectCount),
			zap.Error(err),
		)
		return record, domain.NewStorageError("create attempt", err)
	}
	r.metrics.AttemptsRecorded.WithLabelValues("ok").Inc()
	record.ID = id
	return record, nil
}
