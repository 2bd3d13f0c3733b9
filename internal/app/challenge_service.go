package app

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"pychallenge-service/internal/domain"
	"pychallenge-service/internal/metrics"
)

// DefaultChallengeListLimit bounds challenge listings.
const DefaultChallengeListLimit = 100

// ChallengeService creates, lists and deletes challenges.
type ChallengeService struct {
	store     DocumentStore
	repo      ChallengeRepository
	validator *ChallengeValidator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewChallengeService(store DocumentStore, repo ChallengeRepository, logger *zap.Logger, m *metrics.Metrics) *ChallengeService {
	return &ChallengeService{
		store:     store,
		repo:      repo,
		validator: NewChallengeValidator(),
		logger:    logger,
		metrics:   m,
	}
}

// Create validates the draft and writes it. Nothing is written when any
// question is invalid. The returned challenge has no CreatedAt yet.
func (s *ChallengeService) Create(ctx context.Context, draft ChallengeDraft, author domain.User) (domain.Challenge, error) {
	if author.ID == "" {
		return domain.Challenge{}, domain.ErrUnauthenticated
	}
	draft = draft.Normalize()
	if err := s.validator.Validate(draft); err != nil {
		return domain.Challenge{}, err
	}

	challenge := domain.Challenge{
		Title:         draft.Title,
		Description:   draft.Description,
		CreatedBy:     author.ID,
		CreatedByName: author.DisplayLabel(),
		Questions:     draft.questions(),
	}
	fields, err := toFields(challenge)
	if err != nil {
		return domain.Challenge{}, err
	}
	id, err := s.store.Create(ctx, domain.ChallengesCollection, fields)
	if err != nil {
		return domain.Challenge{}, domain.NewStorageError("create challenge", err)
	}
	challenge.ID = id
	s.metrics.ChallengesCreated.Inc()
	s.logger.Info("challenge created",
		zap.String("challenge_id", id),
		zap.String("created_by", author.ID),
		zap.Int("questions", len(challenge.Questions)),
	)
	return challenge, nil
}

// Get loads a challenge through the repository cache.
func (s *ChallengeService) Get(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if challengeID == "" {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return s.repo.GetChallenge(ctx, challengeID)
}

// List returns up to limit challenges, newest first. When createdBy is set
// only that author's challenges are kept. Undecodable documents are skipped.
func (s *ChallengeService) List(ctx context.Context, limit int, createdBy string) ([]domain.Challenge, error) {
	if limit <= 0 || limit > DefaultChallengeListLimit {
		limit = DefaultChallengeListLimit
	}
	docs, err := s.store.QueryBounded(ctx, domain.ChallengesCollection, limit)
	if err != nil {
		return nil, domain.NewStorageError("query challenges", err)
	}
	out := make([]domain.Challenge, 0, len(docs))
	for _, doc := range docs {
		challenge, err := DecodeChallenge(doc)
		if err != nil {
			s.logger.Warn("skip malformed challenge", zap.String("challenge_id", doc.ID), zap.Error(err))
			continue
		}
		if createdBy != "" && challenge.CreatedBy != createdBy {
			continue
		}
		out = append(out, challenge)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdMillis(out[i]) > createdMillis(out[j])
	})
	return out, nil
}

// Delete removes a challenge owned by requester. Attempts recorded against it
// are kept. The ownership check reads the store, not the cache.
func (s *ChallengeService) Delete(ctx context.Context, challengeID string, requester domain.User) error {
	if requester.ID == "" {
		return domain.ErrUnauthenticated
	}
	doc, err := s.store.Get(ctx, domain.ChallengesCollection, challengeID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.NewStorageError("get challenge", err)
	}
	if coerceString(doc.Fields["createdBy"]) != requester.ID {
		s.logger.Warn("delete rejected",
			zap.String("challenge_id", challengeID),
			zap.String("requester", requester.ID),
		)
		return domain.ErrPermissionDenied
	}
	if err := s.store.Delete(ctx, domain.ChallengesCollection, challengeID); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.ErrChallengeNotFound
		}
		return domain.NewStorageError("delete challenge", err)
	}
	s.repo.Invalidate(ctx, challengeID)
	s.metrics.ChallengesDeleted.Inc()
	s.logger.Info("challenge deleted", zap.String("challenge_id", challengeID))
	return nil
}

func createdMillis(c domain.Challenge) int64 {
	if c.CreatedAt == nil {
		return 0
	}
	return c.CreatedAt.UnixMilli()
}
