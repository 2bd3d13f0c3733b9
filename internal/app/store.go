package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pychallenge-service/internal/domain"
)

// DocumentStore is the remote document collection the engine talks to.
// Create assigns the id and the createdAt field server-side. QueryBounded
// returns the limit most recently created documents; callers must not rely on
// the order they come back in.
type DocumentStore interface {
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (domain.Document, error)
	QueryBounded(ctx context.Context, collection string, limit int) ([]domain.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// ChallengeRepository serves decoded challenges, usually from a cache.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
	Invalidate(ctx context.Context, challengeID string)
}

// ChallengeLoader reads challenges straight from the document store.
type ChallengeLoader struct {
	store DocumentStore
}

func NewChallengeLoader(store DocumentStore) *ChallengeLoader {
	return &ChallengeLoader{store: store}
}

func (l *ChallengeLoader) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	doc, err := l.store.Get(ctx, domain.ChallengesCollection, challengeID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, err
	}
	return DecodeChallenge(doc)
}

// DecodeChallenge converts a stored document into a Challenge.
func DecodeChallenge(doc domain.Document) (domain.Challenge, error) {
	var challenge domain.Challenge
	if err := decodeDocument(doc, &challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("decode challenge %s: %w", doc.ID, err)
	}
	challenge.ID = doc.ID
	if ts, ok := CoerceTime(doc.Fields["createdAt"]); ok {
		challenge.CreatedAt = &ts
	}
	return challenge, nil
}

// toFields turns a record into store fields; id and createdAt are owned by the store.
func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "id")
	delete(fields, "createdAt")
	return fields, nil
}

func decodeDocument(doc domain.Document, out any) error {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		if k == "createdAt" || k == "id" {
			continue
		}
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// CoerceTime accepts the timestamp shapes the stores produce: time values,
// RFC 3339 strings and epoch milliseconds. Anything else is unresolved.
func CoerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		if !isFinite(t) || t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	case int64:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(t), true
	case int:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	case json.Number:
		ms, err := t.Int64()
		if err != nil || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}
