package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pychallenge-service/internal/domain"
)

// DocumentStore keeps each document as a JSON string and indexes ids in a
// sorted set per collection, scored by creation time:
//
//	SET  doc:{collection}:{id}  {json}
//	ZADD docs:{collection}      {unix micros} {id}
//
// Timestamps come from the Redis server clock (TIME). Bounded queries read
// the newest ids with ZREVRANGE.
type DocumentStore struct {
	client *redis.Client
}

func NewDocumentStore(client *redis.Client) *DocumentStore {
	return &DocumentStore{client: client}
}

func (s *DocumentStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	now, err := s.client.Time(ctx).Result()
	if err != nil {
		return "", err
	}
	stored := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stored[k] = v
	}
	stored["createdAt"] = now.UTC().Format(time.RFC3339Nano)
	raw, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, id), raw, 0)
	pipe.ZAdd(ctx, indexKey(collection), redis.Z{Score: float64(now.UnixMicro()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	raw, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, err
	}
	return decodeDocument(id, raw)
}

func (s *DocumentStore) QueryBounded(ctx context.Context, collection string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		return []domain.Document{}, nil
	}
	ids, err := s.client.ZRevRange(ctx, indexKey(collection), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a body: deleted concurrently
			continue
		}
		doc, err := decodeDocument(ids[i], []byte(raw))
		if err != nil {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, docKey(collection, id))
	pipe.ZRem(ctx, indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func decodeDocument(id string, raw []byte) (domain.Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: id, Fields: fields}, nil
}

func docKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

func indexKey(collection string) string {
	return "docs:" + collection
}
