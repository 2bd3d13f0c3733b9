package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pychallenge-service/internal/domain"
)

// ChallengeLoader fetches challenges from the backing document store.
type ChallengeLoader interface {
	LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// ChallengeCache caches decoded challenges in Redis and falls back to a loader on miss.
// Challenges are stored as: SET challenge:{id}:cache {json} EX ttl
type ChallengeCache struct {
	client *redis.Client
	loader ChallengeLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewChallengeCache(client *redis.Client, loader ChallengeLoader, ttl time.Duration) *ChallengeCache {
	return &ChallengeCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ChallengeCache) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if c, ok := r.cached(ctx, challengeID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx, challengeID); ok {
			return c, nil
		}

		challenge, err := r.loader.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			if raw, err := json.Marshal(challenge); err == nil {
				_ = r.client.Set(ctx, r.key(challengeID), raw, ttl).Err()
			}
		}
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// Invalidate removes the cached copy; best effort.
func (r *ChallengeCache) Invalidate(ctx context.Context, challengeID string) {
	_ = r.client.Del(ctx, r.key(challengeID)).Err()
	r.sf.Forget(challengeID)
}

func (r *ChallengeCache) cached(ctx context.Context, challengeID string) (domain.Challenge, bool) {
	raw, err := r.client.Get(ctx, r.key(challengeID)).Bytes()
	if err != nil {
		return domain.Challenge{}, false
	}
	var challenge domain.Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return domain.Challenge{}, false
	}
	return challenge, true
}

func (r *ChallengeCache) key(challengeID string) string {
	return "challenge:" + challengeID + ":cache"
}

func (r *ChallengeCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
