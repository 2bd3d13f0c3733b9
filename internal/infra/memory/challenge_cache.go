package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pychallenge-service/internal/domain"
)

// ChallengeLoader fetches challenges from the backing document store.
type ChallengeLoader interface {
	LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// ChallengeCache keeps decoded challenges in process for a jittered TTL.
// Concurrent misses for one id share a single load. Deleting a challenge bumps
// its epoch, so a load that started before the delete is handed to its callers
// but never cached.
type ChallengeCache struct {
	loader  ChallengeLoader
	ttl     time.Duration
	clock   func() time.Time
	flights singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
	epochs  map[string]uint64 // only ids that were invalidated
}

type cacheEntry struct {
	challenge domain.Challenge
	expiresAt time.Time
}

func NewChallengeCache(loader ChallengeLoader, ttl time.Duration) *ChallengeCache {
	return &ChallengeCache{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cacheEntry),
		epochs:  make(map[string]uint64),
	}
}

func (c *ChallengeCache) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if challenge, ok := c.fresh(challengeID); ok {
		return challenge, nil
	}
	v, err, _ := c.flights.Do(challengeID, func() (any, error) {
		challenge, ok, epoch := c.freshOrEpoch(challengeID)
		if ok {
			return challenge, nil
		}
		challenge, err := c.loader.LoadChallenge(ctx, challengeID)
		if err != nil {
			return nil, err
		}
		c.put(challengeID, challenge, epoch)
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return v.(domain.Challenge), nil
}

// Invalidate forgets a challenge after it was deleted.
func (c *ChallengeCache) Invalidate(_ context.Context, challengeID string) {
	c.mu.Lock()
	delete(c.entries, challengeID)
	c.epochs[challengeID]++
	c.mu.Unlock()
	c.flights.Forget(challengeID)
}

func (c *ChallengeCache) fresh(challengeID string) (domain.Challenge, bool) {
	challenge, ok, _ := c.freshOrEpoch(challengeID)
	return challenge, ok
}

func (c *ChallengeCache) freshOrEpoch(challengeID string) (domain.Challenge, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[challengeID]
	if ok && entry.expiresAt.After(c.clock()) {
		return entry.challenge, true, 0
	}
	return domain.Challenge{}, false, c.epochs[challengeID]
}

func (c *ChallengeCache) put(challengeID string, challenge domain.Challenge, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[challengeID] != epoch {
		return
	}
	c.entries[challengeID] = cacheEntry{challenge: challenge, expiresAt: c.clock().Add(c.lifetime())}
}

// lifetime adds up to 10% jitter so entries loaded together expire apart.
func (c *ChallengeCache) lifetime() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + rand.N(c.ttl/10+1)
}
