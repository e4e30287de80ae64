package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// missSentinel marks codes that matched no quiz so repeated bad joins do not
// hammer the backing store.
const missSentinel = "__miss__"

// QuizCache caches quiz JSON per room code (SET portal:quiz:{code}) and falls
// back to the wrapped finder on cache miss.
type QuizCache struct {
	client *redis.Client
	finder store.QuizFinder
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, finder store.QuizFinder, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		finder: finder,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) Find(ctx context.Context, code string) (domain.Quiz, bool, error) {
	key := c.key(code)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return decodeCached(raw)
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return raw, nil
		}

		quiz, found, err := c.finder.Find(ctx, code)
		if err != nil {
			return "", err
		}

		cached := missSentinel
		if found {
			data, err := json.Marshal(quiz)
			if err != nil {
				return "", err
			}
			cached = string(data)
		}
		_ = c.client.Set(ctx, key, cached, c.ttlWithJitter()).Err()
		return cached, nil
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	return decodeCached(result.(string))
}

// Invalidate drops a cached code after admin edits.
func (c *QuizCache) Invalidate(ctx context.Context, code string) {
	_ = c.client.Del(ctx, c.key(code)).Err()
}

func (c *QuizCache) key(code string) string {
	return "portal:quiz:" + code
}

func decodeCached(raw string) (domain.Quiz, bool, error) {
	if raw == missSentinel {
		return domain.Quiz{}, false, nil
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, false, err
	}
	return quiz, true, nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
