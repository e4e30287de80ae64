package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches room-code lookups with TTL so every student join does not
// re-read the whole catalog document.
type QuizCache struct {
	finder store.QuizFinder
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	found     bool
	expiresAt time.Time
}

func NewQuizCache(finder store.QuizFinder, ttl time.Duration) *QuizCache {
	return &QuizCache{
		finder: finder,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (c *QuizCache) Find(ctx context.Context, code string) (domain.Quiz, bool, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[code]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, entry.found, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[code]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		quiz, found, err := c.finder.Find(ctx, code)
		if err != nil {
			return cachedQuiz{}, err
		}

		entry := cachedQuiz{quiz: quiz, found: found, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Lock()
		c.cache[code] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	entry := result.(cachedQuiz)
	return entry.quiz, entry.found, nil
}

// Invalidate drops a cached code after admin edits so reschedules are seen
// without waiting for expiry.
func (c *QuizCache) Invalidate(_ context.Context, code string) {
	c.mu.Lock()
	delete(c.cache, code)
	c.mu.Unlock()
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
