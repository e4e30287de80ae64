package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
)

type countingFinder struct {
	mu      sync.Mutex
	calls   int
	quizzes map[string]domain.Quiz
}

func (f *countingFinder) Find(_ context.Context, code string) (domain.Quiz, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	q, ok := f.quizzes[code]
	return q, ok, nil
}

func (f *countingFinder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestQuizCacheCachesQuizJSON(t *testing.T) {
	mr, client := newTestClient(t)
	finder := &countingFinder{quizzes: map[string]domain.Quiz{
		"111111": {ID: "111111", Title: "A", Duration: 10},
	}}
	cache := NewQuizCache(client, finder, time.Minute)
	ctx := context.Background()

	quiz, found, err := cache.Find(ctx, "111111")
	if err != nil || !found || quiz.Title != "A" {
		t.Fatalf("Find: %+v %v %v", quiz, found, err)
	}
	if !mr.Exists("portal:quiz:111111") {
		t.Fatal("expected cached key")
	}

	cache.Find(ctx, "111111")
	if finder.count() != 1 {
		t.Fatalf("finder calls = %d, want 1", finder.count())
	}
}

func TestQuizCacheCachesMisses(t *testing.T) {
	_, client := newTestClient(t)
	finder := &countingFinder{quizzes: map[string]domain.Quiz{}}
	cache := NewQuizCache(client, finder, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, found, err := cache.Find(ctx, "999999"); found || err != nil {
			t.Fatalf("Find: %v %v", found, err)
		}
	}
	if finder.count() != 1 {
		t.Fatalf("finder calls = %d, want 1", finder.count())
	}
}

func TestQuizCacheExpiryAndInvalidate(t *testing.T) {
	mr, client := newTestClient(t)
	finder := &countingFinder{quizzes: map[string]domain.Quiz{
		"111111": {ID: "111111", Title: "old"},
	}}
	cache := NewQuizCache(client, finder, time.Minute)
	ctx := context.Background()

	cache.Find(ctx, "111111")
	finder.quizzes["111111"] = domain.Quiz{ID: "111111", Title: "new"}

	// Jitter adds at most 10%, so 2 minutes is safely past expiry.
	mr.FastForward(2 * time.Minute)
	quiz, _, _ := cache.Find(ctx, "111111")
	if quiz.Title != "new" {
		t.Fatalf("expired entry still served: %q", quiz.Title)
	}

	finder.quizzes["111111"] = domain.Quiz{ID: "111111", Title: "newer"}
	cache.Invalidate(ctx, "111111")
	quiz, _, _ = cache.Find(ctx, "111111")
	if quiz.Title != "newer" {
		t.Fatalf("invalidation not applied: %q", quiz.Title)
	}
}
