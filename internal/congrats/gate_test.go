package congrats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/memory"
)

func TestSendRequiresSelection(t *testing.T) {
	gate := New(memory.NewStore())
	if err := gate.Send(context.Background(), "111111", nil); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("Send with no keys error = %v, want ErrNoSelection", err)
	}
}

func TestSendAndPendingEitherOrder(t *testing.T) {
	now := time.UnixMilli(5_000_000)
	gate := NewWithClock(memory.NewStore(), func() time.Time { return now })
	ctx := context.Background()

	s1 := domain.StudentIdentity{USN: "1AB21CS001"}
	s2 := domain.StudentIdentity{USN: "1AB21CS002"}
	if err := gate.Send(ctx, "111111", []string{domain.TeamKey(s1, s2)}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	c, ok, err := gate.Pending(ctx, s1, s2)
	if err != nil || !ok {
		t.Fatalf("Pending(s1,s2) = %v, %v, %v", c, ok, err)
	}
	if c.QuizID != "111111" || c.SentAt != now.UnixMilli() {
		t.Fatalf("congrats = %+v", c)
	}

	// Swapped login order must still find it.
	if _, ok, _ := gate.Pending(ctx, s2, s1); !ok {
		t.Fatal("Pending with swapped pair not found")
	}

	if _, ok, _ := gate.Pending(ctx, s1, domain.StudentIdentity{USN: "1AB21CS099"}); ok {
		t.Fatal("Pending found for unrelated pair")
	}
}

func TestSendUpserts(t *testing.T) {
	now := time.UnixMilli(5_000_000)
	gate := NewWithClock(memory.NewStore(), func() time.Time { return now })
	ctx := context.Background()
	key := "A__B"

	if err := gate.Send(ctx, "111111", []string{key}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	now = now.Add(time.Hour)
	if err := gate.Send(ctx, "222222", []string{key}); err != nil {
		t.Fatalf("re-Send: %v", err)
	}

	c, ok, err := gate.Pending(ctx, domain.StudentIdentity{USN: "A"}, domain.StudentIdentity{USN: "B"})
	if err != nil || !ok {
		t.Fatalf("Pending: %v %v", ok, err)
	}
	if c.QuizID != "222222" || c.SentAt != now.UnixMilli() {
		t.Fatalf("upsert lost: %+v", c)
	}
}
