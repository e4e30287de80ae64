// Package congrats sends and surfaces the recognition message selected teams
// see after logging in.
package congrats

import (
	"context"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

// Gate persists congratulation records and answers whether a team has one
// waiting. Records are upserted on re-send and never expire.
type Gate struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Gate {
	return NewWithClock(s, time.Now)
}

func NewWithClock(s store.Store, now func() time.Time) *Gate {
	return &Gate{store: s, now: now}
}

// Pending returns the congratulation waiting for the team, if any. The lookup
// tolerates the pair logging in with their USNs in either order.
func (g *Gate) Pending(ctx context.Context, s1, s2 domain.StudentIdentity) (domain.Congrats, bool, error) {
	doc, err := g.store.Main(ctx)
	if err != nil {
		return domain.Congrats{}, false, err
	}
	c, ok := domain.LookupTeam(doc.Congrats, s1, s2)
	return c, ok, nil
}

// Send records a congratulation for every team key given, stamped with the
// quiz it was earned on. Re-sending overwrites the previous record.
func (g *Gate) Send(ctx context.Context, quizID string, teamKeys []string) error {
	if len(teamKeys) == 0 {
		return domain.ErrNoSelection
	}
	doc, err := g.store.Main(ctx)
	if err != nil {
		return err
	}
	set := doc.Congrats
	if set == nil {
		set = make(domain.CongratsSet)
	}
	sentAt := g.now().UnixMilli()
	for _, key := range teamKeys {
		set[key] = domain.Congrats{QuizID: quizID, SentAt: sentAt}
	}
	return g.store.UpdateCongrats(ctx, set)
}
