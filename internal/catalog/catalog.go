// Package catalog manages the quiz catalog: creation with room-code
// generation, admin reschedules, deletion, and CSV question import.
package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

// codeAttempts bounds room-code regeneration on collision before giving up.
const codeAttempts = 10

type Catalog struct {
	store   store.Store
	genCode func() string
}

func New(st store.Store) *Catalog {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Catalog{
		store: st,
		genCode: func() string {
			// 6 ASCII digits in [100000, 999999].
			return fmt.Sprintf("%d", 100000+rnd.Intn(900000))
		},
	}
}

// NewWithCodeGen is test-only for deterministic room codes.
func NewWithCodeGen(st store.Store, genCode func() string) *Catalog {
	c := New(st)
	c.genCode = genCode
	return c
}

// Create validates the inputs, drops incomplete questions, generates a unique
// room code, and appends the quiz to the catalog. Incomplete questions (empty
// text or any empty option) are filtered out; the quiz is rejected only when
// no complete question remains.
func (c *Catalog) Create(ctx context.Context, title string, startTime time.Time, durationMinutes int, questions []domain.Question) (domain.Quiz, error) {
	if title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: quiz title is required", domain.ErrValidation)
	}
	if startTime.IsZero() {
		return domain.Quiz{}, fmt.Errorf("%w: start date and time are required", domain.ErrValidation)
	}
	if durationMinutes < 1 {
		return domain.Quiz{}, fmt.Errorf("%w: duration must be at least 1 minute", domain.ErrValidation)
	}

	var complete []domain.Question
	for _, q := range questions {
		if q.Complete() {
			complete = append(complete, q)
		}
	}
	if len(complete) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: at least one complete question is required", domain.ErrValidation)
	}

	doc, err := c.store.Main(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}

	code, err := c.uniqueCode(doc.Quizzes)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		ID:        code,
		Title:     title,
		StartTime: startTime.UnixMilli(),
		Duration:  durationMinutes,
		Questions: complete,
	}
	if err := c.store.UpdateQuizzes(ctx, append(doc.Quizzes, quiz)); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// uniqueCode regenerates on collision with an existing code; unbounded retry
// would loop forever on a full code space, so give up after a few attempts.
func (c *Catalog) uniqueCode(existing []domain.Quiz) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, q := range existing {
		taken[q.ID] = struct{}{}
	}
	for i := 0; i < codeAttempts; i++ {
		code := c.genCode()
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique room code after %d attempts", codeAttempts)
}

// Reschedule updates a quiz's start time and duration. Questions are never
// touched here, and attempts already in progress keep their original
// deadline.
func (c *Catalog) Reschedule(ctx context.Context, id string, startTime time.Time, durationMinutes int) error {
	if startTime.IsZero() || durationMinutes < 1 {
		return fmt.Errorf("%w: a valid date and duration are required", domain.ErrValidation)
	}

	doc, err := c.store.Main(ctx)
	if err != nil {
		return err
	}
	for i := range doc.Quizzes {
		if doc.Quizzes[i].ID == id {
			doc.Quizzes[i].StartTime = startTime.UnixMilli()
			doc.Quizzes[i].Duration = durationMinutes
			return c.store.UpdateQuizzes(ctx, doc.Quizzes)
		}
	}
	return domain.ErrQuizNotFound
}

// Delete removes a quiz. Existing results are not cascade-deleted; they keep
// rendering under a fallback title.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	doc, err := c.store.Main(ctx)
	if err != nil {
		return err
	}
	kept := doc.Quizzes[:0]
	for _, q := range doc.Quizzes {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(doc.Quizzes) {
		return domain.ErrQuizNotFound
	}
	return c.store.UpdateQuizzes(ctx, kept)
}

// Find resolves a room code to a quiz.
func (c *Catalog) Find(ctx context.Context, code string) (domain.Quiz, bool, error) {
	doc, err := c.store.Main(ctx)
	if err != nil {
		return domain.Quiz{}, false, err
	}
	for _, q := range doc.Quizzes {
		if q.ID == code {
			return q, true, nil
		}
	}
	return domain.Quiz{}, false, nil
}

// List returns all quizzes in creation order.
func (c *Catalog) List(ctx context.Context) ([]domain.Quiz, error) {
	doc, err := c.store.Main(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Quizzes, nil
}
