// Package store defines the persistence contracts the portal components
// depend on. Implementations live under internal/infra.
package store

import (
	"context"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
)

// MainDocument is the single shared document holding everything except
// submitted results: the quiz catalog, the admin selection flags, and the
// congratulation records.
type MainDocument struct {
	Quizzes    []domain.Quiz       `json:"quizzes"`
	Selections domain.SelectionSet `json:"selections"`
	Congrats   domain.CongratsSet  `json:"congrats"`
}

// Store is the backend-agnostic persistence contract. The main document is
// updated field-by-field with whole-value overwrites (last writer wins, no
// merge); results are append-only and listed in submission order.
type Store interface {
	// Main returns the main document, initializing it on first access.
	Main(ctx context.Context) (MainDocument, error)
	UpdateQuizzes(ctx context.Context, quizzes []domain.Quiz) error
	UpdateSelections(ctx context.Context, selections domain.SelectionSet) error
	UpdateCongrats(ctx context.Context, congrats domain.CongratsSet) error
	// ListResults returns all results ordered by submission time ascending.
	ListResults(ctx context.Context) ([]domain.Result, error)
	AppendResult(ctx context.Context, result domain.Result) error
}

// DeviceStore holds per-device state: the login session and the in-progress
// attempt, nothing else. Values are opaque JSON blobs keyed by device token.
type DeviceStore interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// QuizFinder resolves a room code to a quiz. The catalog implements it
// directly; the infra caches wrap it for hot student-join lookups.
type QuizFinder interface {
	Find(ctx context.Context, code string) (domain.Quiz, bool, error)
}
