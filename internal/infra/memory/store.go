package memory

import (
	"context"
	"sync"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

// Store is an in-memory implementation of store.Store, used in tests and as
// the fallback when no Postgres URL is configured.
type Store struct {
	mu      sync.RWMutex
	main    store.MainDocument
	results []domain.Result
}

func NewStore() *Store {
	return &Store{
		main: store.MainDocument{
			Selections: domain.SelectionSet{},
			Congrats:   domain.CongratsSet{},
		},
	}
}

func (s *Store) Main(_ context.Context) (store.MainDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *Store) UpdateQuizzes(_ context.Context, quizzes []domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Quizzes = append([]domain.Quiz(nil), quizzes...)
	return nil
}

func (s *Store) UpdateSelections(_ context.Context, selections domain.SelectionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Selections = copyMap(selections)
	return nil
}

func (s *Store) UpdateCongrats(_ context.Context, congrats domain.CongratsSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Congrats = copyMap(congrats)
	return nil
}

func (s *Store) ListResults(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Result(nil), s.results...), nil
}

func (s *Store) AppendResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *Store) snapshotLocked() store.MainDocument {
	return store.MainDocument{
		Quizzes:    append([]domain.Quiz(nil), s.main.Quizzes...),
		Selections: copyMap(s.main.Selections),
		Congrats:   copyMap(s.main.Congrats),
	}
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
