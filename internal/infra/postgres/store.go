// Package postgres implements the persistent store on a Postgres schema that
// mirrors the portal's document model: one main row of JSONB fields plus an
// append-only results table.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

const mainDocID = "main"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Main(ctx context.Context) (store.MainDocument, error) {
	var quizzes, selections, congrats []byte
	err := s.pool.QueryRow(ctx,
		`SELECT quizzes, selections, congrats FROM portal_main WHERE id=$1`, mainDocID,
	).Scan(&quizzes, &selections, &congrats)
	if err == pgx.ErrNoRows {
		// First run: create the main document.
		if err := s.init(ctx); err != nil {
			return store.MainDocument{}, err
		}
		return store.MainDocument{
			Selections: domain.SelectionSet{},
			Congrats:   domain.CongratsSet{},
		}, nil
	}
	if err != nil {
		return store.MainDocument{}, backendErr("load main document", err)
	}

	doc := store.MainDocument{
		Selections: domain.SelectionSet{},
		Congrats:   domain.CongratsSet{},
	}
	if len(quizzes) > 0 {
		if err := json.Unmarshal(quizzes, &doc.Quizzes); err != nil {
			return store.MainDocument{}, fmt.Errorf("unmarshal quizzes: %w", err)
		}
	}
	if len(selections) > 0 {
		if err := json.Unmarshal(selections, &doc.Selections); err != nil {
			return store.MainDocument{}, fmt.Errorf("unmarshal selections: %w", err)
		}
	}
	if len(congrats) > 0 {
		if err := json.Unmarshal(congrats, &doc.Congrats); err != nil {
			return store.MainDocument{}, fmt.Errorf("unmarshal congrats: %w", err)
		}
	}
	return doc, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO portal_main (id, quizzes, selections, congrats)
		 VALUES ($1, '[]', '{}', '{}') ON CONFLICT (id) DO NOTHING`, mainDocID)
	if err != nil {
		return backendErr("init main document", err)
	}
	return nil
}

func (s *Store) UpdateQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return s.updateField(ctx, "quizzes", quizzes)
}

func (s *Store) UpdateSelections(ctx context.Context, selections domain.SelectionSet) error {
	if selections == nil {
		selections = domain.SelectionSet{}
	}
	return s.updateField(ctx, "selections", selections)
}

func (s *Store) UpdateCongrats(ctx context.Context, congrats domain.CongratsSet) error {
	if congrats == nil {
		congrats = domain.CongratsSet{}
	}
	return s.updateField(ctx, "congrats", congrats)
}

// updateField overwrites one JSONB column of the main row. Whole-value
// overwrite, last writer wins; there is deliberately no merge.
func (s *Store) updateField(ctx context.Context, column string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", column, err)
	}
	query := fmt.Sprintf(
		`INSERT INTO portal_main (id, %[1]s) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET %[1]s = EXCLUDED.%[1]s`, column)
	if _, err := s.pool.Exec(ctx, query, mainDocID, string(data)); err != nil {
		return backendErr("update "+column, err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM portal_results ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, backendErr("list results", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, backendErr("scan result", err)
		}
		var result domain.Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErr("list results", err)
	}
	return results, nil
}

func (s *Store) AppendResult(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO portal_results (data) VALUES ($1::jsonb)`, string(data)); err != nil {
		return backendErr("append result", err)
	}
	return nil
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrBackendUnavailable, op, err)
}
