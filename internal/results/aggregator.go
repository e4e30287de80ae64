// Package results groups submitted attempts per quiz, ranks them, tracks the
// admin's team selections, and renders the CSV export.
package results

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

// Row is one ranked result inside a quiz group.
type Row struct {
	Rank     int           `json:"rank"`
	Result   domain.Result `json:"result"`
	TeamKey  string        `json:"teamKey"`
	Selected bool          `json:"selected"`
}

// Group is every submission for one quiz, ranked.
type Group struct {
	QuizID        string `json:"quizId"`
	QuizTitle     string `json:"quizTitle"`
	Rows          []Row  `json:"rows"`
	SelectedCount int    `json:"selectedCount"`
}

// Aggregator builds the admin's results view from the append-only result log
// and the shared selection set.
type Aggregator struct {
	store store.Store
}

func New(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// rank orders results by score descending. The sort is stable, so equal
// scores keep their submission order: earlier submission ranks first.
func rank(results []domain.Result) []domain.Result {
	ranked := make([]domain.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Groups returns one ranked group per quiz that has at least one submission,
// in order of each quiz's first submission. Results for quizzes that have
// since been deleted keep appearing under a placeholder title.
func (a *Aggregator) Groups(ctx context.Context) ([]Group, error) {
	doc, err := a.store.Main(ctx)
	if err != nil {
		return nil, err
	}
	all, err := a.store.ListResults(ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(doc.Quizzes))
	for _, q := range doc.Quizzes {
		titles[q.ID] = q.Title
	}

	var order []string
	byQuiz := make(map[string][]domain.Result)
	for _, r := range all {
		if _, seen := byQuiz[r.QuizID]; !seen {
			order = append(order, r.QuizID)
		}
		byQuiz[r.QuizID] = append(byQuiz[r.QuizID], r)
	}

	groups := make([]Group, 0, len(order))
	for _, quizID := range order {
		title, ok := titles[quizID]
		if !ok {
			title = fmt.Sprintf("Quiz [%s]", quizID)
		}
		g := Group{QuizID: quizID, QuizTitle: title}
		for i, r := range rank(byQuiz[quizID]) {
			selected := doc.Selections[r.TeamKey()]
			if selected {
				g.SelectedCount++
			}
			g.Rows = append(g.Rows, Row{
				Rank:     i + 1,
				Result:   r,
				TeamKey:  r.TeamKey(),
				Selected: selected,
			})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ToggleSelection flips one team's selection flag and persists the whole set.
// Selection keys are team keys, shared across quizzes. Returns the new state.
func (a *Aggregator) ToggleSelection(ctx context.Context, teamKey string) (bool, error) {
	doc, err := a.store.Main(ctx)
	if err != nil {
		return false, err
	}
	selections := doc.Selections
	if selections == nil {
		selections = make(domain.SelectionSet)
	}
	selected := !selections[teamKey]
	if selected {
		selections[teamKey] = true
	} else {
		delete(selections, teamKey)
	}
	if err := a.store.UpdateSelections(ctx, selections); err != nil {
		return false, err
	}
	return selected, nil
}

// exportHeader is the fixed column order of the CSV export.
var exportHeader = []string{
	"Rank", "Student1 USN", "Student1 Name", "Student2 USN", "Student2 Name",
	"Score", "Total", "Percentage", "Submitted At",
}

// WriteCSV streams the export for one quiz's ranked results. Percentage is
// rounded to the nearest integer; the timestamp is local wall-clock time.
func (a *Aggregator) WriteCSV(ctx context.Context, w io.Writer, quizID string) error {
	all, err := a.store.ListResults(ctx)
	if err != nil {
		return err
	}
	var filtered []domain.Result
	for _, r := range all {
		if r.QuizID == quizID {
			filtered = append(filtered, r)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i, r := range rank(filtered) {
		pct := 0
		if r.Total > 0 {
			pct = int(math.Round(float64(r.Score) / float64(r.Total) * 100))
		}
		row := []string{
			strconv.Itoa(i + 1),
			r.Student1.USN, r.Student1.Name,
			r.Student2.USN, r.Student2.Name,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			strconv.Itoa(pct),
			time.UnixMilli(r.SubmittedAt).Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
