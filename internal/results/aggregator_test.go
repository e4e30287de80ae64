package results

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/memory"
)

func seedResult(t *testing.T, st *memory.Store, quizID string, u1, u2 string, score, total int, at int64) {
	t.Helper()
	err := st.AppendResult(context.Background(), domain.Result{
		QuizID:      quizID,
		QuizTitle:   "Seeded",
		Student1:    domain.StudentIdentity{USN: u1, Name: "N-" + u1},
		Student2:    domain.StudentIdentity{USN: u2, Name: "N-" + u2},
		Score:       score,
		Total:       total,
		SubmittedAt: at,
	})
	if err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
}

func TestGroupsRankAndTieBreak(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	if err := st.UpdateQuizzes(ctx, []domain.Quiz{{ID: "111111", Title: "Go Basics"}}); err != nil {
		t.Fatalf("UpdateQuizzes: %v", err)
	}
	// Two teams tie at 8; the earlier submission must rank first.
	seedResult(t, st, "111111", "U1", "U2", 8, 10, 1000)
	seedResult(t, st, "111111", "U3", "U4", 9, 10, 2000)
	seedResult(t, st, "111111", "U5", "U6", 8, 10, 3000)

	agg := New(st)
	groups, err := agg.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.QuizTitle != "Go Basics" {
		t.Fatalf("title = %q", g.QuizTitle)
	}
	wantOrder := []string{"U3__U4", "U1__U2", "U5__U6"}
	for i, want := range wantOrder {
		if g.Rows[i].TeamKey != want {
			t.Fatalf("row %d team = %q, want %q", i, g.Rows[i].TeamKey, want)
		}
		if g.Rows[i].Rank != i+1 {
			t.Fatalf("row %d rank = %d", i, g.Rows[i].Rank)
		}
	}
}

func TestGroupsDeletedQuizFallbackTitle(t *testing.T) {
	st := memory.NewStore()
	seedResult(t, st, "999999", "U1", "U2", 5, 10, 1000)

	groups, err := New(st).Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 || groups[0].QuizTitle != "Quiz [999999]" {
		t.Fatalf("groups = %+v, want fallback title", groups)
	}
}

func TestGroupsFirstSeenOrder(t *testing.T) {
	st := memory.NewStore()
	seedResult(t, st, "222222", "A1", "A2", 1, 5, 1000)
	seedResult(t, st, "111111", "B1", "B2", 2, 5, 2000)
	seedResult(t, st, "222222", "C1", "C2", 3, 5, 3000)

	groups, err := New(st).Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 2 || groups[0].QuizID != "222222" || groups[1].QuizID != "111111" {
		t.Fatalf("group order wrong: %+v", groups)
	}
	if len(groups[0].Rows) != 2 {
		t.Fatalf("first group rows = %d, want 2", len(groups[0].Rows))
	}
}

func TestToggleSelection(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	seedResult(t, st, "111111", "U1", "U2", 8, 10, 1000)
	agg := New(st)

	on, err := agg.ToggleSelection(ctx, "U1__U2")
	if err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}
	if !on {
		t.Fatal("first toggle should select")
	}
	groups, _ := agg.Groups(ctx)
	if !groups[0].Rows[0].Selected || groups[0].SelectedCount != 1 {
		t.Fatalf("selection not reflected: %+v", groups[0])
	}

	on, err = agg.ToggleSelection(ctx, "U1__U2")
	if err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}
	if on {
		t.Fatal("second toggle should deselect")
	}
	doc, _ := st.Main(ctx)
	if _, exists := doc.Selections["U1__U2"]; exists {
		t.Fatal("deselected key should be deleted, not set to false")
	}
}

func TestWriteCSV(t *testing.T) {
	st := memory.NewStore()
	seedResult(t, st, "111111", "U1", "U2", 7, 9, 1000)
	seedResult(t, st, "222222", "X1", "X2", 5, 9, 2000)

	var buf bytes.Buffer
	if err := New(st).WriteCSV(context.Background(), &buf, "111111"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Rank,Student1 USN,Student1 Name,Student2 USN,Student2 Name,Score,Total,Percentage,Submitted At" {
		t.Fatalf("header = %q", lines[0])
	}
	// 7/9 rounds to 78.
	if !strings.HasPrefix(lines[1], "1,U1,N-U1,U2,N-U2,7,9,78,") {
		t.Fatalf("row = %q", lines[1])
	}
}
