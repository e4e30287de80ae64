package catalog

import (
	"strings"
	"testing"
)

func TestImportCSVPlainLayout(t *testing.T) {
	report := ImportCSV("What is Go?,Language,Animal,City,Drink,A\n")
	if len(report.Errors) != 0 {
		t.Fatalf("errors: %v", report.Errors)
	}
	if len(report.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(report.Questions))
	}
	q := report.Questions[0]
	if q.Text != "What is Go?" || q.Correct != 0 {
		t.Fatalf("question = %+v", q)
	}
	if q.Options[1] != "Animal" {
		t.Fatalf("options = %v", q.Options)
	}
}

func TestImportCSVShiftedLayout(t *testing.T) {
	// Leading row-number column with the answer letter in the 7th column.
	report := ImportCSV("1,What is Go?,Language,Animal,City,Drink,B\n")
	if len(report.Questions) != 1 {
		t.Fatalf("questions = %+v errors = %v", report.Questions, report.Errors)
	}
	if report.Questions[0].Text != "What is Go?" || report.Questions[0].Correct != 1 {
		t.Fatalf("question = %+v", report.Questions[0])
	}
}

func TestImportCSVQuotedCommas(t *testing.T) {
	report := ImportCSV(`"What is 5 + 3?",6,7,8,9,C` + "\n")
	if len(report.Questions) != 1 {
		t.Fatalf("questions = %+v errors = %v", report.Questions, report.Errors)
	}
	q := report.Questions[0]
	if q.Text != "What is 5 + 3?" {
		t.Fatalf("text = %q", q.Text)
	}
	if q.Correct != 2 {
		t.Fatalf("correct = %d, want 2", q.Correct)
	}
}

func TestImportCSVSkipsHeaderRows(t *testing.T) {
	text := strings.Join([]string{
		"Question Text,Option A,Option B,Option C,Option D,Correct (A/B/C/D)",
		"What is the capital of India?,Mumbai,New Delhi,Chennai,Kolkata,B",
	}, "\n")
	report := ImportCSV(text)
	if len(report.Errors) != 0 {
		t.Fatalf("errors: %v", report.Errors)
	}
	if len(report.Questions) != 1 || report.Questions[0].Correct != 1 {
		t.Fatalf("questions = %+v", report.Questions)
	}
}

func TestImportCSVReportsBadRows(t *testing.T) {
	text := strings.Join([]string{
		"Good one?,a,b,c,d,A",
		"too,short",
		"Bad answer?,a,b,c,d,E",
		"Missing option?,a,,c,d,B",
		"Also good?,a,b,c,d,D",
	}, "\n")
	report := ImportCSV(text)
	if len(report.Questions) != 2 {
		t.Fatalf("got %d questions, want 2: %+v", len(report.Questions), report.Questions)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(report.Errors), report.Errors)
	}
	want := []string{
		`Row 2: only 2 col(s). Skipped.`,
		`Row 3: answer "E" is not A/B/C/D. Skipped.`,
		`Row 4: empty field. Skipped.`,
	}
	for i, msg := range want {
		if report.Errors[i] != msg {
			t.Fatalf("error %d = %q, want %q", i, report.Errors[i], msg)
		}
	}
}

func TestImportCSVNormalizesLineEndingsAndBOM(t *testing.T) {
	report := ImportCSV("\ufeffQ?,a,b,c,d,A\r\nQ2?,a,b,c,d,B\r")
	if len(report.Questions) != 2 {
		t.Fatalf("questions = %+v errors = %v", report.Questions, report.Errors)
	}
}

func TestImportCSVBlankAndWhitespaceLines(t *testing.T) {
	report := ImportCSV("\n   \nQ?,a,b,c,d,d\n\n")
	if len(report.Questions) != 1 || len(report.Errors) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Questions[0].Correct != 3 {
		t.Fatalf("lowercase answer letter not accepted: %+v", report.Questions[0])
	}
}

func TestSampleCSVRoundTrips(t *testing.T) {
	report := ImportCSV(SampleCSV())
	if len(report.Errors) != 0 {
		t.Fatalf("sample produced errors: %v", report.Errors)
	}
	if len(report.Questions) != 4 {
		t.Fatalf("sample produced %d questions, want 4", len(report.Questions))
	}
}
