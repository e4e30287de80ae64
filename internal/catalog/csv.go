package catalog

import (
	"fmt"
	"strings"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
)

// ImportReport is the outcome of a CSV import: the questions that parsed, in
// row order, and a message per rejected row. A report with errors but no
// questions means the whole file was unusable.
type ImportReport struct {
	Questions []domain.Question
	Errors    []string
}

var answerIndex = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// headerWords are first-column values that mark a header or serial-number
// row; such rows are skipped without an error.
var headerWords = map[string]struct{}{
	"question": {}, "question text": {}, "sl no": {}, "slno": {}, "sl": {},
	"no": {}, "s no": {}, "sno": {}, "#": {}, "sr": {},
}

// ImportCSV maps CSV rows to questions. Layouts are flexible: an optional
// leading row-number column, a header row detected by keyword, and the answer
// letter in the last or the 7th column. Malformed rows are reported and
// skipped without aborting the import.
func ImportCSV(text string) ImportReport {
	var report ImportReport

	clean := strings.TrimPrefix(text, "\ufeff")
	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "\r", "\n")

	for idx, row := range strings.Split(clean, "\n") {
		if strings.TrimSpace(row) == "" {
			continue
		}
		cols := splitRow(row)

		if len(cols) < 6 {
			first := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(cols[0]), ".", ""))
			if _, ok := headerWords[first]; ok {
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: only %d col(s). Skipped.", idx+1, len(cols)))
			continue
		}

		qText, opts, correctRaw := pickLayout(cols)

		correctLetter := stripNonAnswer(strings.ToUpper(strings.TrimSpace(correctRaw)))
		lq := strings.TrimSpace(strings.ToLower(qText))
		if idx < 3 && (lq == "question" || lq == "question text" || lq == "questions") {
			continue
		}
		correct, ok := answerIndex[correctLetter]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: answer %q is not A/B/C/D. Skipped.", idx+1, correctRaw))
			continue
		}
		qText = strings.TrimSpace(qText)
		empty := qText == ""
		for i := range opts {
			opts[i] = strings.TrimSpace(opts[i])
			empty = empty || opts[i] == ""
		}
		if empty {
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: empty field. Skipped.", idx+1))
			continue
		}

		report.Questions = append(report.Questions, domain.Question{
			Text:    qText,
			Options: opts[:],
			Correct: correct,
		})
	}
	return report
}

// splitRow tokenizes a CSV row. Double quotes toggle a "quoted" state in
// which commas are literal; there is no support for escaped quotes inside a
// quoted field. Fields are trimmed.
func splitRow(row string) []string {
	var cols []string
	var cur strings.Builder
	inQuotes := false
	for _, ch := range row {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			cols = append(cols, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	cols = append(cols, strings.TrimSpace(cur.String()))
	return cols
}

// pickLayout decides which columns hold the question, the four options, and
// the answer letter. A 7+ column row with a letter in the 7th column, or a
// numeric first column, is treated as having a leading row-number column.
func pickLayout(cols []string) (string, [4]string, string) {
	shifted := func() (string, [4]string, string) {
		return cols[1], [4]string{cols[2], cols[3], cols[4], cols[5]}, cols[6]
	}
	plain := func() (string, [4]string, string) {
		return cols[0], [4]string{cols[1], cols[2], cols[3], cols[4]}, cols[5]
	}

	last := strings.ToUpper(strings.TrimSpace(cols[len(cols)-1]))
	if len(cols) >= 7 {
		seventh := strings.ToUpper(strings.TrimSpace(cols[6]))
		if _, ok := answerIndex[seventh]; ok {
			return shifted()
		}
	}
	if _, ok := answerIndex[last]; ok {
		return plain()
	}
	if len(cols) >= 7 && isNumeric(cols[0]) {
		return shifted()
	}
	return plain()
}

func isNumeric(s string) bool {
	digits := 0
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	return digits > 0 && strings.TrimSpace(s) != ""
}

func stripNonAnswer(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch >= 'A' && ch <= 'D' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// SampleCSV returns the downloadable example file, headed with the canonical
// column layout.
func SampleCSV() string {
	return strings.Join([]string{
		"Question Text,Option A,Option B,Option C,Option D,Correct (A/B/C/D)",
		"What is the capital of India?,Mumbai,New Delhi,Chennai,Kolkata,B",
		"Which planet is known as the Red Planet?,Earth,Venus,Mars,Jupiter,C",
		`"What is 5 + 3?",6,7,8,9,C`,
		"Who invented the telephone?,Edison,Graham Bell,Tesla,Marconi,B",
	}, "\n") + "\n"
}
