package domain

import "time"

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Complete reports whether the question has text and all four options filled in.
func (q Question) Complete() bool {
	if q.Text == "" || len(q.Options) != OptionCount {
		return false
	}
	for _, opt := range q.Options {
		if opt == "" {
			return false
		}
	}
	return q.Correct >= 0 && q.Correct < OptionCount
}

// Quiz is a scheduled, timed collection of questions. ID doubles as the
// 6-digit room code students join with. StartTime and the other timestamps
// in this package are Unix milliseconds, matching the persisted document
// format.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	StartTime int64      `json:"startTime"`
	Duration  int        `json:"duration"` // minutes
	Questions []Question `json:"questions"`
}

// StartsAt returns the scheduled start as a time.Time.
func (q Quiz) StartsAt() time.Time {
	return time.UnixMilli(q.StartTime)
}

// Window returns the attempt duration.
func (q Quiz) Window() time.Duration {
	return time.Duration(q.Duration) * time.Minute
}

// StudentIdentity identifies one member of a team.
type StudentIdentity struct {
	USN  string `json:"usn"`
	Name string `json:"name"`
}

// TeamKey builds the canonical selection/congrats key for a pair of students,
// in the order the pair was entered at login. Lookups must also try the
// swapped order; see LookupTeam.
func TeamKey(s1, s2 StudentIdentity) string {
	return s1.USN + "__" + s2.USN
}

// AttemptState is the device-local progress of one team's pass through a
// quiz. EndTimeMs is fixed when the attempt starts; a later reschedule of the
// quiz does not move a live attempt's deadline.
type AttemptState struct {
	QuizID      string      `json:"quizId"`
	StartTimeMs int64       `json:"startTimeMs"`
	EndTimeMs   int64       `json:"endTimeMs"`
	Answers     map[int]int `json:"answers"`
	Submitted   bool        `json:"submitted"`
}

// Result is one submitted attempt. Append-only, immutable after creation.
type Result struct {
	QuizID      string          `json:"quizId"`
	QuizTitle   string          `json:"quizTitle"`
	Student1    StudentIdentity `json:"student1"`
	Student2    StudentIdentity `json:"student2"`
	Score       int             `json:"score"`
	Total       int             `json:"total"`
	SubmittedAt int64           `json:"submittedAt"`
}

// TeamKey returns the selection key for the result's team.
func (r Result) TeamKey() string {
	return TeamKey(r.Student1, r.Student2)
}

// SelectionSet marks teams chosen by the admin for recognition. Keys are team
// keys, not quiz-scoped; the whole set is persisted on every toggle.
type SelectionSet map[string]bool

// Congrats records a congratulation sent to one team.
type Congrats struct {
	QuizID string `json:"quizId"`
	SentAt int64  `json:"sentAt"`
}

// CongratsSet maps team keys to the congratulation sent to them.
// Entries are upserted on re-send and never deleted.
type CongratsSet map[string]Congrats

// LookupTeam finds a value keyed by team in either member order.
func LookupTeam[V any](m map[string]V, s1, s2 StudentIdentity) (V, bool) {
	if v, ok := m[TeamKey(s1, s2)]; ok {
		return v, true
	}
	v, ok := m[TeamKey(s2, s1)]
	return v, ok
}
