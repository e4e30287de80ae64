// Package attempt implements the per-device attempt state machine: join by
// room code, countdown to start, timed answer collection, and single-shot
// submission with a guaranteed auto-submit on timeout.
package attempt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

// Phase is where one device stands in the attempt lifecycle.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseReady      Phase = "ready"
	PhaseInProgress Phase = "inProgress"
	PhaseSubmitted  Phase = "submitted"
)

// ConfirmFunc is the caller-supplied confirmation step for manual
// submissions. Auto-submissions never consult it.
type ConfirmFunc func() bool

// ResultSink receives the result of a submitted attempt.
type ResultSink interface {
	AppendResult(ctx context.Context, result domain.Result) error
}

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Engine drives attempts for all devices. Each device owns at most one
// attempt at a time; the engine mutex serializes submissions so a racing
// manual and auto submit cannot both record a result.
type Engine struct {
	quizzes store.QuizFinder
	devices store.DeviceStore
	results ResultSink
	now     func() time.Time
	tick    time.Duration
	mu      sync.Mutex
}

func NewEngine(quizzes store.QuizFinder, devices store.DeviceStore, results ResultSink) *Engine {
	return NewEngineWithClock(quizzes, devices, results, time.Now)
}

// NewEngineWithClock is test-only for deterministic timestamps.
func NewEngineWithClock(quizzes store.QuizFinder, devices store.DeviceStore, results ResultSink, now func() time.Time) *Engine {
	return &Engine{
		quizzes: quizzes,
		devices: devices,
		results: results,
		now:     now,
		tick:    time.Second,
	}
}

// JoinInfo is what a device learns after a successful join.
type JoinInfo struct {
	Quiz           QuizInfo `json:"quiz"`
	Phase          Phase    `json:"phase"`
	SecondsToStart int64    `json:"secondsToStart,omitempty"`
}

// QuizInfo is quiz metadata without answers; it is safe to hand to students.
type QuizInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	StartTime     int64  `json:"startTime"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"questionCount"`
}

func quizInfo(q domain.Quiz) QuizInfo {
	return QuizInfo{
		ID:            q.ID,
		Title:         q.Title,
		StartTime:     q.StartTime,
		Duration:      q.Duration,
		QuestionCount: len(q.Questions),
	}
}

// Join validates a room code and reports the quiz and its timing phase.
// A device that already submitted this quiz cannot join it again.
func (e *Engine) Join(ctx context.Context, token, code string) (JoinInfo, error) {
	if !codePattern.MatchString(code) {
		return JoinInfo{}, fmt.Errorf("%w: a valid 6-digit room code is required", domain.ErrValidation)
	}

	state, ok, err := e.State(ctx, token)
	if err != nil {
		return JoinInfo{}, err
	}
	if ok && state.QuizID == code && state.Submitted {
		return JoinInfo{}, domain.ErrAlreadySubmitted
	}

	quiz, found, err := e.quizzes.Find(ctx, code)
	if err != nil {
		return JoinInfo{}, err
	}
	if !found {
		return JoinInfo{}, domain.ErrQuizNotFound
	}

	info := JoinInfo{Quiz: quizInfo(quiz), Phase: PhaseReady}
	if toStart := quiz.StartTime - e.now().UnixMilli(); toStart > 0 {
		info.Phase = PhaseWaiting
		info.SecondsToStart = (toStart + 999) / 1000
	}
	return info, nil
}

// Start begins or resumes an attempt. Resuming an unsubmitted attempt for the
// same quiz keeps its answers and its original deadline; an attempt for a
// different quiz is replaced. The deadline is fixed here from the quiz's
// duration and never moves afterwards, even if the admin reschedules.
func (e *Engine) Start(ctx context.Context, token, code string) (domain.AttemptState, error) {
	quiz, found, err := e.quizzes.Find(ctx, code)
	if err != nil {
		return domain.AttemptState{}, err
	}
	if !found {
		return domain.AttemptState{}, domain.ErrQuizNotFound
	}

	state, ok, err := e.State(ctx, token)
	if err != nil {
		return domain.AttemptState{}, err
	}
	if ok && state.QuizID == code {
		if state.Submitted {
			return domain.AttemptState{}, domain.ErrAlreadySubmitted
		}
		return state, nil
	}

	now := e.now().UnixMilli()
	state = domain.AttemptState{
		QuizID:      code,
		StartTimeMs: now,
		EndTimeMs:   now + quiz.Window().Milliseconds(),
		Answers:     make(map[int]int),
	}
	if err := e.saveState(ctx, token, state); err != nil {
		return domain.AttemptState{}, err
	}
	return state, nil
}

// SelectAnswer records (or overwrites) the answer for one question. Free
// navigation: any question, any order, any number of times before submission.
func (e *Engine) SelectAnswer(ctx context.Context, token string, questionIdx, optionIdx int) error {
	state, ok, err := e.State(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoActiveAttempt
	}
	if state.Submitted {
		return domain.ErrAlreadySubmitted
	}

	quiz, found, err := e.quizzes.Find(ctx, state.QuizID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrQuizNotFound
	}
	if questionIdx < 0 || questionIdx >= len(quiz.Questions) {
		return fmt.Errorf("%w: question index out of range", domain.ErrValidation)
	}
	if optionIdx < 0 || optionIdx >= domain.OptionCount {
		return fmt.Errorf("%w: option index out of range", domain.ErrValidation)
	}

	if state.Answers == nil {
		state.Answers = make(map[int]int)
	}
	state.Answers[questionIdx] = optionIdx
	return e.saveState(ctx, token, state)
}

// Outcome is what the device sees after submission. Recorded is false when
// the result append failed; the attempt still counts as submitted locally.
type Outcome struct {
	Score    int  `json:"score"`
	Total    int  `json:"total"`
	Recorded bool `json:"recorded"`
}

// Submit is the terminal transition. At most one result is ever appended per
// attempt: the submitted flag is persisted before the append is tried, and
// re-entry while already submitted is a no-op returning the same outcome.
func (e *Engine) Submit(ctx context.Context, token string, s1, s2 domain.StudentIdentity, auto bool, confirm ConfirmFunc) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok, err := e.State(ctx, token)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, domain.ErrNoActiveAttempt
	}

	quiz, found, err := e.quizzes.Find(ctx, state.QuizID)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		return Outcome{}, domain.ErrQuizNotFound
	}

	score := scoreAnswers(quiz, state.Answers)
	if state.Submitted {
		return Outcome{Score: score, Total: len(quiz.Questions), Recorded: true}, nil
	}

	if !auto && confirm != nil && !confirm() {
		return Outcome{}, domain.ErrNotConfirmed
	}

	// Mark submitted before the result append so a crash in between can
	// never allow a second submission.
	state.Submitted = true
	if err := e.saveState(ctx, token, state); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Score: score, Total: len(quiz.Questions), Recorded: true}
	result := domain.Result{
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Student1:    s1,
		Student2:    s2,
		Score:       score,
		Total:       len(quiz.Questions),
		SubmittedAt: e.now().UnixMilli(),
	}
	if err := e.results.AppendResult(ctx, result); err != nil {
		// Accepted gap: the attempt stays submitted and the student sees a
		// confirmation, but the result is missing from aggregation until
		// reconciled by hand. Logged, not retried.
		slog.Error("result append failed after submission", "quizId", quiz.ID, "team", result.TeamKey(), "error", err)
		outcome.Recorded = false
	}
	return outcome, nil
}

// State returns the device's current attempt, if any.
func (e *Engine) State(ctx context.Context, token string) (domain.AttemptState, bool, error) {
	data, err := e.devices.Get(ctx, attemptKey(token))
	if err != nil {
		return domain.AttemptState{}, false, err
	}
	if data == nil {
		return domain.AttemptState{}, false, nil
	}
	var state domain.AttemptState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.AttemptState{}, false, err
	}
	return state, true, nil
}

// Resumable reports an unsubmitted attempt whose deadline has not passed,
// used to drop a returning device straight back into its quiz.
func (e *Engine) Resumable(ctx context.Context, token string) (domain.AttemptState, bool, error) {
	state, ok, err := e.State(ctx, token)
	if err != nil || !ok {
		return domain.AttemptState{}, false, err
	}
	if state.Submitted || state.EndTimeMs <= e.now().UnixMilli() {
		return domain.AttemptState{}, false, nil
	}
	return state, true, nil
}

// ClearState drops the device's attempt state (dashboard return, logout).
func (e *Engine) ClearState(ctx context.Context, token string) error {
	return e.devices.Clear(ctx, attemptKey(token))
}

func (e *Engine) saveState(ctx context.Context, token string, state domain.AttemptState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return e.devices.Set(ctx, attemptKey(token), data)
}

// scoreAnswers counts questions whose stored answer equals the correct
// option. A missing answer never matches.
func scoreAnswers(quiz domain.Quiz, answers map[int]int) int {
	score := 0
	for i, q := range quiz.Questions {
		if picked, ok := answers[i]; ok && picked == q.Correct {
			score++
		}
	}
	return score
}

func attemptKey(token string) string {
	return "attempt:" + token
}

func (e *Engine) newTicker() *time.Ticker {
	return time.NewTicker(e.tick)
}
