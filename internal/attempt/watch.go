package attempt

import (
	"context"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
)

// EventType tags the per-second progress events a watch emits.
type EventType string

const (
	// EventCountdown carries the whole seconds left until the quiz opens.
	EventCountdown EventType = "countdown"
	// EventReady fires once when the start time arrives; the watch ends.
	EventReady EventType = "ready"
	// EventTick carries the whole seconds left in a running attempt.
	EventTick EventType = "tick"
	// EventAutoSubmitted fires once when the deadline passes and the attempt
	// was submitted on the device's behalf; the watch ends.
	EventAutoSubmitted EventType = "autoSubmitted"
	// EventSubmitted fires when the attempt was already submitted by the
	// time the watch looked; the watch ends.
	EventSubmitted EventType = "submitted"
)

// Event is one observation of the attempt clock.
type Event struct {
	Type             EventType `json:"type"`
	SecondsToStart   int64     `json:"secondsToStart,omitempty"`
	RemainingSeconds int64     `json:"remainingSeconds,omitempty"`
	Score            int       `json:"score,omitempty"`
	Total            int       `json:"total,omitempty"`
	Recorded         bool      `json:"recorded,omitempty"`
}

// Watch evaluates the device's clock against the quiz once per second and
// sends an event for each observation. The channel closes when a terminal
// event is sent (ready, submitted, autoSubmitted), when the quiz disappears,
// or when ctx is cancelled; exactly one watch goroutine runs per call and
// cancelling ctx always stops it.
//
// While the device has an unsubmitted attempt for code, the watch is a quiz
// timer: it emits tick events and performs the auto-submit when the deadline
// passes. Otherwise it is a start countdown for the quiz behind code.
func (e *Engine) Watch(ctx context.Context, token, code string, s1, s2 domain.StudentIdentity) (<-chan Event, error) {
	if _, found, err := e.quizzes.Find(ctx, code); err != nil {
		return nil, err
	} else if !found {
		return nil, domain.ErrQuizNotFound
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		ticker := e.newTicker()
		defer ticker.Stop()
		for {
			ev, done, err := e.observe(ctx, token, code, s1, s2)
			if err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
			if done {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// observe takes one reading. done means the watch has nothing further to say.
func (e *Engine) observe(ctx context.Context, token, code string, s1, s2 domain.StudentIdentity) (Event, bool, error) {
	state, ok, err := e.State(ctx, token)
	if err != nil {
		return Event{}, false, err
	}

	if ok && state.QuizID == code {
		if state.Submitted {
			return Event{Type: EventSubmitted}, true, nil
		}
		remaining := state.EndTimeMs - e.now().UnixMilli()
		if remaining <= 0 {
			outcome, err := e.Submit(ctx, token, s1, s2, true, nil)
			if err != nil {
				return Event{}, false, err
			}
			return Event{
				Type:     EventAutoSubmitted,
				Score:    outcome.Score,
				Total:    outcome.Total,
				Recorded: outcome.Recorded,
			}, true, nil
		}
		return Event{Type: EventTick, RemainingSeconds: (remaining + 999) / 1000}, false, nil
	}

	quiz, found, err := e.quizzes.Find(ctx, code)
	if err != nil {
		return Event{}, false, err
	}
	if !found {
		return Event{}, false, domain.ErrQuizNotFound
	}
	toStart := quiz.StartTime - e.now().UnixMilli()
	if toStart <= 0 {
		return Event{Type: EventReady}, true, nil
	}
	return Event{Type: EventCountdown, SecondsToStart: (toStart + 999) / 1000}, false, nil
}
