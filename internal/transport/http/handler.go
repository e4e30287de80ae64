// Package http exposes the portal over a chi-routed JSON API plus a
// websocket for attempt clocks. Devices authenticate with the opaque token
// issued at login, sent in the X-Device-Token header (or ?token= for the
// websocket).
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/attempt"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/catalog"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/congrats"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/results"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/session"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

const tokenHeader = "X-Device-Token"

// Deps is everything the handler serves.
type Deps struct {
	Sessions *session.Manager
	Catalog  *catalog.Catalog
	Finder   store.QuizFinder
	Engine   *attempt.Engine
	Results  *results.Aggregator
	Congrats *congrats.Gate
	Store    store.Store
	// Invalidate drops a cached room code after admin edits. Optional.
	Invalidate func(ctx context.Context, code string)
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

// Routes builds the full router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/api/status", h.status)

	r.Post("/api/login", h.login)
	r.Post("/api/logout", h.logout)
	r.Get("/api/session", h.currentSession)

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(session.RoleStudent))
		r.Get("/api/congrats", h.pendingCongrats)
		r.Post("/api/attempts/join", h.joinAttempt)
		r.Post("/api/attempts/start", h.startAttempt)
		r.Post("/api/attempts/answer", h.answerAttempt)
		r.Post("/api/attempts/submit", h.submitAttempt)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(session.RoleAdmin))
		r.Get("/api/quizzes", h.listQuizzes)
		r.Post("/api/quizzes", h.createQuiz)
		r.Patch("/api/quizzes/{id}", h.rescheduleQuiz)
		r.Delete("/api/quizzes/{id}", h.deleteQuiz)
		r.Post("/api/quizzes/import-csv", h.importCSV)
		r.Get("/api/quizzes/sample-csv", h.sampleCSV)
		r.Get("/api/results", h.listResults)
		r.Post("/api/selections/toggle", h.toggleSelection)
		r.Post("/api/congrats/send", h.sendCongrats)
		r.Get("/api/results/{quizID}/export.csv", h.exportCSV)
	})

	r.Get("/ws/attempt", h.serveAttemptWS)
	return r
}

// --- auth plumbing ---

type sessionCtxKey struct{}

func (h *Handler) requireRole(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok, err := h.Sessions.Current(r.Context(), r.Header.Get(tokenHeader))
			if err != nil {
				writeError(w, err)
				return
			}
			if !ok {
				writeError(w, domain.ErrSessionNotFound)
				return
			}
			if sess.Role != role {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "wrong role for this action"})
				return
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) session.Session {
	sess, _ := r.Context().Value(sessionCtxKey{}).(session.Session)
	return sess
}

func deviceToken(r *http.Request) string {
	return r.Header.Get(tokenHeader)
}

// --- session endpoints ---

type loginRequest struct {
	Role     session.Role           `json:"role"`
	Student1 domain.StudentIdentity `json:"student1"`
	Student2 domain.StudentIdentity `json:"student2"`
	Password string                 `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// Reaching the login view always ends any session the device still holds.
	if prior := deviceToken(r); prior != "" {
		_ = h.Sessions.Clear(r.Context(), prior)
	}
	var (
		token string
		err   error
	)
	switch req.Role {
	case session.RoleStudent:
		token, err = h.Sessions.LoginStudents(r.Context(), req.Student1, req.Student2)
	case session.RoleAdmin:
		token, err = h.Sessions.LoginAdmin(r.Context(), req.Password)
	default:
		err = fmt.Errorf("%w: unknown role %q", domain.ErrValidation, req.Role)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	sess, _, _ := h.Sessions.Current(r.Context(), token)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Session: sess})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := deviceToken(r)
	if err := h.Sessions.Clear(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Engine.ClearState(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type sessionResponse struct {
	Session session.Session      `json:"session"`
	Attempt *domain.AttemptState `json:"attempt,omitempty"`
}

// currentSession restores a returning device: its identity plus an attempt
// still worth resuming.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	token := deviceToken(r)
	sess, ok, err := h.Sessions.Current(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	resp := sessionResponse{Session: sess}
	if sess.Role == session.RoleStudent {
		if state, ok, err := h.Engine.Resumable(r.Context(), token); err == nil && ok {
			resp.Attempt = &state
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type congratsResponse struct {
	Congrats *domain.Congrats `json:"congrats,omitempty"`
	// Show is true exactly once per login for a congratulated team.
	Show bool `json:"show"`
}

func (h *Handler) pendingCongrats(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	c, ok, err := h.Congrats.Pending(r.Context(), sess.Student1, sess.Student2)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := congratsResponse{}
	if ok {
		resp.Congrats = &c
		resp.Show = !sess.CongratsShown
		if resp.Show {
			if err := h.Sessions.MarkCongratsShown(r.Context(), deviceToken(r)); err != nil {
				writeError(w, err)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- admin endpoints ---

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

type createQuizRequest struct {
	Title     string            `json:"title"`
	StartTime int64             `json:"startTime"` // unix ms
	Duration  int               `json:"duration"`  // minutes
	Questions []domain.Question `json:"questions"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.Catalog.Create(r.Context(), req.Title, time.UnixMilli(req.StartTime), req.Duration, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

type rescheduleRequest struct {
	StartTime int64 `json:"startTime"`
	Duration  int   `json:"duration"`
}

func (h *Handler) rescheduleQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req rescheduleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Catalog.Reschedule(r.Context(), id, time.UnixMilli(req.StartTime), req.Duration); err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) invalidate(ctx context.Context, code string) {
	if h.Invalidate != nil {
		h.Invalidate(ctx, code)
	}
}

// importCSV parses the uploaded CSV and returns the questions with per-row
// diagnostics. Nothing is persisted; the admin reviews and then creates the
// quiz with the parsed questions.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	writeJSON(w, http.StatusOK, catalog.ImportCSV(string(body)))
}

func (h *Handler) sampleCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sample_quiz.csv"`)
	w.Write([]byte(catalog.SampleCSV()))
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Results.Groups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

type toggleRequest struct {
	TeamKey string `json:"teamKey"`
}

func (h *Handler) toggleSelection(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.TeamKey == "" {
		writeError(w, fmt.Errorf("%w: teamKey is required", domain.ErrValidation))
		return
	}
	selected, err := h.Results.ToggleSelection(r.Context(), req.TeamKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"selected": selected})
}

type sendCongratsRequest struct {
	QuizID   string   `json:"quizId"`
	TeamKeys []string `json:"teamKeys"`
}

func (h *Handler) sendCongrats(w http.ResponseWriter, r *http.Request) {
	var req sendCongratsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Congrats.Send(r.Context(), req.QuizID, req.TeamKeys); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": len(req.TeamKeys)})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="results_%s.csv"`, quizID))
	if err := h.Results.WriteCSV(r.Context(), w, quizID); err != nil {
		slog.Error("csv export failed", "quizId", quizID, "error", err)
	}
}

// --- student attempt endpoints ---

type codeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) joinAttempt(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.Engine.Join(r.Context(), deviceToken(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// studentQuestion is a question stripped of its answer key.
type studentQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type startResponse struct {
	State     domain.AttemptState `json:"state"`
	Questions []studentQuestion   `json:"questions"`
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.Engine.Start(r.Context(), deviceToken(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, found, err := h.Finder.Find(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, domain.ErrQuizNotFound)
		return
	}
	questions := make([]studentQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = studentQuestion{Text: q.Text, Options: q.Options}
	}
	writeJSON(w, http.StatusOK, startResponse{State: state, Questions: questions})
}

type answerRequest struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

func (h *Handler) answerAttempt(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Engine.SelectAnswer(r.Context(), deviceToken(r), req.Question, req.Option); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type submitRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	outcome, err := h.Engine.Submit(r.Context(), deviceToken(r), sess.Student1, sess.Student2, false,
		func() bool { return req.Confirmed })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// --- status ---

type statusResponse struct {
	Online bool `json:"online"`
}

// status reports whether the persistence backend answers. The UI shows a
// connectivity badge off this.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	_, err := h.Store.Main(ctx)
	writeJSON(w, http.StatusOK, statusResponse{Online: err == nil})
}

// --- helpers ---

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNoSelection):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrNotConfirmed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoActiveAttempt):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBackendUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
