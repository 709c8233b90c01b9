// Package handler exposes the study model over a JSON HTTP API. The API is
// the view-layer boundary: it reads snapshots and dispatches mutations
// through the progress store's named operations, never touching chapter
// data directly.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/cppdeck/cppdeck/internal/model"
	"github.com/cppdeck/cppdeck/internal/progress"
	"github.com/cppdeck/cppdeck/internal/quiz"
	"github.com/cppdeck/cppdeck/internal/report"
	"github.com/cppdeck/cppdeck/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	progress *progress.Store
	store    *store.Store
	gen      *quiz.Generator
	pool     []model.Question
	config   model.ServerConfig

	mu       sync.Mutex
	sessions map[string]*model.QuizSession
}

// New creates a new Handler.
func New(p *progress.Store, s *store.Store, gen *quiz.Generator, pool []model.Question, cfg model.ServerConfig) *Handler {
	return &Handler{
		progress: p,
		store:    s,
		gen:      gen,
		pool:     pool,
		config:   cfg,
		sessions: make(map[string]*model.QuizSession),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/chapters", h.handleListChapters)
	r.Get("/api/chapters/{num}", h.handleGetChapter)
	r.Post("/api/chapters/{num}/cards/{cardID}/review", h.handleReview)
	r.Post("/api/chapters/{num}/cards/{cardID}/mastered", h.handleMastered)
	r.Post("/api/chapters/{num}/cards/{cardID}/favorite", h.handleFavorite)
	r.Get("/api/favorites", h.handleFavorites)
	r.Post("/api/quiz", h.handleStartQuiz)
	r.Get("/api/quiz/{id}", h.handleGetQuiz)
	r.Post("/api/quiz/{id}/answer", h.handleAnswer)
	r.Post("/api/quiz/{id}/complete", h.handleCompleteQuiz)
	r.Delete("/api/quiz/{id}", h.handleDiscardQuiz)
	r.Get("/api/settings", h.handleGetSettings)
	r.Put("/api/settings", h.handlePutSettings)
	r.Get("/api/stats", h.handleStats)
}

// chapterSummary is the dashboard view of one chapter.
type chapterSummary struct {
	Number             int     `json:"number"`
	Title              string  `json:"title"`
	Cards              int     `json:"cards"`
	Reviewed           int     `json:"reviewed"`
	Mastered           int     `json:"mastered"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

func (h *Handler) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters := h.progress.Chapters()
	summaries := make([]chapterSummary, 0, len(chapters))
	for _, c := range chapters {
		summaries = append(summaries, chapterSummary{
			Number:             c.Number,
			Title:              c.Title,
			Cards:              len(c.Cards),
			Reviewed:           c.ReviewedCount(),
			Mastered:           c.MasteredCount(),
			ProgressPercentage: c.ProgressPercentage(),
		})
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.chapterIndex(w, r)
	if !ok {
		return
	}
	chapter, err := h.progress.Chapter(idx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chapter)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.chapterIndex(w, r)
	if !ok {
		return
	}
	cardID := chi.URLParam(r, "cardID")
	if err := h.progress.MarkReviewed(idx, cardID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondCard(w, idx, cardID)
}

func (h *Handler) handleMastered(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.chapterIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Mastered bool `json:"mastered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cardID := chi.URLParam(r, "cardID")
	if err := h.progress.MarkMastered(idx, cardID, body.Mastered); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondCard(w, idx, cardID)
}

func (h *Handler) handleFavorite(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.chapterIndex(w, r)
	if !ok {
		return
	}
	cardID := chi.URLParam(r, "cardID")
	fav, err := h.progress.ToggleFavorite(idx, cardID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

func (h *Handler) handleFavorites(w http.ResponseWriter, r *http.Request) {
	cards := h.progress.Favorites()
	if cards == nil {
		cards = []model.Flashcard{}
	}
	respondJSON(w, http.StatusOK, cards)
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Chapter int `json:"chapter"`
		Count   int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	count := body.Count
	if count < 1 {
		count = h.config.QuizSize
	}

	session := h.gen.Generate(h.pool, body.Chapter, count)

	h.mu.Lock()
	h.sessions[session.ID] = &session
	h.mu.Unlock()

	slog.Info("quiz started", "session", session.ID, "chapter", body.Chapter, "questions", len(session.Questions))
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Question int `json:"question"`
		Option   int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !session.Select(body.Question, body.Option) {
		http.Error(w, "invalid question or option index", http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, session.Questions[body.Question])
}

func (h *Handler) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	score := session.Complete()
	respondJSON(w, http.StatusOK, map[string]int{
		"score": score,
		"total": len(session.Questions),
	})
}

func (h *Handler) handleDiscardQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	darkMode, err := h.store.DarkMode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"dark_mode": darkMode})
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DarkMode bool `json:"dark_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.SetDarkMode(body.DarkMode); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"dark_mode": body.DarkMode})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	export := report.Build(h.progress.Chapters(), len(h.pool))
	respondJSON(w, http.StatusOK, export)
}

// chapterIndex resolves the {num} URL parameter (a chapter number, not an
// index) to the chapter's index in the store.
func (h *Handler) chapterIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	num, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil {
		http.Error(w, "invalid chapter number", http.StatusBadRequest)
		return 0, false
	}
	idx, ok := h.progress.IndexOfChapter(num)
	if !ok {
		http.Error(w, "chapter not found", http.StatusNotFound)
		return 0, false
	}
	return idx, true
}

// session resolves the {id} URL parameter to a live quiz session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*model.QuizSession, bool) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	session, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "quiz session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// respondCard writes the current state of one card after a mutation.
func (h *Handler) respondCard(w http.ResponseWriter, idx int, cardID string) {
	chapter, err := h.progress.Chapter(idx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	for _, card := range chapter.Cards {
		if card.ID == cardID {
			respondJSON(w, http.StatusOK, card)
			return
		}
	}
	http.Error(w, "card not found", http.StatusNotFound)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var nf *progress.NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, nf.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
