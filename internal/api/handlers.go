// Package api exposes the study service over JSON HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/p-n-ai/pai-study/internal/progress"
	"github.com/p-n-ai/pai-study/internal/report"
	"github.com/p-n-ai/pai-study/internal/study"
)

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(ctx context.Context) error

// Handler serves the study endpoints.
type Handler struct {
	svc   *study.Service
	ready ReadyFunc
}

// NewHandler creates a handler. ready may be nil for stores without a
// remote connection.
func NewHandler(svc *study.Service, ready ReadyFunc) *Handler {
	return &Handler{svc: svc, ready: ready}
}

// Router returns the HTTP router with health checks and /v1 routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", h.handleReadyz)

	r.Route("/v1/profiles/{profile}", func(r chi.Router) {
		r.Delete("/", h.resetProfile)
		r.Get("/overview", h.overview)
		r.Get("/report.xlsx", h.downloadReport)

		r.Post("/answers", h.submitAnswer)
		r.Post("/flashcards/ratings", h.rateFlashcard)

		r.Get("/topics/{topic}/due", h.dueCards)
		r.Post("/topics/{topic}/quick-check", h.submitQuickCheck)
		r.Post("/topics/{topic}/test", h.finishTopicTest)
		r.Get("/topics/{topic}/test/history", h.topicTestHistory)

		r.Get("/papers/{subject}/{tier}", h.papers)
		r.Post("/papers/{subject}/{tier}/{paper}", h.finishPaper)
		r.Get("/papers/{subject}/{tier}/{paper}/history", h.paperHistory)

		r.Post("/units/{unit}/stages/{stage}", h.completeStage)

		r.Get("/gating/topics/{topic}", h.topicGating)
		r.Get("/gating/units/{unit}", h.unitGating)
	})
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type answerRequest struct {
	ItemID   string `json:"item_id"`
	Response string `json:"response"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	g, err := h.svc.SubmitAnswer(r.Context(), chi.URLParam(r, "profile"), req.ItemID, req.Response)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

type ratingRequest struct {
	CardID     string `json:"card_id"`
	Rating     int    `json:"rating"`
	EndOfBatch bool   `json:"end_of_batch"`
}

func (h *Handler) rateFlashcard(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.RateFlashcard(r.Context(), chi.URLParam(r, "profile"), req.CardID,
		progress.Confidence(req.Rating), req.EndOfBatch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) dueCards(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topic")
	due, err := h.svc.DueCards(r.Context(), chi.URLParam(r, "profile"), topicID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if due == nil {
		due = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"topic_id": topicID, "cards": due})
}

type quickCheckRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *Handler) submitQuickCheck(w http.ResponseWriter, r *http.Request) {
	var req quickCheckRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.SubmitQuickCheck(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "topic"), req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type testRequest struct {
	Answers []study.Submission `json:"answers"`
}

func (h *Handler) finishTopicTest(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.FinishTopicTest(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "topic"), req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) topicTestHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.svc.TopicTestHistory(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "topic"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondHistory(w, hist)
}

func (h *Handler) papers(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Papers(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "subject"), chi.URLParam(r, "tier"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *Handler) finishPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := paperParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req testRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.FinishPaper(r.Context(), chi.URLParam(r, "profile"),
		chi.URLParam(r, "subject"), chi.URLParam(r, "tier"), paper, req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) paperHistory(w http.ResponseWriter, r *http.Request) {
	paper, err := paperParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	hist, err := h.svc.PaperHistory(r.Context(), chi.URLParam(r, "profile"),
		chi.URLParam(r, "subject"), chi.URLParam(r, "tier"), paper)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondHistory(w, hist)
}

func respondHistory(w http.ResponseWriter, hist []progress.PaperResult) {
	if hist == nil {
		hist = []progress.PaperResult{}
	}
	respondJSON(w, http.StatusOK, hist)
}

func paperParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "paper")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: paper must be a positive number, got %q", errBadRequest, raw)
	}
	return n, nil
}

type stageRequest struct {
	Score *int `json:"score"`
}

func (h *Handler) completeStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	g, err := h.svc.CompleteStage(r.Context(), chi.URLParam(r, "profile"),
		chi.URLParam(r, "unit"), chi.URLParam(r, "stage"), req.Score)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *Handler) topicGating(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.TopicGating(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "topic"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *Handler) unitGating(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.UnitGating(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "unit"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context(), chi.URLParam(r, "profile"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

func (h *Handler) downloadReport(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")
	ov, err := h.svc.Overview(r.Context(), profile)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-progress.xlsx"`, profile))
	if err := report.Write(w, ov.Topics, ov.Papers); err != nil {
		slog.Error("failed to write report", "profile", profile, "error", err)
	}
}

func (h *Handler) resetProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetProfile(r.Context(), chi.URLParam(r, "profile")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
