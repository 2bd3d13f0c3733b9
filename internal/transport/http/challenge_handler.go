package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/auth"
	"pychallenge-service/internal/domain"
)

type ChallengeHandler struct {
	service *app.ChallengeService
}

func NewChallengeHandler(service *app.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

// challengeSummary is a list row; answers never leave the server.
type challengeSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	CreatedBy     string `json:"createdBy"`
	CreatedByName string `json:"createdByName"`
	CreatedAt     string `json:"createdAt,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

func summarize(c domain.Challenge) challengeSummary {
	s := challengeSummary{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		CreatedBy:     c.CreatedBy,
		CreatedByName: c.CreatedByName,
		QuestionCount: len(c.Questions),
	}
	if c.CreatedAt != nil {
		s.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	return s
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	var draft app.ChallengeDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	challenge, err := h.service.Create(r.Context(), draft, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(challenge))
}

// List returns challenges newest first; mine=true keeps the caller's own.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	createdBy := ""
	if r.URL.Query().Get("mine") == "true" {
		user, ok := auth.UserFrom(r.Context())
		if !ok {
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		createdBy = user.ID
	}
	challenges, err := h.service.List(r.Context(), limit, createdBy)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]challengeSummary, 0, len(challenges))
	for _, c := range challenges {
		out = append(out, summarize(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge.Public())
}

func (h *ChallengeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, user); err != nil {
		writeError(w, fmt.Errorf("delete %s: %w", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type LeaderboardHandler struct {
	service *app.LeaderboardService
}

func NewLeaderboardHandler(service *app.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	lb, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}
