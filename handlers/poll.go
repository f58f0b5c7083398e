package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/pkg/ratelimit"
	"github.com/akinalp/votespace/services"
)

// PollHandler, poll listeleme ve oluşturma endpoint'leri.
type PollHandler struct {
	pollService   services.PollService
	createLimiter *ratelimit.ActionRateLimiter
}

// NewPollHandler, constructor. createLimiter nil ise limit yok.
func NewPollHandler(pollService services.PollService, createLimiter *ratelimit.ActionRateLimiter) *PollHandler {
	return &PollHandler{
		pollService:   pollService,
		createLimiter: createLimiter,
	}
}

// List godoc
// GET /api/polls?filter=all|active|expired&q=lunch
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParsePollFilter(r.URL.Query().Get("filter"))
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	polls, err := h.pollService.List(r.Context(), filter, r.URL.Query().Get("q"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, polls)
}

// Create godoc
// POST /api/polls
// Body: { "title", "description"?, "options": [...], "expires_at"? (RFC3339) }
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.createLimiter != nil && !h.createLimiter.Allow(user.ID) {
		cooldown := h.createLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", strconv.Itoa(cooldown))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are creating polls too fast, please wait %s", ratelimit.FormatRetryMessage(cooldown)))
		return
	}

	var req models.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	poll, err := h.pollService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, poll)
}
