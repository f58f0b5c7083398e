package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/services"
)

// VoteHandler, poll kartı ve oy endpoint'leri.
type VoteHandler struct {
	voteService services.VoteService
}

// NewVoteHandler, constructor.
func NewVoteHandler(voteService services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// Card godoc
// GET /api/polls/{id}
// Optional auth: oturum yoksa durum ineligible (sign_in_required).
func (h *VoteHandler) Card(w http.ResponseWriter, r *http.Request) {
	var userID string
	if user, ok := userFromContext(r); ok {
		userID = user.ID
	}

	card, err := h.voteService.GetCard(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, card)
}

// Options godoc
// GET /api/polls/{id}/options
func (h *VoteHandler) Options(w http.ResponseWriter, r *http.Request) {
	tally, err := h.voteService.Options(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tally)
}

// MyVote godoc
// GET /api/polls/{id}/votes/me
// Oy yoksa 404.
func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	vote, err := h.voteService.MyVote(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, vote)
}

// Vote godoc
// POST /api/polls/{id}/votes
// Body: { "option_id": "..." }. Aynı poll'a ikinci oy → 409.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tally, err := h.voteService.Vote(r.Context(), r.PathValue("id"), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tally)
}
