package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"followarr/models"
	"followarr/services/follows"
)

type followService interface {
	Follow(ctx context.Context, userID, query string) (*models.ShowRecord, error)
	Unfollow(userID, freeText string) (bool, error)
	List(userID string) ([]models.FollowRecord, error)
}

var _ followService = (*follows.Service)(nil)

// FollowsHandler exposes the follow/unfollow/list operations over HTTP.
type FollowsHandler struct {
	Service followService
}

// NewFollowsHandler creates the follows API handler.
func NewFollowsHandler(service followService) *FollowsHandler {
	return &FollowsHandler{Service: service}
}

type followRequest struct {
	UserID string `json:"userId"`
	Show   string `json:"show"`
}

// Follow handles POST /api/follows.
func (h *FollowsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var body followRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	show, err := h.Service.Follow(r.Context(), body.UserID, body.Show)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, follows.ErrUserIDRequired), errors.Is(err, follows.ErrQueryRequired):
			status = http.StatusBadRequest
		case errors.Is(err, follows.ErrShowNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(show)
}

// Unfollow handles DELETE /api/follows.
func (h *FollowsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	var body followRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	removed, err := h.Service.Unfollow(body.UserID, body.Show)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, follows.ErrUserIDRequired) || errors.Is(err, follows.ErrQueryRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"removed": removed})
}

// List handles GET /api/users/{userID}/follows.
func (h *FollowsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	items, err := h.Service.List(userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, follows.ErrUserIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	if items == nil {
		items = []models.FollowRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
