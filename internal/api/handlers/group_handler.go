package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/padsapp/pads-be/internal/auth"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/services"
)

// GroupHandler handles HTTP requests for timer groups.
type GroupHandler struct {
	groups services.GroupServiceProvider
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups services.GroupServiceProvider) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func urlID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id
}

// GetAll lists the actor's groups.
func (h *GroupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.GetGroupsForUser(auth.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if groups == nil {
		groups = []models.TimerGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// Create makes a new group for the actor.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	group, err := h.groups.NewGroup(auth.ActorID(r.Context()), payload.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// Delete removes one of the actor's groups, leaving its timers alone.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(auth.ActorID(r.Context()), urlID(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTimers lists the visible timers in one of the actor's groups.
func (h *GroupHandler) GetTimers(w http.ResponseWriter, r *http.Request) {
	timers, err := h.groups.GetTimersInGroup(auth.ActorID(r.Context()), urlID(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if timers == nil {
		timers = []models.Timer{}
	}
	writeJSON(w, http.StatusOK, timers)
}

// AddTimer files a timer into one of the actor's groups.
func (h *GroupHandler) AddTimer(w http.ResponseWriter, r *http.Request) {
	err := h.groups.AddToGroup(auth.ActorID(r.Context()), urlID(r, "timerID"), urlID(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTimer takes a timer out of one of the actor's groups.
func (h *GroupHandler) RemoveTimer(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveFromGroup(auth.ActorID(r.Context()), urlID(r, "timerID"), urlID(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
