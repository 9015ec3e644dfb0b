package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/padsapp/pads-be/internal/auth"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/services"
)

// TimerHandler handles HTTP requests for timers.
type TimerHandler struct {
	timers services.TimerServiceProvider
}

// NewTimerHandler creates a new TimerHandler.
func NewTimerHandler(timers services.TimerServiceProvider) *TimerHandler {
	return &TimerHandler{timers: timers}
}

// CreateTimerPayload defines the structure for timer creation.
type CreateTimerPayload struct {
	Description  string `json:"description"`
	FirstMessage string `json:"firstMessage"`
	CountFrom    string `json:"countFrom"` // RFC 3339; empty means now
	Public       bool   `json:"public"`
	Historical   bool   `json:"historical"`
	Suspended    bool   `json:"suspended"`
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

// timerDetail is the detail response: the timer plus its computed
// elapsed duration and full history.
type timerDetail struct {
	models.Timer
	ElapsedSeconds float64             `json:"elapsedSeconds"`
	History        []models.TimerReset `json:"history"`
}

func timerID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

// GetAll lists the timers visible to the actor.
func (h *TimerHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	timers, err := h.timers.GetVisibleTimers(auth.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if timers == nil {
		timers = []models.Timer{}
	}
	writeJSON(w, http.StatusOK, timers)
}

// Get returns a single timer with its elapsed time and history.
func (h *TimerHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorID(r.Context())
	t, err := h.timers.GetTimerByID(actorID, timerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeDetail(w, actorID, t)
}

// GetByPermalink returns a single timer by its shareable permalink
// code.
func (h *TimerHandler) GetByPermalink(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorID(r.Context())
	t, err := h.timers.GetTimerByPermalink(actorID, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeDetail(w, actorID, t)
}

func (h *TimerHandler) writeDetail(w http.ResponseWriter, actorID int64, t models.Timer) {
	history, err := h.timers.GetHistory(actorID, t.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timerDetail{
		Timer:          t,
		ElapsedSeconds: h.timers.Elapsed(t, history).Seconds(),
		History:        history,
	})
}

// GetHistory returns a timer's reset history, newest first.
func (h *TimerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.timers.GetHistory(auth.ActorID(r.Context()), timerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if history == nil {
		history = []models.TimerReset{}
	}
	writeJSON(w, http.StatusOK, history)
}

// Create makes a new timer.
func (h *TimerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateTimerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := services.NewTimerParams{
		Description:  payload.Description,
		FirstMessage: payload.FirstMessage,
		Public:       payload.Public,
		Historical:   payload.Historical,
		Suspended:    payload.Suspended,
	}
	if payload.CountFrom != "" {
		countFrom, err := time.Parse(time.RFC3339, payload.CountFrom)
		if err != nil {
			http.Error(w, "Invalid countFrom timestamp", http.StatusBadRequest)
			return
		}
		params.CountFrom = countFrom
	}

	t, err := h.timers.Create(auth.ActorID(r.Context()), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Rename changes a timer's description, resetting it unless it is
// historical.
func (h *TimerHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.timers.Rename(auth.ActorID(r.Context()), timerID(r), payload.Description); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset restarts a timer's count from now.
func (h *TimerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.timers.Reset(auth.ActorID(r.Context()), timerID(r), payload.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stop suspends a timer, or permanently stops a historical one.
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.timers.Stop(auth.ActorID(r.Context()), timerID(r), payload.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume restarts a suspended timer.
func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.Resume(auth.ActorID(r.Context()), timerID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Share makes a timer publicly visible.
func (h *TimerHandler) Share(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.SetPublic(auth.ActorID(r.Context()), timerID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unshare makes a timer private again.
func (h *TimerHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.SetPrivate(auth.ActorID(r.Context()), timerID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a timer and its history.
func (h *TimerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.Delete(auth.ActorID(r.Context()), timerID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
