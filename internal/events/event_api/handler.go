package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/auth"
	"guestlist/internal/events"
	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/utils"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body models.Event
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	event := models.Event{
		Name:            body.Name,
		Description:     body.Description,
		InvitationCount: body.InvitationCount,
		WeaponForm:      body.WeaponForm,
	}
	if err := h.EventService.CreateEvent(r.Context(), &event); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	h.Logger.Info("EVENTS", fmt.Sprintf("Event %d (%s) created", event.ID, event.Name))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"event": event})
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	eventList, err := h.EventService.GetEvents(r.Context(), ident)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": eventList})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if !auth.Authorize(ident, id, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have access to this event")
		return
	}

	event, err := h.EventService.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"event": event})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	var body models.Event
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), id, body)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"event": event})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	h.Logger.Info("EVENTS", fmt.Sprintf("Event %d deleted with its admins, users and guests", id))
	w.WriteHeader(http.StatusNoContent)
}
