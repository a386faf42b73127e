package guest_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/auth"
	"guestlist/internal/guests"
	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/utils"
)

const (
	defaultPage  = 1
	defaultLimit = 25
)

type Handler struct {
	GuestService *guests.GuestService
	Logger       *logger.Logger
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var body struct {
		FullName string `json:"full_name"`
		IDNumber string `json:"id_number"`
		Weapon   bool   `json:"weapon"`
		UserID   int64  `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.FullName == "" || body.IDNumber == "" {
		utils.WriteError(w, http.StatusBadRequest, "full_name and id_number are required")
		return
	}

	// Inviters always create guests for themselves; admins must say which
	// inviter the guest belongs to.
	if !ident.IsAdmin() {
		body.UserID = ident.ID
	} else if body.UserID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	guest, err := h.GuestService.CreateGuest(r.Context(), body.UserID, body.FullName, body.IDNumber, body.Weapon)
	if err != nil {
		switch {
		case errors.Is(err, guests.ErrUserNotFound):
			utils.WriteError(w, http.StatusBadRequest, "User not found")
		case errors.Is(err, guests.ErrEventNotFound):
			utils.WriteError(w, http.StatusBadRequest, "Event not found")
		case errors.Is(err, guests.ErrDuplicateIDNumber):
			utils.WriteError(w, http.StatusConflict, "A guest with that ID number already exists")
		case errors.Is(err, guests.ErrQuotaExceeded):
			utils.WriteError(w, http.StatusForbidden, "Maximum number of guests exceeded")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "Failed to create guest")
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"guest": guest})
}

func (h *Handler) GetGuests(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	// Inviters only ever see their own guest list, unpaginated.
	if !ident.IsAdmin() {
		guestList, err := h.GuestService.ListForUser(r.Context(), ident.ID)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch guests")
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"guests": guestList})
		return
	}

	page, limit := parsePagination(r)
	filter := models.GuestFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	if raw := r.URL.Query().Get("event_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid event_id")
			return
		}
		filter.EventID = parsed
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid user_id")
			return
		}
		filter.UserID = parsed
	}

	// Event-scoped admins are pinned to their own event regardless of the
	// query string.
	if !ident.IsSuperAdmin() {
		filter.EventID = ident.EventID
	}

	guestList, totalCount, err := h.GuestService.ListForAdmin(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch guests")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"guests":     guestList,
		"pagination": utils.NewPagination(page, limit, totalCount),
	})
}

// GetGuestTicket handles the public GET /guests/{id}: lookup by UUID or id
// number, optionally checking the guest in when ?scan=true.
func (h *Handler) GetGuestTicket(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")
	scan := r.URL.Query().Get("scan") == "true"

	guest, err := h.GuestService.LookupTicket(r.Context(), key, scan)
	if err != nil {
		if errors.Is(err, guests.ErrGuestNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Guest not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch guest")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"guest": guest})
}

// GetGuestQR handles the public GET /guests/{uuid}/qr with a PNG ticket code.
func (h *Handler) GetGuestQR(w http.ResponseWriter, r *http.Request) {
	guestUUID := chi.URLParam(r, "uuid")

	png, err := h.GuestService.TicketQR(r.Context(), guestUUID)
	if err != nil {
		if errors.Is(err, guests.ErrGuestNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Guest not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	guestUUID := chi.URLParam(r, "uuid")

	var body struct {
		FullName *string `json:"full_name"`
		IDNumber *string `json:"id_number"`
		Weapon   *bool   `json:"weapon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := guests.UpdateGuestInput{
		FullName: body.FullName,
		IDNumber: body.IDNumber,
		Weapon:   body.Weapon,
	}
	if input.Empty() {
		utils.WriteError(w, http.StatusBadRequest, "No data provided")
		return
	}

	guest, err := h.GuestService.GetGuest(r.Context(), guestUUID)
	if err != nil {
		if errors.Is(err, guests.ErrGuestNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Guest not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch guest")
		return
	}

	if !h.mayTouchGuest(ident, guest) {
		utils.WriteError(w, http.StatusForbidden, "You do not have permission to update this guest")
		return
	}

	updated, err := h.GuestService.UpdateGuest(r.Context(), guest, input)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update guest")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"guest": updated})
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	guestUUID := chi.URLParam(r, "uuid")

	guest, err := h.GuestService.GetGuest(r.Context(), guestUUID)
	if err != nil {
		if errors.Is(err, guests.ErrGuestNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Guest not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch guest")
		return
	}

	if !h.mayTouchGuest(ident, guest) {
		utils.WriteError(w, http.StatusForbidden, "You do not have permission to delete this guest")
		return
	}

	if err := h.GuestService.DeleteGuest(r.Context(), guestUUID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete guest")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportGuestsExcel handles GET /guests/excel-export?event_id= with an xlsx
// of the event's guest list.
func (h *Handler) ExportGuestsExcel(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	eventID, err := strconv.ParseInt(r.URL.Query().Get("event_id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event_id")
		return
	}

	if !auth.Authorize(ident, eventID, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have permission to export this event's guests")
		return
	}

	payload, eventName, err := h.GuestService.ExportEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, guests.ErrEventNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to export guests")
		return
	}

	h.Logger.Info("GUESTS", fmt.Sprintf("Exported guest list for event %d (%s)", eventID, eventName))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// mayTouchGuest is the write rule for a guest row: the owning inviter, an
// admin of the same event, or the super-admin.
func (h *Handler) mayTouchGuest(ident models.Identity, guest *models.Guest) bool {
	if ident.IsAdmin() {
		return auth.Authorize(ident, guest.EventID, models.EventAdmin)
	}
	return auth.AuthorizeOwner(ident, guest.UserID)
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return page, limit
}
