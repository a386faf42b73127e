package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/admins"
	"guestlist/internal/auth"
	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/utils"
)

type Handler struct {
	AdminService *admins.AdminService
	Logger       *logger.Logger
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		EventID  int64  `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Username == "" || body.Password == "" || body.EventID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "username, password and event_id are required")
		return
	}

	admin, err := h.AdminService.CreateAdmin(r.Context(), body.Username, body.Password, body.EventID)
	if err != nil {
		if errors.Is(err, admins.ErrReservedUsername) {
			utils.WriteError(w, http.StatusConflict, "That username is reserved")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create admin")
		return
	}

	h.Logger.Info("ADMINS", fmt.Sprintf("Admin %q created for event %d", admin.Username, admin.EventID))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"admin": admin})
}

func (h *Handler) GetAdmins(w http.ResponseWriter, r *http.Request) {
	var eventID int64
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid event_id")
			return
		}
		eventID = parsed
	}

	adminList, err := h.AdminService.GetAdmins(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch admins")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"admins": adminList})
}

func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}

	admin, err := h.AdminService.GetAdmin(r.Context(), id)
	if err != nil {
		if errors.Is(err, admins.ErrAdminNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Admin not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch admin")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"admin": admin})
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		EventID  int64  `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	existing, err := h.AdminService.GetAdmin(r.Context(), id)
	if err != nil {
		if errors.Is(err, admins.ErrAdminNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Admin not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch admin")
		return
	}

	if !auth.Authorize(ident, existing.EventID, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have permission to update this admin")
		return
	}
	// Only the super-admin may move an admin to another event.
	if !ident.IsSuperAdmin() {
		body.EventID = 0
	}

	admin, err := h.AdminService.UpdateAdmin(r.Context(), id, body.Username, body.Password, body.EventID)
	if err != nil {
		if errors.Is(err, admins.ErrReservedUsername) {
			utils.WriteError(w, http.StatusConflict, "That username is reserved")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update admin")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"admin": admin})
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}

	if err := h.AdminService.DeleteAdmin(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete admin")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
