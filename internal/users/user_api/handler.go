package user_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/auth"
	"guestlist/internal/excel"
	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/users"
	"guestlist/internal/utils"
)

const (
	defaultPage  = 1
	defaultLimit = 25
)

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var body struct {
		IDNumber string `json:"id_number"`
		FullName string `json:"full_name"`
		EventID  int64  `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.IDNumber == "" || body.FullName == "" {
		utils.WriteError(w, http.StatusBadRequest, "id_number and full_name are required")
		return
	}

	// Event-scoped admins always create inviters for their own event; the
	// super-admin must say which event it is acting on.
	if ident.IsSuperAdmin() {
		if body.EventID == 0 {
			utils.WriteError(w, http.StatusBadRequest, "event_id is required")
			return
		}
	} else {
		body.EventID = ident.EventID
	}

	user, err := h.UserService.CreateUser(r.Context(), body.IDNumber, body.FullName, body.EventID)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateIDNumber):
			utils.WriteError(w, http.StatusConflict, "A user with that ID number already exists")
		case errors.Is(err, users.ErrEventNotFound):
			utils.WriteError(w, http.StatusBadRequest, "Event not found")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	page, limit := parsePagination(r)

	var eventID int64
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid event_id")
			return
		}
		eventID = parsed
	}

	if ident.IsSuperAdmin() {
		if eventID == 0 {
			utils.WriteError(w, http.StatusBadRequest, "Event ID query is required")
			return
		}
	} else {
		eventID = ident.EventID
	}

	userList, totalCount, err := h.UserService.ListUsers(r.Context(), eventID, page, limit)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users":      userList,
		"pagination": utils.NewPagination(page, limit, totalCount),
	})
}

// GetUser serves both admins and inviters; an inviter may only read itself,
// via its own id or the "me" alias.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	rawID := chi.URLParam(r, "id")

	var id int64
	if !ident.IsAdmin() {
		if rawID == "me" {
			id = ident.ID
		} else {
			parsed, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil || parsed != ident.ID {
				utils.WriteError(w, http.StatusForbidden, "You may only view your own data")
				return
			}
			id = parsed
		}
	} else {
		parsed, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		id = parsed
	}

	user, err := h.UserService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if ident.IsAdmin() && !auth.Authorize(ident, user.EventID, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have access to this user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var body struct {
		IDNumber string `json:"id_number"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !h.authorizeForUser(w, r, ident, id) {
		return
	}

	user, err := h.UserService.UpdateUser(r.Context(), id, body.IDNumber, body.FullName)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if !h.authorizeForUser(w, r, ident, id) {
		return
	}

	if err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.Logger.Info("USERS", fmt.Sprintf("User %d deleted with their guests", id))
	w.WriteHeader(http.StatusNoContent)
}

// ImportUsersExcel handles POST /users/excel-import?event_id=: a multipart
// xlsx upload of inviters, duplicate id numbers skipped.
func (h *Handler) ImportUsersExcel(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	eventID, err := strconv.ParseInt(r.URL.Query().Get("event_id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event_id")
		return
	}

	if !auth.Authorize(ident, eventID, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have permission to import users for this event")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "A spreadsheet file is required")
		return
	}
	defer file.Close()

	rows, err := excel.ParseUserRows(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Failed to parse spreadsheet: "+err.Error())
		return
	}

	result, err := h.UserService.ImportUsers(r.Context(), eventID, rows)
	if err != nil {
		if errors.Is(err, users.ErrEventNotFound) {
			utils.WriteError(w, http.StatusBadRequest, "Event not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to import users")
		return
	}

	h.Logger.Info("USERS", fmt.Sprintf("Imported %d users for event %d (%d skipped)", result.Created, eventID, result.Skipped))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

// authorizeForUser applies the event-scope rule against the target user's
// row. A missing row falls through so the operation stays idempotent.
func (h *Handler) authorizeForUser(w http.ResponseWriter, r *http.Request, ident models.Identity, id int64) bool {
	if ident.IsSuperAdmin() {
		return true
	}

	user, err := h.UserService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return true
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch user")
		return false
	}

	if !auth.Authorize(ident, user.EventID, models.EventAdmin) {
		utils.WriteError(w, http.StatusForbidden, "You do not have access to this user")
		return false
	}
	return true
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
