package auth_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"guestlist/internal/auth"
	"guestlist/internal/logger"
	"guestlist/internal/utils"
)

type Handler struct {
	AuthService *auth.Service
	Logger      *logger.Logger
}

// AdminLogin handles POST /auth/admin.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Username == "" || body.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.AuthService.AdminLogin(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.LogAuth("LOGIN", fmt.Sprintf("failed admin login for %q", body.Username))
			utils.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// UserLogin handles POST /auth/user.
func (h *Handler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDNumber string `json:"idNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.IDNumber == "" {
		utils.WriteError(w, http.StatusBadRequest, "idNumber is required")
		return
	}

	token, userID, err := h.AuthService.UserLogin(r.Context(), body.IDNumber)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.LogAuth("LOGIN", "failed user login with unknown id number")
			utils.WriteError(w, http.StatusUnauthorized, "Invalid id number")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"userId": userID,
	})
}
