package api

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
)

type AccountHandler struct {
	log      *slog.Logger
	accounts services.IAccountService
}

func NewAccountHandler(log *slog.Logger, accounts services.IAccountService) *AccountHandler {
	return &AccountHandler{log: log, accounts: accounts}
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type profileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type usernameRequest struct {
	NewUsername string `json:"newUsername"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body auth.Credentials
	if !decode(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	id, err := h.accounts.Register(body.Username, body.Password)
	if err != nil {
		h.fail(w, err, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "user registered", UserID: int64(id)})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body auth.Credentials
	if !decode(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.accounts.Login(body.Username, body.Password)
	if err != nil {
		h.fail(w, err, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Message: "login successful", Token: token.String()})
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.UserIDFromContext(r.Context())
	user, err := h.accounts.Profile(id)
	if err != nil {
		h.fail(w, err, "profile could not be loaded")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{ID: int64(user.ID), Username: user.Username})
}

func (h *AccountHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var body usernameRequest
	if !decode(w, r, &body) {
		return
	}
	id, _ := auth.UserIDFromContext(r.Context())
	if err := h.accounts.ChangeUsername(r.Context(), id, body.NewUsername); err != nil {
		h.fail(w, err, "username could not be changed")
		return
	}
	writeMessage(w, http.StatusOK, "username updated")
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if !decode(w, r, &body) {
		return
	}
	if body.OldPassword == "" || body.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "old and new password are required")
		return
	}
	id, _ := auth.UserIDFromContext(r.Context())
	if err := h.accounts.ChangePassword(id, body.OldPassword, body.NewPassword); err != nil {
		h.fail(w, err, "password could not be changed")
		return
	}
	writeMessage(w, http.StatusOK, "password changed")
}

// fail maps domain errors to a status. Anything unexpected is logged and answered 500.
func (h *AccountHandler) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		writeMessage(w, http.StatusConflict, err.Error())
	case stderrors.Is(err, errors.ErrInvalidUsername), stderrors.Is(err, errors.ErrInvalidPassword):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case stderrors.Is(err, errors.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error(fallback, "error", err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
