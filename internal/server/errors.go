package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nihmadev/Axion/internal/vault"
)

// Response helpers

type apiResponse struct {
	Data any `json:"data,omitempty"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Data: data})
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// vaultError maps vault sentinel errors to the API's error envelope.
func vaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, vault.ErrWrongPassword):
		jsonError(w, http.StatusUnauthorized, "WRONG_PASSWORD", err.Error())
	case errors.Is(err, vault.ErrVaultDeleted):
		jsonError(w, http.StatusGone, "VAULT_DELETED", err.Error())
	case errors.Is(err, vault.ErrLocked):
		jsonError(w, http.StatusForbidden, "VAULT_LOCKED", err.Error())
	case errors.Is(err, vault.ErrNoVault):
		jsonError(w, http.StatusNotFound, "NO_VAULT", err.Error())
	case errors.Is(err, vault.ErrVaultExists):
		jsonError(w, http.StatusConflict, "VAULT_EXISTS", err.Error())
	case errors.Is(err, vault.ErrNotFound):
		jsonError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// notFoundHandler handles 404s for unrouted paths.
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
}

// methodNotAllowedHandler handles 405s.
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource")
}
