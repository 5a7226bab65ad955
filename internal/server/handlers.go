package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nihmadev/Axion/internal/vault"
)

// Handler serves the host API endpoints.
type Handler struct {
	vault  *vault.Vault
	logger *slog.Logger
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Request body is required")
		} else {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON body")
		}
		return false
	}
	return true
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Vault lifecycle

type vaultStatus struct {
	Exists            bool    `json:"exists"`
	Unlocked          bool    `json:"unlocked"`
	RemainingAttempts *uint32 `json:"remainingAttempts,omitempty"`
}

// VaultStatus handles GET /api/v1/vault.
func (h *Handler) VaultStatus(w http.ResponseWriter, r *http.Request) {
	status := vaultStatus{
		Exists:   h.vault.Exists(),
		Unlocked: h.vault.IsUnlocked(),
	}
	if status.Exists {
		if remaining, err := h.vault.RemainingAttempts(); err == nil {
			status.RemainingAttempts = &remaining
		}
	}
	jsonResponse(w, http.StatusOK, status)
}

type masterPasswordRequest struct {
	MasterPassword string `json:"masterPassword"`
}

// CreateVault handles POST /api/v1/vault.
func (h *Handler) CreateVault(w http.ResponseWriter, r *http.Request) {
	var req masterPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.vault.Create(req.MasterPassword); err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]string{"status": "created"})
}

// UnlockVault handles POST /api/v1/vault/unlock.
func (h *Handler) UnlockVault(w http.ResponseWriter, r *http.Request) {
	var req masterPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.vault.Unlock(req.MasterPassword); err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// LockVault handles POST /api/v1/vault/lock.
func (h *Handler) LockVault(w http.ResponseWriter, r *http.Request) {
	h.vault.Lock()
	jsonResponse(w, http.StatusOK, map[string]string{"status": "locked"})
}

type rotateRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// RotateMasterPassword handles POST /api/v1/vault/rotate.
func (h *Handler) RotateMasterPassword(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.vault.ChangeMasterPassword(req.OldPassword, req.NewPassword); err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "rotated"})
}

// DestroyVault handles DELETE /api/v1/vault.
func (h *Handler) DestroyVault(w http.ResponseWriter, r *http.Request) {
	if err := h.vault.Destroy(); err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "destroyed"})
}

// Credentials

// ListPasswords handles GET /api/v1/passwords.
func (h *Handler) ListPasswords(w http.ResponseWriter, r *http.Request) {
	entries, err := h.vault.Passwords()
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// PasswordsForURL handles GET /api/v1/passwords/for-url?url=...
func (h *Handler) PasswordsForURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Query parameter 'url' is required")
		return
	}
	entries, err := h.vault.PasswordsForURL(rawURL)
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// SearchPasswords handles GET /api/v1/passwords/search?q=...
func (h *Handler) SearchPasswords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Query parameter 'q' is required")
		return
	}
	entries, err := h.vault.SearchPasswords(query)
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// GetPassword handles GET /api/v1/passwords/{id}.
func (h *Handler) GetPassword(w http.ResponseWriter, r *http.Request) {
	entry, err := h.vault.GetPassword(chi.URLParam(r, "id"))
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

type addPasswordRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddPassword handles POST /api/v1/passwords.
func (h *Handler) AddPassword(w http.ResponseWriter, r *http.Request) {
	var req addPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.vault.AddPassword(req.URL, req.Username, req.Password)
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

type updatePasswordRequest struct {
	URL      *string `json:"url"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdatePassword handles PATCH /api/v1/passwords/{id}.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.vault.UpdatePassword(chi.URLParam(r, "id"), req.URL, req.Username, req.Password)
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// DeletePassword handles DELETE /api/v1/passwords/{id}.
func (h *Handler) DeletePassword(w http.ResponseWriter, r *http.Request) {
	if err := h.vault.DeletePassword(chi.URLParam(r, "id")); err != nil {
		vaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generation

type generateRequest struct {
	Length  int  `json:"length"`
	Symbols bool `json:"symbols"`
}

type generateResponse struct {
	Password string `json:"password"`
}

// GeneratePassword handles POST /api/v1/generate.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req) {
		return
	}
	password, err := vault.GeneratePassword(req.Length, req.Symbols)
	if err != nil {
		vaultError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, generateResponse{Password: password})
}
