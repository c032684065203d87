package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/chronopay-gateway/internal/common"
)

// AdminHandler exposes the configure endpoints backing the admin form.
type AdminHandler struct {
	Store    Store
	Validate *validator.Validate
}

// Get returns the current settings snapshot.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_NOT_CONFIGURED", "settings handler unavailable", nil)
		return
	}
	current, err := h.Store.Load(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			common.JSONError(w, http.StatusNotFound, "NOT_INSTALLED", "plugin is not installed", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_LOAD_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, current)
}

// Update validates and persists a new settings snapshot.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_NOT_CONFIGURED", "settings handler unavailable", nil)
		return
	}
	var in Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	in.GatewayURL = strings.TrimSpace(in.GatewayURL)
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ProductName = strings.TrimSpace(in.ProductName)
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
	}
	if err := h.Store.Save(r.Context(), in); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_SAVE_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]bool{"saved": true})
}
