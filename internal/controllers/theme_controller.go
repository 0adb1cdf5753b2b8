package controllers

import (
	"net/http"

	"github.com/cardpoint/onboarding-service/internal/dtos"
	"github.com/cardpoint/onboarding-service/internal/middleware"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/services"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

type ThemeController struct {
	themeService services.ThemeService
}

func NewThemeController(themeService services.ThemeService) *ThemeController {
	return &ThemeController{themeService: themeService}
}

// GET /api/v1/theme
func (c *ThemeController) GetThemeHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := middleware.ClientKeyFrom(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unable to identify client", nil)
		return
	}
	theme, err := c.themeService.GetTheme(r.Context(), key)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load theme", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ThemeResponse{Theme: string(theme)})
}

// PUT /api/v1/theme
func (c *ThemeController) SetThemeHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := middleware.ClientKeyFrom(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unable to identify client", nil)
		return
	}
	var req dtos.ThemeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	theme, err := c.themeService.SetTheme(r.Context(), key, models.Theme(req.Theme))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to save theme", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ThemeResponse{Theme: string(theme)})
}

// POST /api/v1/theme/toggle
func (c *ThemeController) ToggleThemeHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := middleware.ClientKeyFrom(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unable to identify client", nil)
		return
	}
	theme, err := c.themeService.ToggleTheme(r.Context(), key)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to toggle theme", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ThemeResponse{Theme: string(theme)})
}
