package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/dto"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
	apperrors "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/pkg/util/errorutil"
)

// AccountHandler serves the signed-in user's own profile and preferences.
type AccountHandler struct {
	auth        *service.AuthService
	preferences *service.PreferencesService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(authService *service.AuthService, preferences *service.PreferencesService) *AccountHandler {
	return &AccountHandler{auth: authService, preferences: preferences}
}

// Me handles GET /me.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), p.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateMe handles PATCH /me.
func (h *AccountHandler) UpdateMe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	user, err := h.auth.UpdateProfile(c.UserContext(), p.User.ID, service.ProfileUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		NationalID:     req.NationalID,
		Extension:      req.Extension,
		Department:     req.Department,
		Email:          req.Email,
		AlternateEmail: req.AlternateEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// DeleteMe handles DELETE /me?confirm=true.
func (h *AccountHandler) DeleteMe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if !parseBoolQuery(c, "confirm", false) {
		return apperrors.NewValidationError("deletion must be confirmed", map[string]any{"confirm": "true"})
	}
	if err := h.auth.DeleteAccount(c.UserContext(), p.User.ID, p.Token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetPreferences handles GET /me/preferences.
func (h *AccountHandler) GetPreferences(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	prefs, err := h.preferences.Get(c.UserContext(), p.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PreferencesResponse{DarkMode: prefs.DarkMode}})
}

// PutPreferences handles PUT /me/preferences.
func (h *AccountHandler) PutPreferences(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.DarkMode == nil {
		return apperrors.NewValidationError("dark_mode is required", nil)
	}
	prefs, err := h.preferences.Save(c.UserContext(), p.User.ID, domain.Preferences{DarkMode: *req.DarkMode})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PreferencesResponse{DarkMode: prefs.DarkMode}})
}
