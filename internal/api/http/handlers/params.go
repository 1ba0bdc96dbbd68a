package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/auth"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	apperrors "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/pkg/util/errorutil"
)

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// optionalUser returns the signed-in user or nil on public routes.
func optionalUser(c *fiber.Ctx) *domain.User {
	if p, ok := auth.PrincipalFromContext(c); ok {
		return p.User
	}
	return nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
