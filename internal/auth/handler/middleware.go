package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vidstream/identity-service/internal/auth/dto"
	"github.com/vidstream/identity-service/internal/auth/service"
	"github.com/vidstream/identity-service/pkg/constant"
)

// RequireAuth verifies the access token (cookie first, Authorization header
// as a fallback), resolves the caller and attaches their public projection
// to the request. Protected handlers read the caller from locals and pass it
// to the service explicitly.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	token := c.Cookies(constant.AccessTokenCookie)
	if token == "" {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			token = after
		}
	}

	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized request"})
	}

	userID, err := h.tokenService.Verify(service.AccessToken, token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized request"})
	}

	user, err := h.userService.CurrentUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized request"})
	}

	c.Locals(constant.LocalsUserKey, user)

	return c.Next()
}

func currentUser(c *fiber.Ctx) *dto.UserOutput {
	user, _ := c.Locals(constant.LocalsUserKey).(*dto.UserOutput)
	return user
}
