package handler

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vidstream/identity-service/config"
	"github.com/vidstream/identity-service/internal/auth/dto"
	"github.com/vidstream/identity-service/internal/auth/service"
	autherror "github.com/vidstream/identity-service/internal/errors"
	"github.com/vidstream/identity-service/pkg/constant"
)

type AuthHandler struct {
	userService  *service.UserService
	tokenService service.TokenGenerator
	cfg          *config.Config
}

func NewAuthHandler(userService *service.UserService, tokenService service.TokenGenerator, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		cfg:          cfg,
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, autherror.ErrAllFieldsRequired),
		errors.Is(err, autherror.ErrAvatarRequired),
		errors.Is(err, autherror.ErrCoverImageRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, autherror.ErrUserAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, autherror.ErrUserNotFound),
		errors.Is(err, autherror.ErrChannelNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrInvalidRefreshToken),
		errors.Is(err, autherror.ErrRefreshTokenReused):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	if status == fiber.StatusInternalServerError {
		// never leak store/codec internals to the caller
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *AuthHandler) setTokenCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     constant.AccessTokenCookie,
		Value:    accessToken,
		Expires:  now.Add(h.tokenService.GetAccessTokenExpiry()),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshTokenCookie,
		Value:    refreshToken,
		Expires:  now.Add(h.tokenService.GetRefreshTokenExpiry()),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		Path:     "/",
	})
}

func (h *AuthHandler) clearTokenCookies(c *fiber.Ctx) {
	for _, name := range []string{constant.AccessTokenCookie, constant.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   h.cfg.CookieSecure,
			Path:     "/",
		})
	}
}

func formFileUpload(c *fiber.Ctx, field string) (*dto.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		// a missing file is not a transport error, the service decides
		// whether the field was required
		return nil, nil
	}

	return openFileUpload(header)
}

func openFileUpload(header *multipart.FileHeader) (*dto.FileUpload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}

	return &dto.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      f,
	}, nil
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input := dto.RegisterInput{
		FullName: c.FormValue("fullName"),
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}

	avatar, err := formFileUpload(c, constant.AvatarFormField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid avatar upload"})
	}
	input.Avatar = avatar

	coverImage, err := formFileUpload(c, constant.CoverImageFormField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid cover image upload"})
	}
	input.CoverImage = coverImage

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	out, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return errorJSON(c, err)
	}

	h.setTokenCookies(c, out.AccessToken, out.RefreshToken)

	return c.Status(fiber.StatusOK).JSON(out)
}

// Refresh reads the incoming refresh token from the cookie first, then from
// the request body; the body fallback keeps non-browser clients working.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	incoming := c.Cookies(constant.RefreshTokenCookie)
	if incoming == "" {
		var input dto.RefreshInput
		if err := c.BodyParser(&input); err == nil {
			incoming = input.RefreshToken
		}
	}

	pair, err := h.userService.Refresh(c.Context(), incoming)
	if err != nil {
		return errorJSON(c, err)
	}

	h.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)

	return c.Status(fiber.StatusOK).JSON(pair)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	caller := currentUser(c)

	if err := h.userService.Logout(c.Context(), caller.ID); err != nil {
		return errorJSON(c, err)
	}

	h.clearTokenCookies(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "user logged out successfully"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	caller := currentUser(c)

	if err := h.userService.ChangePassword(c.Context(), caller.ID, input); err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password changed successfully"})
}
