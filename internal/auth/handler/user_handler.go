package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vidstream/identity-service/internal/auth/dto"
	autherror "github.com/vidstream/identity-service/internal/errors"
	"github.com/vidstream/identity-service/pkg/constant"
)

func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(currentUser(c))
}

func (h *AuthHandler) UpdateAccount(c *fiber.Ctx) error {
	var input dto.UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	caller := currentUser(c)

	user, err := h.userService.UpdateAccountDetails(c.Context(), caller.ID, input)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AuthHandler) UpdateAvatar(c *fiber.Ctx) error {
	file, err := formFileUpload(c, constant.AvatarFormField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid avatar upload"})
	}
	if file == nil {
		return errorJSON(c, autherror.ErrAvatarRequired)
	}

	caller := currentUser(c)

	user, err := h.userService.UpdateAvatar(c.Context(), caller.ID, file)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AuthHandler) UpdateCoverImage(c *fiber.Ctx) error {
	file, err := formFileUpload(c, constant.CoverImageFormField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid cover image upload"})
	}
	if file == nil {
		return errorJSON(c, autherror.ErrCoverImageRequired)
	}

	caller := currentUser(c)

	user, err := h.userService.UpdateCoverImage(c.Context(), caller.ID, file)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AuthHandler) ChannelProfile(c *fiber.Ctx) error {
	caller := currentUser(c)

	profile, err := h.userService.GetChannelProfile(c.Context(), c.Params("username"), caller.ID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *AuthHandler) WatchHistory(c *fiber.Ctx) error {
	caller := currentUser(c)

	history, err := h.userService.GetWatchHistory(c.Context(), caller.ID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(history)
}
