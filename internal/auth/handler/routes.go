package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	users := app.Group("/api/v1/users")

	users.Post("/register", h.Register)
	users.Post("/login", h.Login)
	users.Post("/refresh-token", h.Refresh)

	secured := users.Group("", h.RequireAuth)
	secured.Post("/logout", h.Logout)
	secured.Post("/change-password", h.ChangePassword)
	secured.Get("/current-user", h.CurrentUser)
	secured.Patch("/update-account", h.UpdateAccount)
	secured.Patch("/avatar", h.UpdateAvatar)
	secured.Patch("/cover-image", h.UpdateCoverImage)
	secured.Get("/c/:username", h.ChannelProfile)
	secured.Get("/history", h.WatchHistory)
}
