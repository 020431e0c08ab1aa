package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	api := app.Group("/api/v1")
	api.Post("/register", h.Register)
	api.Post("/login", h.Login)
	api.Post("/forgot-password", h.ForgotPassword)
	api.Post("/reset-password", h.ResetPassword)
	api.Get("/me", h.RequireAuth(), h.Me)
}
