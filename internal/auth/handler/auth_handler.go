package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tekriders/auth-service/internal/auth/dto"
	"github.com/tekriders/auth-service/internal/auth/service"
	autherror "github.com/tekriders/auth-service/internal/errors"
)

// forgotPasswordAck is returned whether or not the identifier exists.
const forgotPasswordAck = "If an account exists for that identifier, a reset link has been sent."

type AuthHandler struct {
	authService  *service.AuthService
	tokenService service.TokenGenerator
}

func NewAuthHandler(authService *service.AuthService, tokenService service.TokenGenerator) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	cred, err := h.authService.Register(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    cred.ID,
		"email": cred.Email,
		"phone": cred.Phone,
		"role":  cred.Role,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()

	response, err := h.authService.Login(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.authService.ForgotPassword(c.Context(), input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": forgotPasswordAck})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.authService.ResetPassword(c.Context(), input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password updated"})
}

// Me echoes the verified session claims; RequireAuth must run first.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := ClaimsFromContext(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed bearer token"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":    claims.UserID,
		"email": claims.Email,
		"phone": claims.Phone,
		"role":  claims.Role,
	})
}

// errorResponse maps service errors onto stable status codes. Unknown
// identifiers and wrong passwords share one message and status so they are
// indistinguishable to the caller.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": autherror.ErrInvalidCredentials.Error()})
	case errors.Is(err, autherror.ErrTooManyLoginAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": autherror.ErrTooManyLoginAttempts.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse),
		errors.Is(err, autherror.ErrPhoneAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrInvalidResetToken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": autherror.ErrInvalidResetToken.Error()})
	case errors.Is(err, autherror.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrMailDelivery):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": autherror.ErrMailDelivery.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
