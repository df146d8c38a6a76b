package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type UserHandler struct {
	s    service.UserService
	auth service.AuthService
}

func NewUserHandler(service service.UserService, auth service.AuthService) *UserHandler {
	return &UserHandler{s: service, auth: auth}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userInfo := GetUser(c)
	if userInfo == nil {
		var err error
		userInfo, err = h.s.GetUserInfo(c.Context(), GetUserID(c))
		if err != nil {
			return respondError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"user": userInfo,
	})
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req transfer.PasswordChange
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.auth.ChangePassword(c.Context(), GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}
