package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type PlatformHandler struct {
	ps service.PlatformService
}

func NewPlatformHandler(ps service.PlatformService) *PlatformHandler {
	return &PlatformHandler{ps: ps}
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.ps.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Social accounts retrieved successfully",
		"accounts": accounts,
	})
}

func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	var req transfer.SocialAccountCreation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	account, err := h.ps.Create(c.Context(), GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Social account connected successfully",
		"account": account,
	})
}

func (h *PlatformHandler) UpdateSocialAccount(c *fiber.Ctx) error {
	accountID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req transfer.SocialAccountUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.IsActive == nil {
		return badRequest(c, "isActive is required")
	}

	account, err := h.ps.SetActive(c.Context(), GetUserID(c), accountID, *req.IsActive)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"account": account,
	})
}

func (h *PlatformHandler) RemoveSocialAccount(c *fiber.Ctx) error {
	accountID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.ps.Delete(c.Context(), GetUserID(c), accountID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Social account deleted successfully",
	})
}
