package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type ConversationHandler struct {
	s service.ConversationService
}

func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{s: service}
}

func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	conversations, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
	})
}

func (h *ConversationHandler) Reply(c *fiber.Ctx) error {
	conversationID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req transfer.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conversation, err := h.s.Reply(c.Context(), GetUserID(c), conversationID, req.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation": conversation,
	})
}

func (h *ConversationHandler) SetStatus(c *fiber.Ctx) error {
	conversationID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req transfer.ConversationStatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conversation, err := h.s.SetStatus(c.Context(), GetUserID(c), conversationID, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversation": conversation,
	})
}
