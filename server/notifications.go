package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/models"
)

func (h *handlers) listNotifications(c *fiber.Ctx) error {
	notifications, err := h.store.ListNotifications(c.Context(), userID(c))
	if err != nil {
		return translateError(c, err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return okJSON(c, notifications)
}

func (h *handlers) markNotificationRead(c *fiber.Ctx) error {
	if err := h.store.MarkNotificationRead(c.Context(), c.Params("id"), userID(c)); err != nil {
		return translateError(c, err)
	}
	return okJSON(c, "read")
}
