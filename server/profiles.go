package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/models"
)

const (
	maxDisplayNameLength = 80
	maxInterestTags      = 50
)

type upsertProfileRequest struct {
	DisplayName string   `json:"displayName"`
	Avatar      string   `json:"avatar"`
	Interests   []string `json:"interests"`
}

func (r *upsertProfileRequest) validate() bool {
	if len(r.DisplayName) == 0 || len(r.DisplayName) > maxDisplayNameLength {
		return false
	}
	return len(r.Interests) <= maxInterestTags
}

func (h *handlers) upsertProfile(c *fiber.Ctx) error {
	var req upsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}
	if !req.validate() {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}

	profile := models.Profile{
		UserID:      userID(c),
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
		Interests:   req.Interests,
	}
	if err := h.store.UpsertProfile(c.Context(), profile); err != nil {
		return translateError(c, err)
	}

	stored, err := h.store.GetProfile(c.Context(), profile.UserID)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, stored)
}

func (h *handlers) getProfile(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, profile)
}
