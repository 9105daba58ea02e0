package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"mingle/communities"
	"mingle/db"
)

// Every endpoint answers with the same envelope: {ok:true,data} on success
// or {ok:false,error:"snake_case_reason"} on failure.

func okJSON(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"ok": true, "data": data})
}

func failJSON(c *fiber.Ctx, status int, reason string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": reason})
}

// translateError maps storage errors onto envelope reasons. Anything
// unexpected is logged with full detail server-side and surfaced as a
// generic internal_error so no internal detail leaks over the boundary.
func translateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, db.ErrPostNotFound):
		return failJSON(c, fiber.StatusNotFound, "post_not_found")
	case errors.Is(err, communities.ErrCommunityNotFound):
		return failJSON(c, fiber.StatusNotFound, "community_not_found")
	case errors.Is(err, db.ErrCommentNotFound), errors.Is(err, db.ErrNotFound):
		return failJSON(c, fiber.StatusNotFound, "not_found")
	case errors.Is(err, db.ErrAlreadyReposted):
		return failJSON(c, fiber.StatusConflict, "already_reposted")
	case errors.Is(err, db.ErrForbidden):
		return failJSON(c, fiber.StatusForbidden, "forbidden")
	default:
		log.WithFields(log.Fields{
			"route": c.Route().Path,
			"error": err,
		}).Error("Request failed")
		return failJSON(c, fiber.StatusInternalServerError, "internal_error")
	}
}
