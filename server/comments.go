package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/models"
)

const maxCommentLength = 2000

type createCommentRequest struct {
	Text     string `json:"text"`
	ParentID string `json:"parentId"`
}

func (r *createCommentRequest) validate() bool {
	return len(r.Text) > 0 && len(r.Text) <= maxCommentLength
}

func (h *handlers) createComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}
	if !req.validate() {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}

	post, err := h.store.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}

	comment, err := h.store.CreateComment(c.Context(), models.Comment{
		PostID:   post.ID,
		ParentID: req.ParentID,
		AuthorID: userID(c),
		Text:     req.Text,
	})
	if err != nil {
		return translateError(c, err)
	}

	h.emit(models.InteractionEvent{
		Kind:        models.NotificationComment,
		ActorID:     userID(c),
		RecipientID: post.AuthorID,
		PostID:      post.ID,
		CommentID:   comment.ID,
	})

	return okJSON(c, comment)
}

func (h *handlers) listComments(c *fiber.Ctx) error {
	comments, err := h.store.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return okJSON(c, comments)
}

func (h *handlers) likeComment(c *fiber.Ctx) error {
	comment, err := h.store.LikeComment(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	h.emit(models.InteractionEvent{
		Kind:        models.NotificationCommentLike,
		ActorID:     userID(c),
		RecipientID: comment.AuthorID,
		PostID:      comment.PostID,
		CommentID:   comment.ID,
	})

	return okJSON(c, comment)
}

func (h *handlers) unlikeComment(c *fiber.Ctx) error {
	comment, err := h.store.UnlikeComment(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, comment)
}

func (h *handlers) deleteComment(c *fiber.Ctx) error {
	if err := h.store.DeleteComment(c.Context(), c.Params("id"), userID(c)); err != nil {
		return translateError(c, err)
	}
	return okJSON(c, "deleted")
}
