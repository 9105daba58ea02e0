package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"mingle/db"
	"mingle/models"
)

const maxPostLength = 5000

type createPostRequest struct {
	Text  string   `json:"text"`
	Media []string `json:"media"`
}

func (r *createPostRequest) validate() bool {
	if len(r.Text) == 0 && len(r.Media) == 0 {
		return false
	}
	return len(r.Text) <= maxPostLength
}

func (h *handlers) createPost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}
	if !req.validate() {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}

	post := models.Post{
		AuthorID: userID(c),
		Text:     req.Text,
		Media:    req.Media,
	}
	if h.detector != nil {
		post.Langs = h.detector.Detect(req.Text)
	}

	created, err := h.store.CreatePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), created)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) getPost(c *fiber.Ctx) error {
	post, err := h.store.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) deletePost(c *fiber.Ctx) error {
	if err := h.store.DeletePost(c.Context(), c.Params("id"), userID(c)); err != nil {
		return translateError(c, err)
	}
	return okJSON(c, "deleted")
}

// feedPage runs the shared cursor pagination: fetch one row past the limit
// to decide whether another page exists, cursor is the last row's sequence
// number.
func (h *handlers) feedPage(c *fiber.Ctx, communityID string) error {
	limit, err := strconv.ParseInt(c.Query("limit", "20"), 0, 32)
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	cursor, _ := strconv.ParseInt(c.Query("cursor", ""), 10, 64)

	posts, err := h.store.GetFeed(c.Context(), db.FeedOptions{
		CommunityID: communityID,
		Lang:        c.Query("lang", ""),
		Limit:       int(limit) + 1,
		Cursor:      cursor,
	})
	if err != nil {
		return translateError(c, err)
	}

	var nextCursor *string
	if len(posts) > int(limit) {
		// Remove the extra post we fetched to check for more results
		posts = posts[:len(posts)-1]
		parsed := strconv.FormatInt(posts[len(posts)-1].Seq, 10)
		nextCursor = &parsed
	}

	cards, err := h.store.Hydrate(c.Context(), posts)
	if err != nil {
		return translateError(c, err)
	}
	if cards == nil {
		cards = []models.PostCard{}
	}

	return okJSON(c, models.FeedResponse{Feed: cards, Cursor: nextCursor})
}

func (h *handlers) getFeed(c *fiber.Ctx) error {
	return h.feedPage(c, "")
}

func (h *handlers) likePost(c *fiber.Ctx) error {
	post, err := h.store.LikePost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	h.emit(models.InteractionEvent{
		Kind:        models.NotificationLike,
		ActorID:     userID(c),
		RecipientID: post.AuthorID,
		PostID:      post.ID,
	})

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) unlikePost(c *fiber.Ctx) error {
	post, err := h.store.UnlikePost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) bookmarkPost(c *fiber.Ctx) error {
	post, err := h.store.BookmarkPost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) unbookmarkPost(c *fiber.Ctx) error {
	post, err := h.store.UnbookmarkPost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) sharePost(c *fiber.Ctx) error {
	post, err := h.store.SharePost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}

func (h *handlers) createRepost(c *fiber.Ctx) error {
	repost, err := h.store.CreateRepost(c.Context(), c.Params("id"), userID(c), c.Query("community", ""))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), repost)
	if err != nil {
		return translateError(c, err)
	}

	recipient := ""
	if card.Original != nil {
		recipient = card.Original.AuthorID
	}
	h.emit(models.InteractionEvent{
		Kind:        models.NotificationRepost,
		ActorID:     userID(c),
		RecipientID: recipient,
		PostID:      repost.RepostOf,
	})

	return okJSON(c, card)
}

func (h *handlers) undoRepost(c *fiber.Ctx) error {
	original, err := h.store.UndoRepost(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return translateError(c, err)
	}

	card, err := h.store.HydratePost(c.Context(), original)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}
