package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/communities"
	"mingle/models"
)

// communityView is a catalog entry with its computed membership count.
type communityView struct {
	communities.Community
	Members int64 `json:"members"`
}

func (h *handlers) listCommunities(c *fiber.Ctx) error {
	counts, err := h.resolver.MemberCounts(c.Context())
	if err != nil {
		return translateError(c, err)
	}

	views := make([]communityView, 0, len(h.resolver.Catalog().All()))
	for _, community := range h.resolver.Catalog().All() {
		views = append(views, communityView{
			Community: community,
			Members:   counts[community.ID],
		})
	}
	return okJSON(c, views)
}

func (h *handlers) getCommunity(c *fiber.Ctx) error {
	community, err := h.resolver.Catalog().Get(c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}

	count, err := h.resolver.MemberCount(c.Context(), community.ID)
	if err != nil {
		return translateError(c, err)
	}

	return okJSON(c, communityView{Community: community, Members: count})
}

func (h *handlers) memberCount(c *fiber.Ctx) error {
	count, err := h.resolver.MemberCount(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, fiber.Map{"count": count})
}

func (h *handlers) communityFeed(c *fiber.Ctx) error {
	community, err := h.resolver.Catalog().Get(c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}
	return h.feedPage(c, community.ID)
}

func (h *handlers) createCommunityPost(c *fiber.Ctx) error {
	community, err := h.resolver.Catalog().Get(c.Params("id"))
	if err != nil {
		return translateError(c, err)
	}

	member, err := h.resolver.IsMember(c.Context(), community.ID, userID(c))
	if err != nil {
		return translateError(c, err)
	}
	if !member {
		return failJSON(c, fiber.StatusForbidden, "forbidden")
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}
	if !req.validate() {
		return failJSON(c, fiber.StatusBadRequest, "validation_error")
	}

	post := models.Post{
		AuthorID:    userID(c),
		CommunityID: community.ID,
		Text:        req.Text,
		Media:       req.Media,
	}
	if h.detector != nil {
		post.Langs = h.detector.Detect(req.Text)
	}

	created, err := h.store.CreatePost(c.Context(), post)
	if err != nil {
		return translateError(c, err)
	}

	h.emit(models.InteractionEvent{
		Kind:        models.NotificationCommunityPost,
		ActorID:     userID(c),
		CommunityID: community.ID,
		PostID:      created.ID,
	})

	card, err := h.store.HydratePost(c.Context(), created)
	if err != nil {
		return translateError(c, err)
	}
	return okJSON(c, card)
}
