package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"mingle/models"
)

func (h *handlers) registerRoutes(app *fiber.App) {
	app.Get("/feed", h.getFeed)
	app.Get("/events", h.streamEvents)
	app.Delete("/events", h.dropEventClient)

	app.Post("/posts", requireUser, h.createPost)
	app.Get("/posts/:id", h.getPost)
	app.Delete("/posts/:id", requireUser, h.deletePost)

	app.Post("/posts/:id/like", requireUser, h.likePost)
	app.Delete("/posts/:id/like", requireUser, h.unlikePost)
	app.Post("/posts/:id/bookmark", requireUser, h.bookmarkPost)
	app.Delete("/posts/:id/bookmark", requireUser, h.unbookmarkPost)
	app.Post("/posts/:id/share", requireUser, h.sharePost)
	app.Post("/posts/:id/repost", requireUser, h.createRepost)
	app.Delete("/posts/:id/repost", requireUser, h.undoRepost)

	app.Post("/posts/:id/comments", requireUser, h.createComment)
	app.Get("/posts/:id/comments", h.listComments)
	app.Post("/comments/:id/like", requireUser, h.likeComment)
	app.Delete("/comments/:id/like", requireUser, h.unlikeComment)
	app.Delete("/comments/:id", requireUser, h.deleteComment)

	app.Get("/communities", h.listCommunities)
	app.Get("/communities/:id", h.getCommunity)
	app.Get("/communities/:id/members/count", h.memberCount)
	app.Get("/communities/:id/feed", h.communityFeed)
	app.Post("/communities/:id/posts", requireUser, h.createCommunityPost)

	app.Get("/notifications", requireUser, h.listNotifications)
	app.Post("/notifications/:id/read", requireUser, h.markNotificationRead)

	app.Put("/profiles", requireUser, h.upsertProfile)
	app.Get("/profiles/:id", h.getProfile)
}

func (h *handlers) dropEventClient(c *fiber.Ctx) error {
	key := c.Query("key", "")
	h.broadcaster.RemoveClient(key)
	return okJSON(c, "removed")
}

// streamEvents pushes interaction events to the client as server-sent
// events, with keep-alive pings.
func (h *handlers) streamEvents(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	// Unique client key
	key := uuid.New().String()
	eventChannel := make(chan models.InteractionEvent, 10) // Buffered channel
	aliveChan := time.NewTicker(5 * time.Second)

	defer aliveChan.Stop()

	// Register the client
	h.broadcaster.AddClient(key, eventChannel)

	// Cleanup function
	cleanup := func() {
		log.Infof("Cleaning up SSE stream for client: %s", key)
		h.broadcaster.RemoveClient(key)
	}

	// Use StreamWriter to manage SSE streaming
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		// Send initial event with client key
		fmt.Fprintf(w, "event: init\ndata: %s\n\n", key)
		if err := w.Flush(); err != nil {
			log.Errorf("Failed to send init event: %v", err)
			return
		}

		// Start streaming loop
		for {
			select {
			case <-aliveChan.C:
				// Send keep-alive pings
				if _, err := fmt.Fprintf(w, "event: ping\ndata: \n\n"); err != nil {
					log.Warnf("Failed to send ping to client %s: %v", key, err)
					return
				}
				if err := w.Flush(); err != nil {
					log.Warnf("Failed to flush ping for client %s: %v", key, err)
					return
				}

			case event, ok := <-eventChannel:
				if !ok {
					log.Warnf("Event channel closed for client %s", key)
					return
				}
				jsonEvent, err := json.Marshal(event)
				if err != nil {
					log.Errorf("Error marshalling event for client %s: %v", key, err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: interaction\ndata: %s\n\n", jsonEvent); err != nil {
					log.Warnf("Failed to send interaction event to client %s: %v", key, err)
					return
				}
				if err := w.Flush(); err != nil {
					log.Warnf("Failed to flush interaction event for client %s: %v", key, err)
					return
				}
			}
		}
	}))

	return nil
}
