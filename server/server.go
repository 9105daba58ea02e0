package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"mingle/communities"
	"mingle/db"
	"mingle/lang"
	"mingle/models"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mingle_http_requests_total",
	Help: "Number of HTTP requests by method and status",
}, []string{"method", "status"})

type ServerConfig struct {

	// Storage for posts, comments, snapshots, profiles and notifications
	Store *db.Store

	// Community catalog and membership resolution
	Resolver *communities.Resolver

	// Language tagging for new posts; optional
	Detector *lang.Detector

	// Interaction events published to the notifier
	Events chan models.InteractionEvent

	// Broadcast channels to pass events to SSE clients
	Broadcaster *Broadcaster
}

// Make it sync
type Broadcaster struct {
	sync.RWMutex
	eventClients map[string]chan models.InteractionEvent
}

// Constructor
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		eventClients: make(map[string]chan models.InteractionEvent, 10000),
	}
}

func (b *Broadcaster) Broadcast(event models.InteractionEvent) {
	b.RLock()
	defer b.RUnlock()

	for id, client := range b.eventClients {
		select {
		case client <- event: // Non-blocking send
		default:
			log.Warnf("Client channel full, skipping event for client: %v", id)
		}
	}
}

// Function to add a client to the broadcaster
func (b *Broadcaster) AddClient(key string, eventClient chan models.InteractionEvent) {
	b.Lock()
	defer b.Unlock()
	b.eventClients[key] = eventClient
	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.eventClients),
	}).Info("Adding client to broadcaster")
}

// Function to remove a client from the broadcaster
func (b *Broadcaster) RemoveClient(key string) {
	b.Lock()
	defer b.Unlock()

	if client, ok := b.eventClients[key]; ok { // Check if the client exists
		close(client)                 // Safely close the channel
		delete(b.eventClients, key)   // Remove from the map
	}

	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.eventClients),
	}).Info("Removed client from broadcaster")
}

func (b *Broadcaster) Shutdown() {
	log.Info("Shutting down broadcaster")
	b.Lock()
	defer b.Unlock()
	for key, client := range b.eventClients {
		close(client)
		delete(b.eventClients, key)
	}
}

// handlers carries the shared dependencies of all route handlers.
type handlers struct {
	store       *db.Store
	resolver    *communities.Resolver
	detector    *lang.Detector
	events      chan models.InteractionEvent
	broadcaster *Broadcaster
}

// emit publishes an interaction event after the triggering write has
// committed. The send never blocks the request: if the notifier cannot
// keep up the event is dropped and logged.
func (h *handlers) emit(event models.InteractionEvent) {
	if h.events != nil {
		select {
		case h.events <- event:
		default:
			log.WithFields(log.Fields{
				"kind": event.Kind,
			}).Warn("Event channel full, dropping event")
		}
	}
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(event)
	}
}

// userID returns the acting user supplied by the auth middleware.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// requireUser is the auth boundary: upstream middleware is trusted to have
// verified the identity carried in X-User-Id.
func requireUser(c *fiber.Ctx) error {
	id := c.Get("X-User-Id")
	if id == "" {
		return failJSON(c, fiber.StatusForbidden, "forbidden")
	}
	c.Locals("userID", id)
	return c.Next()
}

// Returns a fiber.App instance to be used as the HTTP server for mingle
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	h := &handlers{
		store:       config.Store,
		resolver:    config.Resolver,
		detector:    config.Detector,
		events:      config.Events,
		broadcaster: config.Broadcaster,
	}

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		requestsTotal.WithLabelValues(c.Method(), strconv.Itoa(c.Response().StatusCode())).Inc()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Content-Type, X-User-Id",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h.registerRoutes(app)

	return app
}
