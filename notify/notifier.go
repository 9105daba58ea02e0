// Package notify fans interaction events out to notification rows. The
// triggering request only publishes an event on the channel; everything
// here is fire-and-forget from its point of view, so a delivery failure
// can never fail or roll back the interaction that caused it.
package notify

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"mingle/models"
)

var (
	notificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mingle_notifications_delivered_total",
		Help: "Number of notification rows written",
	})
	notificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mingle_notifications_dropped_total",
		Help: "Number of notifications dropped after retries",
	})
	eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mingle_interaction_events_total",
		Help: "Number of interaction events consumed",
	})
)

// Store is the notification sink.
type Store interface {
	InsertNotification(ctx context.Context, notification models.Notification) error
}

// MemberResolver expands a community id into recipient user ids.
type MemberResolver interface {
	Members(ctx context.Context, communityID string) ([]string, error)
}

type Notifier struct {
	store    Store
	resolver MemberResolver
	events   chan models.InteractionEvent
}

func New(store Store, resolver MemberResolver, events chan models.InteractionEvent) *Notifier {
	return &Notifier{
		store:    store,
		resolver: resolver,
		events:   events,
	}
}

// Subscribe consumes the event channel until the context is cancelled or
// the channel is closed. Errors are logged and swallowed.
func (n *Notifier) Subscribe(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping notifier")
			return
		case event, ok := <-n.events:
			if !ok {
				log.Info("Event channel closed, stopping notifier")
				return
			}
			n.ProcessEvent(ctx, event)
		}
	}
}

// ProcessEvent writes one notification row per affected recipient.
func (n *Notifier) ProcessEvent(ctx context.Context, event models.InteractionEvent) {
	eventsProcessed.Inc()

	for _, recipient := range n.recipients(ctx, event) {
		notification := models.Notification{
			RecipientID: recipient,
			ActorID:     event.ActorID,
			Kind:        event.Kind,
			PostID:      event.PostID,
			CommentID:   event.CommentID,
		}

		insert := func() error {
			return n.store.InsertNotification(ctx, notification)
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

		if err := backoff.Retry(insert, policy); err != nil {
			notificationsDropped.Inc()
			log.WithFields(log.Fields{
				"kind":      event.Kind,
				"recipient": recipient,
				"error":     err,
			}).Error("Dropping notification after retries")
			continue
		}
		notificationsDelivered.Inc()
	}
}

// recipients resolves who a given event notifies. Actors never notify
// themselves.
func (n *Notifier) recipients(ctx context.Context, event models.InteractionEvent) []string {
	var recipients []string

	if event.Kind == models.NotificationCommunityPost && event.CommunityID != "" {
		members, err := n.resolver.Members(ctx, event.CommunityID)
		if err != nil {
			log.WithFields(log.Fields{
				"community": event.CommunityID,
				"error":     err,
			}).Error("Could not resolve community members")
			return nil
		}
		recipients = members
	} else if event.RecipientID != "" {
		recipients = []string{event.RecipientID}
	}

	return lo.Filter(recipients, func(recipient string, _ int) bool {
		return recipient != "" && recipient != event.ActorID
	})
}
