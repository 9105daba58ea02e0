package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mingle/models"
	"mingle/notify"
)

type fakeStore struct {
	inserted []models.Notification
	failures int
}

func (f *fakeStore) InsertNotification(ctx context.Context, n models.Notification) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	f.inserted = append(f.inserted, n)
	return nil
}

type fakeResolver struct {
	members map[string][]string
}

func (f *fakeResolver) Members(ctx context.Context, communityID string) ([]string, error) {
	members, ok := f.members[communityID]
	if !ok {
		return nil, errors.New("community_not_found")
	}
	return members, nil
}

func TestProcessEventSingleRecipient(t *testing.T) {
	store := &fakeStore{}
	notifier := notify.New(store, &fakeResolver{}, nil)

	notifier.ProcessEvent(context.Background(), models.InteractionEvent{
		Kind:        models.NotificationLike,
		ActorID:     "u2",
		RecipientID: "u1",
		PostID:      "p1",
	})

	assert.Len(t, store.inserted, 1)
	assert.Equal(t, "u1", store.inserted[0].RecipientID)
	assert.Equal(t, "u2", store.inserted[0].ActorID)
	assert.Equal(t, models.NotificationLike, store.inserted[0].Kind)
}

func TestProcessEventSkipsSelfNotification(t *testing.T) {
	store := &fakeStore{}
	notifier := notify.New(store, &fakeResolver{}, nil)

	notifier.ProcessEvent(context.Background(), models.InteractionEvent{
		Kind:        models.NotificationLike,
		ActorID:     "u1",
		RecipientID: "u1",
		PostID:      "p1",
	})

	assert.Empty(t, store.inserted)
}

func TestProcessEventCommunityFanOut(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{members: map[string][]string{
		"science-tech": {"u1", "u2", "u3"},
	}}
	notifier := notify.New(store, resolver, nil)

	notifier.ProcessEvent(context.Background(), models.InteractionEvent{
		Kind:        models.NotificationCommunityPost,
		ActorID:     "u2",
		CommunityID: "science-tech",
		PostID:      "p1",
	})

	// One row per member, author excluded.
	assert.Len(t, store.inserted, 2)
	recipients := []string{store.inserted[0].RecipientID, store.inserted[1].RecipientID}
	assert.ElementsMatch(t, []string{"u1", "u3"}, recipients)
}

func TestProcessEventRetriesTransientFailures(t *testing.T) {
	store := &fakeStore{failures: 2}
	notifier := notify.New(store, &fakeResolver{}, nil)

	notifier.ProcessEvent(context.Background(), models.InteractionEvent{
		Kind:        models.NotificationComment,
		ActorID:     "u2",
		RecipientID: "u1",
	})

	assert.Len(t, store.inserted, 1)
}

func TestProcessEventDropsAfterRetries(t *testing.T) {
	store := &fakeStore{failures: 10}
	notifier := notify.New(store, &fakeResolver{}, nil)

	// Must not panic or propagate the failure.
	notifier.ProcessEvent(context.Background(), models.InteractionEvent{
		Kind:        models.NotificationComment,
		ActorID:     "u2",
		RecipientID: "u1",
	})

	assert.Empty(t, store.inserted)
}
