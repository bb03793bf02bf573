package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justicerollon/internal/platform/kafka"
	id "justicerollon/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherFillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	actor := id.NewUserID()
	err := pub.Emit(ctx, Event{
		ActorID: actor,
		Subject: "petition:abc",
		Action:  string(EventPetitionPublished),
	})
	require.NoError(t, err)

	events, err := store.ListByActor(ctx, actor)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEventCategories(t *testing.T) {
	assert.Equal(t, CategorySecurity, EventLoginFailed.Category())
	assert.Equal(t, CategoryCompliance, EventEvidenceRejected.Category())
	assert.Equal(t, CategoryOperations, EventSlotBooked.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

func TestInMemoryStoreListRecent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, action := range []string{"first", "second", "third"} {
		require.NoError(t, store.Append(ctx, Event{Action: action, Timestamp: time.Now()}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "third", events[0].Action)
	assert.Equal(t, "second", events[1].Action)

	all, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWorkerDrainsInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	pub := NewChannelPublisher(inbox, discardLogger())
	worker := NewWorker(store, inbox, discardLogger())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	actor := id.NewUserID()
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(ctx, Event{
			ActorID: actor,
			Subject: "petition:abc",
			Action:  string(EventPetitionSubmitted),
		}))
	}

	require.Eventually(t, func() bool {
		events, err := store.ListByActor(context.Background(), actor)
		return err == nil && len(events) == 5
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestChannelPublisherDropsUnderBackpressure(t *testing.T) {
	ctx := context.Background()
	inbox := make(chan Event, 1)
	pub := NewChannelPublisher(inbox, discardLogger())

	require.NoError(t, pub.Emit(ctx, Event{Action: "kept"}))
	// No worker is draining, so the second emit must not block.
	require.NoError(t, pub.Emit(ctx, Event{Action: "dropped"}))

	assert.Len(t, inbox, 1)
}

func TestConsumerHandlerRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	handler := NewConsumerHandler(store, discardLogger())

	actor := id.NewUserID()
	payload, err := json.Marshal(wirePayload{
		Category:  string(CategoryCompliance),
		Timestamp: time.Now().Format(time.RFC3339Nano),
		ActorID:   actor.String(),
		Subject:   "petition:abc",
		Action:    string(EventPetitionRejectedByLawyer),
		Reason:    "missing notarization",
	})
	require.NoError(t, err)

	err = handler.Handle(ctx, &kafka.Message{Topic: "audit", Value: payload})
	require.NoError(t, err)

	events, err := store.ListByActor(ctx, actor)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventPetitionRejectedByLawyer), events[0].Action)
	assert.Equal(t, "missing notarization", events[0].Reason)
	assert.Equal(t, CategoryCompliance, events[0].Category)
}

func TestConsumerHandlerSystemEvent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	handler := NewConsumerHandler(store, discardLogger())

	payload, err := json.Marshal(wirePayload{
		Category: string(CategoryOperations),
		Subject:  "petition:abc",
		Action:   string(EventPetitionSubmitted),
	})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, &kafka.Message{Topic: "audit", Value: payload}))

	events, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].ActorID.IsNil())
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestConsumerHandlerSkipsMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	handler := NewConsumerHandler(store, discardLogger())

	// Malformed payloads are committed, not retried.
	require.NoError(t, handler.Handle(ctx, &kafka.Message{Topic: "audit", Value: []byte("{not json")}))
	require.NoError(t, handler.Handle(ctx, &kafka.Message{Topic: "audit", Value: []byte(`{"actor_id":"not-a-uuid","action":"x"}`)}))

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
