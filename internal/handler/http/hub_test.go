package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

func testEvent(table, id string) models.ChangeEvent {
	return models.ChangeEvent{
		Table:     table,
		RecordID:  id,
		Op:        models.OpUpsert,
		UpdatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

// TestHub_PublishReachesOwnSubscribersOnly verifies that events fan out to
// every subscriber of the publishing account and to nobody else.
func TestHub_PublishReachesOwnSubscribersOnly(t *testing.T) {
	hub := NewHub(logger.Nop())

	first := hub.subscribe(1)
	second := hub.subscribe(1)
	other := hub.subscribe(2)

	hub.Publish(1, testEvent(models.TableQuests, "q-1"))

	for _, sub := range []*subscriber{first, second} {
		select {
		case got := <-sub.events:
			assert.Equal(t, "q-1", got.RecordID)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	select {
	case <-other.events:
		t.Fatal("event leaked to another account's subscriber")
	default:
	}
}

// TestHub_PublishSkipsFullSubscriber verifies that a subscriber with a full
// queue is skipped instead of blocking the publisher.
func TestHub_PublishSkipsFullSubscriber(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.subscribe(1)

	for i := 0; i < subscriberBuffer+3; i++ {
		hub.Publish(1, testEvent(models.TableCheckins, "c-1"))
	}

	assert.Len(t, sub.events, subscriberBuffer)
}

// TestHub_Unsubscribe verifies removal and that a second unsubscribe of the
// same connection is harmless.
func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.subscribe(1)

	require.Equal(t, 1, hub.subscriberCount(1))

	hub.unsubscribe(sub)
	assert.Equal(t, 0, hub.subscriberCount(1))

	hub.unsubscribe(sub)
	assert.Equal(t, 0, hub.subscriberCount(1))

	hub.Publish(1, testEvent(models.TableQuests, "q-1"))
	assert.Empty(t, sub.events)
}
