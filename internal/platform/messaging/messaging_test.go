package messaging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	eventsv1 "payparty/contracts/gen/events/v1"
)

func TestEventSubject(t *testing.T) {
	if got := EventSubject("events.", "party.ballot.cast"); got != "events.party.ballot.cast" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := EventSubject("", "party.election.paid"); got != "events.party.election.paid" {
		t.Fatalf("expected default prefix, got %q", got)
	}
}

func TestStreamSubjectsCoverEveryPartyEvent(t *testing.T) {
	subjects := StreamSubjects("party")
	if len(subjects) != len(eventsv1.PartyEventTypes) {
		t.Fatalf("expected %d subjects, got %d", len(eventsv1.PartyEventTypes), len(subjects))
	}
	if subjects[0] != "party."+eventsv1.PartyEventTypes[0] {
		t.Fatalf("unexpected first subject %q", subjects[0])
	}
}

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan eventsv1.Envelope, 1)
	if err := bus.Subscribe(ctx, eventsv1.EventBallotCast, "test", func(_ context.Context, event eventsv1.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, eventsv1.EventElectionClosed, eventsv1.Envelope{EventID: "other"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.Publish(ctx, eventsv1.EventBallotCast, eventsv1.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestBusHandlerErrorDoesNotStopSubscription(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 2)
	_ = bus.Subscribe(ctx, "topic", "test", func(_ context.Context, event eventsv1.Envelope) error {
		calls <- event.EventID
		return errors.New("handler failed")
	})
	_ = bus.Publish(ctx, "topic", eventsv1.Envelope{EventID: "a"})
	_ = bus.Publish(ctx, "topic", eventsv1.Envelope{EventID: "b"})

	for _, want := range []string{"a", "b"} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
