package live

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func connect(hub *Hub, topics ...string) *Client {
	subscription := make(map[string]struct{})
	for _, name := range topics {
		subscription[name] = struct{}{}
	}
	client := &Client{hub: hub, send: make(chan Event, 16), topics: subscription}
	hub.register <- client
	return client
}

func waitEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case event := <-client.send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub, cancel := newTestHub(t)
	defer cancel()

	client := connect(hub, TopicPosts)
	hub.Publish(TopicPosts, "created", "p1")

	event := waitEvent(t, client)
	if event.Topic != TopicPosts || event.Action != "created" || event.ID != "p1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.At.IsZero() {
		t.Fatal("expected event timestamp to be set")
	}
}

func TestPublishFiltersByTopic(t *testing.T) {
	hub, cancel := newTestHub(t)
	defer cancel()

	posts := connect(hub, TopicPosts)
	videos := connect(hub, TopicVideos)

	hub.Publish(TopicVideos, "created", "v1")

	event := waitEvent(t, videos)
	if event.ID != "v1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	select {
	case event := <-posts.send:
		t.Fatalf("posts subscriber received foreign event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptySubscriptionReceivesEverything(t *testing.T) {
	hub, cancel := newTestHub(t)
	defer cancel()

	client := connect(hub)
	hub.Publish(TopicSections, "deleted", "s1")
	hub.Publish(TopicUsers, "updated", "u1")

	if event := waitEvent(t, client); event.Topic != TopicSections {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event := waitEvent(t, client); event.Topic != TopicUsers {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	hub, cancel := newTestHub(t)
	client := connect(hub, TopicFeed)

	cancel()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel to be closed without events")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}
