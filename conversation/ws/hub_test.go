package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/pubsub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransport struct{}

func (stubTransport) Subscribe(ctx context.Context, patterns ...string) (<-chan pubsub.Delivery, func() error) {
	ch := make(chan pubsub.Delivery)
	return ch, func() error { return nil }
}

func (stubTransport) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (stubTransport) Del(ctx context.Context, key string) error {
	return nil
}

func TestLeaveDoesNotBlockAfterHubStops(t *testing.T) {
	hub := NewHub(stubTransport{}, nil, logger.GetGlobal())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(runDone)
	}()

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on context cancellation")
	}

	client := &Client{Hub: hub, Channel: "user:7", Send: make(chan []byte, 1)}
	left := make(chan struct{})
	go func() {
		client.leave()
		close(left)
	}()

	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after hub stopped")
	}
}

func TestDispatchDeliversChatFrame(t *testing.T) {
	hub := NewHub(stubTransport{}, nil, logger.GetGlobal())

	client := &Client{Hub: hub, Channel: "user:7", Send: make(chan []byte, 1)}
	hub.addClient(client)

	hub.dispatch(pubsub.Delivery{Channel: "user:7", Payload: []byte(`{"content":"你好"}`)})

	select {
	case data := <-client.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "chat", frame.Type)
		assert.JSONEq(t, `{"content":"你好"}`, string(frame.Content))
	default:
		t.Fatal("no frame delivered")
	}
}

func TestDispatchDeliversErrorFrame(t *testing.T) {
	hub := NewHub(stubTransport{}, nil, logger.GetGlobal())

	client := &Client{Hub: hub, Channel: "user:7", Send: make(chan []byte, 1)}
	hub.addClient(client)

	hub.dispatch(pubsub.Delivery{Channel: "errors:user:7", Payload: []byte(`{"error":"delivery failed"}`)})

	select {
	case data := <-client.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "error", frame.Type)
	default:
		t.Fatal("no frame delivered")
	}
}

func TestDispatchIgnoresOtherChannels(t *testing.T) {
	hub := NewHub(stubTransport{}, nil, logger.GetGlobal())

	client := &Client{Hub: hub, Channel: "user:7", Send: make(chan []byte, 1)}
	hub.addClient(client)

	hub.dispatch(pubsub.Delivery{Channel: "user:8", Payload: []byte(`{}`)})

	assert.Empty(t, client.Send)
}
