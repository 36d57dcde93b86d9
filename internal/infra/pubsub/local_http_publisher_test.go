package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"casthub/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHTTPPublisher_PublishAccountEvent(t *testing.T) {
	var received PubSubPushMessage
	var requestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := &service.AccountEvent{
		RequestID:     "req-123",
		Type:          service.EventAccountReparented,
		UserUUID:      "3e0b0a44-0000-0000-0000-000000000000",
		Email:         "streamer@example.com",
		PriorProvider: "twitch",
		NewProvider:   "google",
	}

	err := publisher.PublishAccountEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "req-123", requestID)
	assert.Equal(t, service.EventAccountReparented, received.Message.Attributes["type"])
	assert.Equal(t, event.UserUUID, received.Message.Attributes["user_uuid"])
	assert.Equal(t, "req-123", received.Message.Attributes["request_id"])

	payload, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)

	var decoded service.AccountEvent
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, *event, decoded)
}

func TestLocalHTTPPublisher_ConsumerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := publisher.PublishAccountEvent(context.Background(), &service.AccountEvent{Type: service.EventAccountReparented})
	require.Error(t, err)
}
