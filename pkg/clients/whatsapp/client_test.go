package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/config"
)

func TestAPIClient_SendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{
		AccessToken:   "tok",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "8613800000000", Body: "weekly report"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", resp.MessageID())

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "8613800000000", got["to"])
	text, ok := got["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "weekly report", text["body"])
}

func TestAPIClient_ErrorPayload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "tok", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, "Invalid parameter", apiErr.Message)
	// client errors are not retried
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "tok", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.2", resp.MessageID())
	assert.Equal(t, int32(2), calls.Load())
}
