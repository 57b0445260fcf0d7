package conversation

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(env.engine, logger)

	t.Run("returns the engine reply as JSON", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"chat_id": testChatID, "username": "maria", "text": "/cancel",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleMessage(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var reply Reply
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
		require.Len(t, reply.Messages, 1)
		assert.Equal(t, msgActionCanceled, reply.Messages[0].Text)
		assert.Equal(t, defaultKeyboard, reply.SuggestedReplies)
	})

	t.Run("missing chat_id is a 400", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"username": "maria", "text": "hi"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleMessage(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
			bytes.NewReader([]byte(`{"chat_id":42,"surprise":true}`)))
		rec := httptest.NewRecorder()

		handler.HandleMessage(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
