package conversation

import (
	"log/slog"
	"net/http"

	"github.com/wayfarer-bot/wayfarer/internal/api"
)

// Handler exposes the engine over HTTP for the transport bridge.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// HandleMessage accepts one chat message and returns the engine's reply.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req api.MessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ChatID == 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "chat_id is required")
		return
	}

	reply := h.engine.HandleMessage(r.Context(), Inbound{
		ChatID:   req.ChatID,
		Username: req.Username,
		Text:     req.Text,
	})
	api.WriteJSONResponse(w, r, http.StatusOK, reply)
}
