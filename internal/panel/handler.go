package panel

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarer-bot/wayfarer/internal/api"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.ErrorContext(r.Context(), "Panel login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.LoginResponse{Token: token})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Listing users failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

func (h *Handler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	journeys, err := h.service.ListJourneys(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Listing journeys failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, journeys)
}

func (h *Handler) JourneyDetail(w http.ResponseWriter, r *http.Request) {
	journeyID, err := uuid.Parse(chi.URLParam(r, "journeyID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid journey id")
		return
	}

	detail, err := h.service.JourneyDetail(r.Context(), journeyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "journey not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Loading journey detail failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, detail)
}
