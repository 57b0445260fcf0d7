// Package panel serves the read-only administration endpoints: login plus
// listings of the persisted users and journeys.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	appMiddleware "github.com/wayfarer-bot/wayfarer/app/middleware"
	"github.com/wayfarer-bot/wayfarer/config"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// JourneyDetail is one journey with everything attached to it.
type JourneyDetail struct {
	Journey   models.Journey    `json:"journey"`
	Locations []models.Location `json:"locations"`
	Notes     []models.Note     `json:"notes"`
}

type Service struct {
	logger *slog.Logger

	admins    store.AdminRepo
	users     store.UserRepo
	journeys  store.JourneyRepo
	locations store.LocationRepo
	notes     store.NoteRepo

	jwtCfg config.JWTConfig
}

func NewService(
	admins store.AdminRepo,
	users store.UserRepo,
	journeys store.JourneyRepo,
	locations store.LocationRepo,
	notes store.NoteRepo,
	jwtCfg config.JWTConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		logger:    logger,
		admins:    admins,
		users:     users,
		journeys:  journeys,
		locations: locations,
		notes:     notes,
		jwtCfg:    jwtCfg,
	}
}

// Login checks the credentials against the stored bcrypt hash and issues a
// signed bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("loading admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := appMiddleware.Claims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   admin.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListAll(ctx)
}

func (s *Service) ListJourneys(ctx context.Context) ([]models.Journey, error) {
	return s.journeys.ListAll(ctx)
}

// JourneyDetail loads one journey with its locations and notes.
func (s *Service) JourneyDetail(ctx context.Context, journeyID uuid.UUID) (*JourneyDetail, error) {
	journey, err := s.journeys.GetByID(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	locations, err := s.locations.ListByJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	return &JourneyDetail{Journey: *journey, Locations: locations, Notes: notes}, nil
}
