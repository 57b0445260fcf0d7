package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-bot/wayfarer/internal/models"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user persistence. The conversation engine
// is the only writer; the panel reads through ListAll.
type UserRepo interface {
	// Create inserts a new user. Returns ErrConflict if the chat identity is
	// already signed up.
	Create(ctx context.Context, params CreateUserParams) (*models.User, error)
	// GetByChatID retrieves a user by the transport identity.
	// Returns ErrNotFound if no such user exists.
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	// Update mutates the fields set in params. Nil fields are left untouched.
	Update(ctx context.Context, userID uuid.UUID, params UpdateUserParams) error
}

type CreateUserParams struct {
	ChatID         int64
	Username       string
	Age            int
	LivingLocation string
	Lat            float64
	Lon            float64
	Bio            string
}

type UpdateUserParams struct {
	Age            *int
	LivingLocation *string
	Lat            *float64
	Lon            *float64
	Bio            *string
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresUserRepo(db DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{logger: logger, db: db}
}

func (r *PostgresUserRepo) Create(ctx context.Context, params CreateUserParams) (*models.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.Int64("chat_id", params.ChatID))

	user := &models.User{
		ChatID:         params.ChatID,
		Username:       params.Username,
		Age:            params.Age,
		LivingLocation: params.LivingLocation,
		Lat:            params.Lat,
		Lon:            params.Lon,
		Bio:            params.Bio,
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO users (chat_id, username, age, living_location, lat, lon, bio)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`,
		params.ChatID, params.Username, params.Age, params.LivingLocation,
		params.Lat, params.Lon, params.Bio,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user already signed up: %w", ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (r *PostgresUserRepo) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetByChatID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var user models.User
	err := r.db.QueryRow(ctx, `
        SELECT id, chat_id, username, age, living_location, lat, lon, bio, created_at, updated_at
        FROM users WHERE chat_id = $1`,
		chatID,
	).Scan(&user.ID, &user.ChatID, &user.Username, &user.Age, &user.LivingLocation,
		&user.Lat, &user.Lon, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with chat id %d: %w", chatID, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	rows, err := r.db.Query(ctx, `
        SELECT id, chat_id, username, age, living_location, lat, lon, bio, created_at, updated_at
        FROM users ORDER BY username`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.ChatID, &user.Username, &user.Age,
			&user.LivingLocation, &user.Lat, &user.Lon, &user.Bio,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, userID uuid.UUID, params UpdateUserParams) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Update"), slog.String("user_id", userID.String()))

	var setClauses []string
	var args []any
	argID := 1

	addClause := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if params.Age != nil {
		addClause("age", *params.Age)
	}
	if params.LivingLocation != nil {
		addClause("living_location", *params.LivingLocation)
	}
	if params.Lat != nil {
		addClause("lat", *params.Lat)
	}
	if params.Lon != nil {
		addClause("lon", *params.Lon)
	}
	if params.Bio != nil {
		addClause("bio", *params.Bio)
	}
	if len(setClauses) == 0 {
		l.WarnContext(ctx, "Update called with no fields to update")
		return nil
	}

	addClause("updated_at", time.Now())
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to execute user update", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found for update: %w", ErrNotFound)
	}

	l.InfoContext(ctx, "User updated")
	return nil
}
