package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-bot/wayfarer/internal/models"
)

var _ AdminRepo = (*PostgresAdminRepo)(nil)

// AdminRepo holds panel login identities. Admins are seeded out of band
// (see the -create-admin flag in main), never through the conversation.
type AdminRepo interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, username, passwordHash string) (*models.Admin, error)
}

type PostgresAdminRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresAdminRepo(db DB, logger *slog.Logger) *PostgresAdminRepo {
	return &PostgresAdminRepo{logger: logger, db: db}
}

func (r *PostgresAdminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	ctx, span := otel.Tracer("AdminRepo").Start(ctx, "GetByUsername", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "admins"),
	))
	defer span.End()

	var admin models.Admin
	err := r.db.QueryRow(ctx,
		"SELECT id, username, password_hash FROM admins WHERE username = $1",
		username,
	).Scan(&admin.ID, &admin.Username, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin %q: %w", username, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching admin: %w", err)
	}
	return &admin, nil
}

func (r *PostgresAdminRepo) Create(ctx context.Context, username, passwordHash string) (*models.Admin, error) {
	ctx, span := otel.Tracer("AdminRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "admins"),
	))
	defer span.End()

	admin := &models.Admin{Username: username, PasswordHash: passwordHash}
	err := r.db.QueryRow(ctx,
		"INSERT INTO admins (username, password_hash) VALUES ($1, $2) RETURNING id",
		username, passwordHash,
	).Scan(&admin.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("admin %q already exists: %w", username, ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating admin: %w", err)
	}

	r.logger.InfoContext(ctx, "Admin created", slog.String("username", username))
	return admin, nil
}
