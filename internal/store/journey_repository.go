package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-bot/wayfarer/internal/models"
)

var _ JourneyRepo = (*PostgresJourneyRepo)(nil)

// JourneyRepo defines the contract for journey persistence. Titles are unique
// per owner; deleting a journey cascades to its locations and notes.
type JourneyRepo interface {
	// Create inserts a journey. Returns ErrConflict if the owner already has
	// a journey with this title.
	Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*models.Journey, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Journey, error)
	ListAll(ctx context.Context) ([]models.Journey, error)
	// GetByID retrieves a journey by primary key. Used by the panel only.
	GetByID(ctx context.Context, journeyID uuid.UUID) (*models.Journey, error)
	// GetByTitle retrieves a journey by the human-typed title within one
	// owner's journeys. Returns ErrNotFound when absent.
	GetByTitle(ctx context.Context, ownerID uuid.UUID, title string) (*models.Journey, error)
	// TitleTaken reports whether the owner already uses title on a journey
	// other than excluding (pass uuid.Nil when creating).
	TitleTaken(ctx context.Context, ownerID uuid.UUID, title string, excluding uuid.UUID) (bool, error)
	// Update mutates the fields set in params. Returns ErrConflict when a
	// title change collides with another journey of the same owner.
	Update(ctx context.Context, journeyID uuid.UUID, params UpdateJourneyParams) error
	Delete(ctx context.Context, journeyID uuid.UUID) error
}

type UpdateJourneyParams struct {
	Title       *string
	Description *string
}

type PostgresJourneyRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresJourneyRepo(db DB, logger *slog.Logger) *PostgresJourneyRepo {
	return &PostgresJourneyRepo{logger: logger, db: db}
}

func (r *PostgresJourneyRepo) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*models.Journey, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("owner_id", ownerID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM journeys WHERE owner_id = $1 AND title = $2)",
		ownerID, title).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error checking journey title: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("journey title %q already used: %w", title, ErrConflict)
	}

	journey := &models.Journey{OwnerID: ownerID, Title: title, Description: description}
	err = tx.QueryRow(ctx, `
        INSERT INTO journeys (owner_id, title, description)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`,
		ownerID, title, description,
	).Scan(&journey.ID, &journey.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("journey title %q already used: %w", title, ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert journey", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating journey: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error committing journey: %w", err)
	}

	l.InfoContext(ctx, "Journey created", slog.String("journey_id", journey.ID.String()))
	return journey, nil
}

func (r *PostgresJourneyRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Journey, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "ListByOwner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	return r.list(ctx, span,
		"SELECT id, owner_id, title, description, created_at FROM journeys WHERE owner_id = $1 ORDER BY created_at",
		ownerID)
}

func (r *PostgresJourneyRepo) ListAll(ctx context.Context) ([]models.Journey, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "ListAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	return r.list(ctx, span,
		"SELECT id, owner_id, title, description, created_at FROM journeys ORDER BY created_at")
}

func (r *PostgresJourneyRepo) list(ctx context.Context, span trace.Span, query string, args ...any) ([]models.Journey, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing journeys: %w", err)
	}
	defer rows.Close()

	var journeys []models.Journey
	for rows.Next() {
		var j models.Journey
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Title, &j.Description, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning journey: %w", err)
		}
		journeys = append(journeys, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating journeys: %w", err)
	}
	return journeys, nil
}

func (r *PostgresJourneyRepo) GetByID(ctx context.Context, journeyID uuid.UUID) (*models.Journey, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	var j models.Journey
	err := r.db.QueryRow(ctx,
		"SELECT id, owner_id, title, description, created_at FROM journeys WHERE id = $1",
		journeyID,
	).Scan(&j.ID, &j.OwnerID, &j.Title, &j.Description, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("journey %s: %w", journeyID, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching journey: %w", err)
	}
	return &j, nil
}

func (r *PostgresJourneyRepo) GetByTitle(ctx context.Context, ownerID uuid.UUID, title string) (*models.Journey, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "GetByTitle", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	var j models.Journey
	err := r.db.QueryRow(ctx,
		"SELECT id, owner_id, title, description, created_at FROM journeys WHERE owner_id = $1 AND title = $2",
		ownerID, title,
	).Scan(&j.ID, &j.OwnerID, &j.Title, &j.Description, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("journey titled %q: %w", title, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching journey by title: %w", err)
	}
	return &j, nil
}

func (r *PostgresJourneyRepo) TitleTaken(ctx context.Context, ownerID uuid.UUID, title string, excluding uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "TitleTaken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM journeys WHERE owner_id = $1 AND title = $2 AND id <> $3)",
		ownerID, title, excluding).Scan(&taken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return false, fmt.Errorf("database error checking journey title: %w", err)
	}
	return taken, nil
}

func (r *PostgresJourneyRepo) Update(ctx context.Context, journeyID uuid.UUID, params UpdateJourneyParams) error {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	if params.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *params.Title)
		argID++
	}
	if params.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *params.Description)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, journeyID)

	query := fmt.Sprintf("UPDATE journeys SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("journey title already used: %w", ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating journey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journey not found for update: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresJourneyRepo) Delete(ctx context.Context, journeyID uuid.UUID) error {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "journeys"),
	))
	defer span.End()

	// Locations and notes go with the journey via ON DELETE CASCADE.
	tag, err := r.db.Exec(ctx, "DELETE FROM journeys WHERE id = $1", journeyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting journey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journey not found for delete: %w", ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Journey deleted", slog.String("journey_id", journeyID.String()))
	return nil
}
