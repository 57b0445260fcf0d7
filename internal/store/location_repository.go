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

var _ LocationRepo = (*PostgresLocationRepo)(nil)

// LocationRepo defines the contract for location persistence. There is no
// user-facing numeric ID: the conversation addresses a location by the
// (place, date_start, date_end) triple, unique within its journey.
type LocationRepo interface {
	// Create inserts a location. Returns ErrConflict when the journey already
	// has a location with the same (place, date_start, date_end) triple.
	Create(ctx context.Context, journeyID uuid.UUID, params CreateLocationParams) (*models.Location, error)
	// ListByJourney returns the journey's locations ordered by date_start.
	ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Location, error)
	// GetByKey looks a location up by its triple. Returns ErrNotFound when absent.
	GetByKey(ctx context.Context, journeyID uuid.UUID, place string, dateStart, dateEnd time.Time) (*models.Location, error)
	// Update mutates the fields set in params. Returns ErrConflict when the
	// change would duplicate another location's triple.
	Update(ctx context.Context, locationID uuid.UUID, params UpdateLocationParams) error
	Delete(ctx context.Context, locationID uuid.UUID) error
}

type CreateLocationParams struct {
	Place     string
	Lat       float64
	Lon       float64
	DateStart time.Time
	DateEnd   time.Time
}

type UpdateLocationParams struct {
	Place     *string
	Lat       *float64
	Lon       *float64
	DateStart *time.Time
	DateEnd   *time.Time
}

type PostgresLocationRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresLocationRepo(db DB, logger *slog.Logger) *PostgresLocationRepo {
	return &PostgresLocationRepo{logger: logger, db: db}
}

func (r *PostgresLocationRepo) Create(ctx context.Context, journeyID uuid.UUID, params CreateLocationParams) (*models.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("journey_id", journeyID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var exists bool
	err = tx.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM locations
        WHERE journey_id = $1 AND place = $2 AND date_start = $3 AND date_end = $4)`,
		journeyID, params.Place, params.DateStart, params.DateEnd).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error checking location: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("location %q with these dates already planned: %w", params.Place, ErrConflict)
	}

	loc := &models.Location{
		JourneyID: journeyID,
		Place:     params.Place,
		Lat:       params.Lat,
		Lon:       params.Lon,
		DateStart: params.DateStart,
		DateEnd:   params.DateEnd,
	}
	err = tx.QueryRow(ctx, `
        INSERT INTO locations (journey_id, place, lat, lon, date_start, date_end)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`,
		journeyID, params.Place, params.Lat, params.Lon, params.DateStart, params.DateEnd,
	).Scan(&loc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("location %q with these dates already planned: %w", params.Place, ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating location: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error committing location: %w", err)
	}

	l.InfoContext(ctx, "Location created", slog.String("location_id", loc.ID.String()))
	return loc, nil
}

func (r *PostgresLocationRepo) ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "ListByJourney", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	rows, err := r.db.Query(ctx, `
        SELECT id, journey_id, place, lat, lon, date_start, date_end
        FROM locations WHERE journey_id = $1 ORDER BY date_start`,
		journeyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.JourneyID, &loc.Place, &loc.Lat, &loc.Lon,
			&loc.DateStart, &loc.DateEnd); err != nil {
			return nil, fmt.Errorf("database error scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating locations: %w", err)
	}
	return locations, nil
}

func (r *PostgresLocationRepo) GetByKey(ctx context.Context, journeyID uuid.UUID, place string, dateStart, dateEnd time.Time) (*models.Location, error) {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "GetByKey", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	var loc models.Location
	err := r.db.QueryRow(ctx, `
        SELECT id, journey_id, place, lat, lon, date_start, date_end
        FROM locations
        WHERE journey_id = $1 AND place = $2 AND date_start = $3 AND date_end = $4`,
		journeyID, place, dateStart, dateEnd,
	).Scan(&loc.ID, &loc.JourneyID, &loc.Place, &loc.Lat, &loc.Lon, &loc.DateStart, &loc.DateEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location %q: %w", place, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching location: %w", err)
	}
	return &loc, nil
}

func (r *PostgresLocationRepo) Update(ctx context.Context, locationID uuid.UUID, params UpdateLocationParams) error {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	addClause := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if params.Place != nil {
		addClause("place", *params.Place)
	}
	if params.Lat != nil {
		addClause("lat", *params.Lat)
	}
	if params.Lon != nil {
		addClause("lon", *params.Lon)
	}
	if params.DateStart != nil {
		addClause("date_start", *params.DateStart)
	}
	if params.DateEnd != nil {
		addClause("date_end", *params.DateEnd)
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, locationID)

	query := fmt.Sprintf("UPDATE locations SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("location with these dates already planned: %w", ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("location not found for update: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresLocationRepo) Delete(ctx context.Context, locationID uuid.UUID) error {
	ctx, span := otel.Tracer("LocationRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "locations"),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM locations WHERE id = $1", locationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("location not found for delete: %w", ErrNotFound)
	}
	return nil
}
