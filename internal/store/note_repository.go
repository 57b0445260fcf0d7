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

var _ NoteRepo = (*PostgresNoteRepo)(nil)

// NoteRepo defines the contract for note persistence. Note titles are unique
// within their journey and are how the conversation addresses a note.
type NoteRepo interface {
	// Create inserts a note. Returns ErrConflict when the journey already has
	// a note with this title.
	Create(ctx context.Context, journeyID uuid.UUID, title, content string) (*models.Note, error)
	ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Note, error)
	// GetByTitle retrieves a note by title within a journey. Returns
	// ErrNotFound when absent.
	GetByTitle(ctx context.Context, journeyID uuid.UUID, title string) (*models.Note, error)
	// TitleTaken reports whether the journey already uses title on a note
	// other than excluding (pass uuid.Nil when creating).
	TitleTaken(ctx context.Context, journeyID uuid.UUID, title string, excluding uuid.UUID) (bool, error)
	Update(ctx context.Context, noteID uuid.UUID, params UpdateNoteParams) error
	Delete(ctx context.Context, noteID uuid.UUID) error
}

type UpdateNoteParams struct {
	Title   *string
	Content *string
}

type PostgresNoteRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresNoteRepo(db DB, logger *slog.Logger) *PostgresNoteRepo {
	return &PostgresNoteRepo{logger: logger, db: db}
}

func (r *PostgresNoteRepo) Create(ctx context.Context, journeyID uuid.UUID, title, content string) (*models.Note, error) {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
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
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM notes WHERE journey_id = $1 AND title = $2)",
		journeyID, title).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error checking note title: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("note title %q already used: %w", title, ErrConflict)
	}

	note := &models.Note{JourneyID: journeyID, Title: title, Content: content}
	err = tx.QueryRow(ctx, `
        INSERT INTO notes (journey_id, title, content)
        VALUES ($1, $2, $3)
        RETURNING id`,
		journeyID, title, content,
	).Scan(&note.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("note title %q already used: %w", title, ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert note", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating note: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error committing note: %w", err)
	}

	l.InfoContext(ctx, "Note created", slog.String("note_id", note.ID.String()))
	return note, nil
}

func (r *PostgresNoteRepo) ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Note, error) {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "ListByJourney", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
	))
	defer span.End()

	rows, err := r.db.Query(ctx,
		"SELECT id, journey_id, title, content FROM notes WHERE journey_id = $1 ORDER BY title",
		journeyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.JourneyID, &n.Title, &n.Content); err != nil {
			return nil, fmt.Errorf("database error scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating notes: %w", err)
	}
	return notes, nil
}

func (r *PostgresNoteRepo) GetByTitle(ctx context.Context, journeyID uuid.UUID, title string) (*models.Note, error) {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "GetByTitle", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
	))
	defer span.End()

	var n models.Note
	err := r.db.QueryRow(ctx,
		"SELECT id, journey_id, title, content FROM notes WHERE journey_id = $1 AND title = $2",
		journeyID, title,
	).Scan(&n.ID, &n.JourneyID, &n.Title, &n.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("note titled %q: %w", title, ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching note: %w", err)
	}
	return &n, nil
}

func (r *PostgresNoteRepo) TitleTaken(ctx context.Context, journeyID uuid.UUID, title string, excluding uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "TitleTaken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
	))
	defer span.End()

	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM notes WHERE journey_id = $1 AND title = $2 AND id <> $3)",
		journeyID, title, excluding).Scan(&taken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return false, fmt.Errorf("database error checking note title: %w", err)
	}
	return taken, nil
}

func (r *PostgresNoteRepo) Update(ctx context.Context, noteID uuid.UUID, params UpdateNoteParams) error {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
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
	if params.Content != nil {
		setClauses = append(setClauses, fmt.Sprintf("content = $%d", argID))
		args = append(args, *params.Content)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, noteID)

	query := fmt.Sprintf("UPDATE notes SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("note title already used: %w", ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note not found for update: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresNoteRepo) Delete(ctx context.Context, noteID uuid.UUID) error {
	ctx, span := otel.Tracer("NoteRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "notes"),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM notes WHERE id = $1", noteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note not found for delete: %w", ErrNotFound)
	}
	return nil
}
