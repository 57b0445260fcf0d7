package store

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJourneyRepo(t *testing.T) (*PostgresJourneyRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresJourneyRepo(mockPool, logger), mockPool
}

func TestJourneyRepoCreate(t *testing.T) {
	ownerID := uuid.New()

	t.Run("inserts when the title is free", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)
		journeyID := uuid.New()
		createdAt := time.Now()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM journeys WHERE owner_id = $1 AND title = $2)")).
			WithArgs(ownerID, "Summer 2026").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO journeys")).
			WithArgs(ownerID, "Summer 2026", "Beaches").
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(journeyID, createdAt))
		mockPool.ExpectCommit()

		journey, err := repo.Create(context.Background(), ownerID, "Summer 2026", "Beaches")
		require.NoError(t, err)
		assert.Equal(t, journeyID, journey.ID)
		assert.Equal(t, "Summer 2026", journey.Title)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("returns ErrConflict when the title is taken", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(ownerID, "Summer 2026").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.Create(context.Background(), ownerID, "Summer 2026", "Beaches")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("maps a racing unique violation to ErrConflict", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(ownerID, "Summer 2026").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO journeys")).
			WithArgs(ownerID, "Summer 2026", "Beaches").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.Create(context.Background(), ownerID, "Summer 2026", "Beaches")
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestJourneyRepoGetByTitle(t *testing.T) {
	ownerID := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)
		journeyID := uuid.New()

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, title, description, created_at FROM journeys WHERE owner_id = $1 AND title = $2")).
			WithArgs(ownerID, "Italy").
			WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "title", "description", "created_at"}).
				AddRow(journeyID, ownerID, "Italy", "south", time.Now()))

		journey, err := repo.GetByTitle(context.Background(), ownerID, "Italy")
		require.NoError(t, err)
		assert.Equal(t, journeyID, journey.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, title, description, created_at FROM journeys")).
			WithArgs(ownerID, "Atlantis").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByTitle(context.Background(), ownerID, "Atlantis")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestJourneyRepoTitleTaken(t *testing.T) {
	repo, mockPool := newJourneyRepo(t)
	ownerID := uuid.New()
	excluding := uuid.New()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM journeys WHERE owner_id = $1 AND title = $2 AND id <> $3)")).
		WithArgs(ownerID, "Italy", excluding).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.TitleTaken(context.Background(), ownerID, "Italy", excluding)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestJourneyRepoUpdate(t *testing.T) {
	journeyID := uuid.New()

	t.Run("updates only the set fields", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)
		title := "New title"

		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE journeys SET title = $1 WHERE id = $2")).
			WithArgs(title, journeyID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(context.Background(), journeyID, UpdateJourneyParams{Title: &title})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("no-op without fields", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)

		err := repo.Update(context.Background(), journeyID, UpdateJourneyParams{})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing journey maps to ErrNotFound", func(t *testing.T) {
		repo, mockPool := newJourneyRepo(t)
		desc := "x"

		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE journeys SET description = $1 WHERE id = $2")).
			WithArgs(desc, journeyID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(context.Background(), journeyID, UpdateJourneyParams{Description: &desc})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestJourneyRepoDelete(t *testing.T) {
	repo, mockPool := newJourneyRepo(t)
	journeyID := uuid.New()

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM journeys WHERE id = $1")).
		WithArgs(journeyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), journeyID)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
