package event

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// newMockOutboxRepository creates a GormOutboxRepository with a mocked SQL connection
func newMockOutboxRepository(t *testing.T) (*GormOutboxRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormOutboxRepository(gormDB), mock, mockDB
}

func outboxColumns() []string {
	return []string{
		"id", "event_id", "event_type", "aggregate_id", "aggregate_type",
		"payload", "status", "retry_count", "max_retries", "last_error",
		"next_retry_at", "processed_at", "created_at", "updated_at",
	}
}

func TestGormOutboxRepository_Save(t *testing.T) {
	t.Run("persists entries", func(t *testing.T) {
		repo, mock, mockDB := newMockOutboxRepository(t)
		defer mockDB.Close()

		entry := shared.NewOutboxEntry(newTestEvent("pattern.created"), []byte(`{}`))

		mock.ExpectExec(`INSERT INTO "outbox_events"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op for empty slice", func(t *testing.T) {
		repo, mock, mockDB := newMockOutboxRepository(t)
		defer mockDB.Close()

		err := repo.Save(context.Background())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOutboxRepository_FindPending(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	entryID := uuid.New()
	eventID := uuid.New()
	aggregateID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(outboxColumns()).AddRow(
		entryID, eventID, "pattern.promoted", aggregateID, "Pattern",
		[]byte(`{"confidence":0.9}`), "PENDING", 0, 5, "",
		nil, nil, now, now,
	)

	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE status = \$1 ORDER BY created_at ASC`).
		WithArgs(string(shared.OutboxStatusPending), 10).
		WillReturnRows(rows)

	entries, err := repo.FindPending(context.Background(), 10)

	assert.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, eventID, entries[0].EventID)
	assert.Equal(t, "pattern.promoted", entries[0].EventType)
	assert.Equal(t, shared.OutboxStatusPending, entries[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindRetryable(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	before := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE status = \$1 AND next_retry_at <= \$2`).
		WithArgs(string(shared.OutboxStatusFailed), before, 50).
		WillReturnRows(sqlmock.NewRows(outboxColumns()))

	entries, err := repo.FindRetryable(context.Background(), before, 50)

	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_Update(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	entry := shared.NewOutboxEntry(newTestEvent("pattern.created"), []byte(`{}`))
	entry.MarkSent()

	mock.ExpectExec(`UPDATE "outbox_events" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), entry)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectExec(`DELETE FROM "outbox_events" WHERE status = \$1 AND processed_at < \$2`).
		WithArgs(string(shared.OutboxStatusSent), cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_CountByStatus(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("PENDING", 4).
		AddRow("SENT", 120).
		AddRow("DEAD", 1)

	mock.ExpectQuery(`SELECT status, count\(\*\) as count FROM "outbox_events" GROUP BY "status"`).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(4), counts[shared.OutboxStatusPending])
	assert.Equal(t, int64(120), counts[shared.OutboxStatusSent])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_MarkProcessingEmptyIDs(t *testing.T) {
	repo, mock, mockDB := newMockOutboxRepository(t)
	defer mockDB.Close()

	entries, err := repo.MarkProcessing(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
