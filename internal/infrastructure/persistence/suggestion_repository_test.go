package persistence

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

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
)

// newMockSuggestionRepository creates a GormSuggestionRepository with a mocked SQL connection
func newMockSuggestionRepository(t *testing.T) (*GormSuggestionRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormSuggestionRepository(gormDB), mock, mockDB
}

func suggestionColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "version",
		"message_id", "pattern_id", "proposed_body", "score", "status",
		"resolved_by", "resolved_at", "final_body", "reject_reason", "expires_at",
	}
}

func TestGormSuggestionRepository_FindExpirable(t *testing.T) {
	repo, mock, mockDB := newMockSuggestionRepository(t)
	defer mockDB.Close()

	suggestionID := uuid.New()
	now := time.Now()
	deadline := now.Add(-5 * time.Minute)

	rows := sqlmock.NewRows(suggestionColumns()).AddRow(
		suggestionID, now.Add(-time.Hour), now.Add(-time.Hour), 1,
		uuid.New(), uuid.New(), "Yes, on our site.", 0.72, "pending",
		nil, nil, "", "", deadline,
	)

	mock.ExpectQuery(`SELECT \* FROM "suggestions" WHERE status = \$1 AND expires_at < \$2 ORDER BY expires_at ASC LIMIT \$3`).
		WithArgs(string(conversation.SuggestionPending), now, 100).
		WillReturnRows(rows)

	expirable, err := repo.FindExpirable(context.Background(), now, 100)

	assert.NoError(t, err)
	require.Len(t, expirable, 1)
	assert.Equal(t, suggestionID, expirable[0].ID)
	assert.True(t, expirable[0].IsExpired(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSuggestionRepository_CountByStatus(t *testing.T) {
	repo, mock, mockDB := newMockSuggestionRepository(t)
	defer mockDB.Close()

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 3).
		AddRow("accepted", 5).
		AddRow("rejected", 1)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) as count FROM "suggestions" WHERE created_at >= \$1 AND created_at < \$2 GROUP BY`).
		WithArgs(from, to).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), from, to)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), counts[conversation.SuggestionPending])
	assert.Equal(t, int64(5), counts[conversation.SuggestionAccepted])
	assert.Equal(t, int64(1), counts[conversation.SuggestionRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}
