package tokens

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalLast30Days(t *testing.T) {
	userID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(tokens_used\), 0\) FROM token_usage_logs`).
		WithArgs(userID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(4200))

	svc := &Service{DB: mock}
	total, err := svc.TotalLast30Days(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4200, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimitExceeded(t *testing.T) {
	userID := uuid.New()

	t.Run("ShouldReportExceededAtLimit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(tokens_used\), 0\) FROM token_usage_logs`).
			WithArgs(userID, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(Limit))

		svc := &Service{DB: mock}
		exceeded, err := svc.LimitExceeded(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, exceeded)
	})

	t.Run("ShouldReportNotExceededBelowLimit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(tokens_used\), 0\) FROM token_usage_logs`).
			WithArgs(userID, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(Limit - 1))

		svc := &Service{DB: mock}
		exceeded, err := svc.LimitExceeded(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, exceeded)
	})
}

func TestLog(t *testing.T) {
	userID := uuid.New()
	workspaceID := uuid.New()
	documentID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO token_usage_logs`).
		WithArgs(userID, &workspaceID, 1500, "report_generation", &documentID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := &Service{DB: mock}
	err = svc.Log(context.Background(), Entry{
		UserID:      userID,
		WorkspaceID: &workspaceID,
		TokensUsed:  1500,
		UsageType:   "report_generation",
		DocumentID:  &documentID,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
