package chunks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	workspaceID := uuid.New()
	userID := uuid.New()

	t.Run("ShouldReportTrueWhenRowsExist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM document_chunks`).
			WithArgs("file-1", userID, workspaceID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

		store := &Store{DB: mock}
		exists, err := store.Exists(context.Background(), "file-1", workspaceID, userID)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldReportFalseWhenNoRows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM document_chunks`).
			WithArgs("file-1", userID, workspaceID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		store := &Store{DB: mock}
		exists, err := store.Exists(context.Background(), "file-1", workspaceID, userID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestInsertBatch(t *testing.T) {
	workspaceID := uuid.New()
	userID := uuid.New()

	t.Run("ShouldInsertAllRecordsWithConflictGuard", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO document_chunks .+ ON CONFLICT \(file_id, workspace_id, user_id, chunk_index\) DO NOTHING`).
			WithArgs(
				"file-1", workspaceID, userID, 0, "first", "Block-1", 0, 5,
				"file-1", workspaceID, userID, 1, "second", "Block-2", 5, 11,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))

		store := &Store{DB: mock}
		err = store.InsertBatch(context.Background(), []Record{
			{FileID: "file-1", WorkspaceID: workspaceID, UserID: userID, Index: 0, Content: "first", Location: "Block-1", CharStart: 0, CharEnd: 5},
			{FileID: "file-1", WorkspaceID: workspaceID, UserID: userID, Index: 1, Content: "second", Location: "Block-2", CharStart: 5, CharEnd: 11},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldSkipEmptyBatch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := &Store{DB: mock}
		require.NoError(t, store.InsertBatch(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListByFile(t *testing.T) {
	workspaceID := uuid.New()
	userID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"file_id", "workspace_id", "user_id", "chunk_index", "content", "location", "char_start", "char_end"}).
		AddRow("file-1", workspaceID, userID, 0, "first", "Block-1", 0, 5).
		AddRow("file-1", workspaceID, userID, 1, "second", "Block-2", 5, 11)

	mock.ExpectQuery(`SELECT .+ FROM document_chunks .+ ORDER BY chunk_index ASC`).
		WithArgs("file-1", userID, workspaceID).
		WillReturnRows(rows)

	store := &Store{DB: mock}
	records, err := store.ListByFile(context.Background(), "file-1", workspaceID, userID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, "second", records[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByFile(t *testing.T) {
	workspaceID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM document_chunks`).
		WithArgs("file-1", workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	store := &Store{DB: mock}
	require.NoError(t, store.DeleteByFile(context.Background(), "file-1", workspaceID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
