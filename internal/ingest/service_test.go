package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omule0/digest/internal/chunks"
)

type fakeVerifier struct {
	err   error
	calls int
}

func (f *fakeVerifier) VerifyOwnership(_ context.Context, _, _ uuid.UUID) error {
	f.calls++
	return f.err
}

type fakeChunkStore struct {
	existing     bool
	existsCalls  int
	insertCalls  int
	lastInserted []chunks.Record
}

func (f *fakeChunkStore) Exists(_ context.Context, _ string, _, _ uuid.UUID) (bool, error) {
	f.existsCalls++
	return f.existing, nil
}

func (f *fakeChunkStore) InsertBatch(_ context.Context, records []chunks.Record) error {
	f.insertCalls++
	f.lastInserted = records
	return nil
}

func TestIngest(t *testing.T) {
	workspaceID := uuid.New()
	userID := uuid.New()
	content := strings.Repeat("A paragraph of document text for the ingestion pipeline.\n\n", 10)

	t.Run("ShouldPersistChunksOnFirstIngestion", func(t *testing.T) {
		store := &fakeChunkStore{}
		svc, err := NewService(&fakeVerifier{}, store)
		require.NoError(t, err)

		err = svc.Ingest(context.Background(), content, "file-1", workspaceID, userID)
		require.NoError(t, err)

		assert.Equal(t, 1, store.insertCalls)
		require.NotEmpty(t, store.lastInserted)
		for i, rec := range store.lastInserted {
			assert.Equal(t, "file-1", rec.FileID)
			assert.Equal(t, workspaceID, rec.WorkspaceID)
			assert.Equal(t, userID, rec.UserID)
			assert.Equal(t, i, rec.Index)
			assert.NotEmpty(t, rec.Content)
		}
	})

	t.Run("ShouldSkipWhenAlreadyIngested", func(t *testing.T) {
		store := &fakeChunkStore{existing: true}
		svc, err := NewService(&fakeVerifier{}, store)
		require.NoError(t, err)

		err = svc.Ingest(context.Background(), content, "file-1", workspaceID, userID)
		require.NoError(t, err)

		assert.Equal(t, 1, store.existsCalls)
		assert.Equal(t, 0, store.insertCalls)
	})

	t.Run("ShouldRejectWhenOwnershipCheckFails", func(t *testing.T) {
		store := &fakeChunkStore{}
		denied := errors.New("workspace not found or access denied")
		svc, err := NewService(&fakeVerifier{err: denied}, store)
		require.NoError(t, err)

		err = svc.Ingest(context.Background(), content, "file-1", workspaceID, userID)
		require.ErrorIs(t, err, denied)

		assert.Equal(t, 0, store.existsCalls)
		assert.Equal(t, 0, store.insertCalls)
	})
}
