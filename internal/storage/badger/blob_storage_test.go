package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
)

func TestBlobPutAndGet(t *testing.T) {
	db := openTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	data := []byte("%PDF-1.4 content")
	require.NoError(t, storage.Put(ctx, "ses_1", "application/pdf", data))

	blob, err := storage.Get(ctx, "ses_1")
	require.NoError(t, err)
	assert.Equal(t, data, blob.Data)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.False(t, blob.CreatedAt.IsZero())
}

func TestBlobGetMissing(t *testing.T) {
	db := openTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger())

	_, err := storage.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrBlobNotFound)
}

func TestBlobOverwritePreservesCreatedAt(t *testing.T) {
	db := openTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, "ses_1", "application/pdf", []byte("v1")))
	first, err := storage.Get(ctx, "ses_1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, storage.Put(ctx, "ses_1", "application/pdf", []byte("v2")))

	second, err := storage.Get(ctx, "ses_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), second.Data)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestBlobPutRequiresID(t *testing.T) {
	db := openTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger())

	err := storage.Put(context.Background(), "", "application/pdf", []byte("data"))
	assert.Error(t, err)
}

func TestBlobDelete(t *testing.T) {
	db := openTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, "ses_1", "application/pdf", []byte("data")))
	require.NoError(t, storage.Delete(ctx, "ses_1"))

	_, err := storage.Get(ctx, "ses_1")
	assert.ErrorIs(t, err, interfaces.ErrBlobNotFound)

	// Deleting again is not an error.
	assert.NoError(t, storage.Delete(ctx, "ses_1"))
}
