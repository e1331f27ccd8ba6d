package repository

import (
	"testing"

	"autofill-workbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore_Lifecycle(t *testing.T) {
	store := NewMemoryBlobStore("/blobs", NewMockLogger())

	blob, err := store.Create(domain.MimePDF, []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.NotEmpty(t, blob.ID)
	assert.Equal(t, "/blobs/"+blob.ID, store.URL(blob.ID))

	got, err := store.Get(blob.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), got.Content)
	assert.Equal(t, 1, store.Live())

	require.NoError(t, store.Release(blob.ID))
	_, err = store.Get(blob.ID)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
	assert.ErrorIs(t, store.Release(blob.ID), domain.ErrBlobNotFound)

	created, released := store.Stats()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, released)
	assert.Equal(t, 0, store.Live())
}

func TestMemoryBlobStore_RejectsEmptyContent(t *testing.T) {
	store := NewMemoryBlobStore("/blobs", NewMockLogger())
	_, err := store.Create("image/png", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidFile)
}
