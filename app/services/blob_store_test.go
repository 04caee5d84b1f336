package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore(t *testing.T) {
	store := NewMemoryBlobStore("bucket")
	ctx := context.Background()

	uri, err := store.Put(ctx, "journals/1/photos/a.png", []byte("png-bytes"), "")
	require.NoError(t, err)
	assert.Equal(t, "memory://bucket/journals/1/photos/a.png", uri)
	assert.Equal(t, uri, store.URI("journals/1/photos/a.png"))
	assert.Equal(t, "image/png", store.ContentType(uri))

	ok, err := store.Exists(ctx, uri)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := store.Get(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	signed, err := store.SignedURL(ctx, uri, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, uri+"?expires="))

	deleted, err := store.Delete(ctx, uri)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, uri)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Get(ctx, uri)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestMemoryBlobStore_InvalidURIs(t *testing.T) {
	store := NewMemoryBlobStore("bucket")
	ctx := context.Background()

	for _, uri := range []string{"gs://bucket/a.jpg", "memory://other/a.jpg", "memory://bucket", "memory://bucket/"} {
		t.Run(uri, func(t *testing.T) {
			_, err := store.Exists(ctx, uri)
			assert.ErrorIs(t, err, ErrInvalidBlobURI)
		})
	}
}

func TestSplitBlobURI(t *testing.T) {
	bucket, name, err := splitBlobURI("gs://media/exports/journal_3.pdf", "gs")
	require.NoError(t, err)
	assert.Equal(t, "media", bucket)
	assert.Equal(t, "exports/journal_3.pdf", name)
}

func TestContentTypeForName(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeForName("a.JPG"))
	assert.Equal(t, "application/pdf", contentTypeForName("journal.pdf"))
	assert.Equal(t, "application/octet-stream", contentTypeForName("blob"))
}

func TestClientOptionsFromConfig(t *testing.T) {
	assert.Nil(t, ClientOptionsFromConfig(config.StorageConfig{}))
	assert.Len(t, ClientOptionsFromConfig(config.StorageConfig{CredentialsJSON: `{"type":"service_account"}`}), 1)
	assert.Len(t, ClientOptionsFromConfig(config.StorageConfig{CredentialsFile: "/etc/gcs.json"}), 1)
}
