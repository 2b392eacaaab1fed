package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "p1", "/stories.csv", []byte("a,b"), "text/csv"))
	require.NoError(t, s.Put(ctx, "p1", "prototype.png", []byte{1}, "image/png"))
	require.NoError(t, s.Put(ctx, "p2", "stories.csv", []byte("x"), "text/csv"))

	got, err := s.Get(ctx, "p1", "stories.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(got))

	names, err := s.List(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prototype.png", "stories.csv"}, names)

	_, err = s.Get(ctx, "p1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	url, err := s.URL(ctx, "p1", "stories.csv")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestKeyValidation(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Put(context.Background(), "", "a", nil, ""))
	assert.Error(t, s.Put(context.Background(), "p", " ", nil, ""))
	assert.Error(t, s.Put(context.Background(), "p", "../escape", nil, ""))
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
