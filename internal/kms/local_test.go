package kms

import (
	"context"
	"testing"

	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPath = KeyPath{Project: "wellness", Location: "local", KeyRing: "test", KeyID: "meno"}

func TestLocalProviderRoundTrip(t *testing.T) {
	p := NewLocalProvider("seed")
	ctx := context.Background()
	encCtx := map[string]string{"app": "meno-wellness", "uid": "u1"}

	wrapped, err := p.Wrap(ctx, testPath, []byte("key material"), encCtx)
	require.NoError(t, err)
	require.NotEmpty(t, wrapped)

	plaintext, err := p.Unwrap(ctx, testPath, wrapped, encCtx)
	require.NoError(t, err)
	assert.Equal(t, []byte("key material"), plaintext)
}

func TestLocalProviderContextMismatchFailsClosed(t *testing.T) {
	p := NewLocalProvider("seed")
	ctx := context.Background()

	wrapped, err := p.Wrap(ctx, testPath, []byte("key material"),
		map[string]string{"app": "meno-wellness", "uid": "u1"})
	require.NoError(t, err)

	_, err = p.Unwrap(ctx, testPath, wrapped,
		map[string]string{"app": "partner-support", "uid": "u1"})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestLocalProviderPathIsolation(t *testing.T) {
	p := NewLocalProvider("seed")
	ctx := context.Background()
	encCtx := map[string]string{"app": "meno-wellness", "uid": "u1"}

	wrapped, err := p.Wrap(ctx, testPath, []byte("key material"), encCtx)
	require.NoError(t, err)

	other := testPath
	other.KeyID = "partner"
	_, err = p.Unwrap(ctx, other, wrapped, encCtx)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestLocalProviderTruncatedCiphertext(t *testing.T) {
	p := NewLocalProvider("seed")
	_, err := p.Unwrap(context.Background(), testPath, []byte("short"), nil)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestLocalProviderKeyMetadata(t *testing.T) {
	p := NewLocalProvider("seed")
	meta, err := p.KeyMetadata(context.Background(), testPath)
	require.NoError(t, err)
	assert.Equal(t, "meno", meta.KeyID)
	assert.True(t, meta.Enabled)
}
