package envelope

import (
	"context"
	"testing"

	"github.com/menolabs/wellness-backend/internal/kms"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	provider := kms.NewLocalProvider("test-seed")
	return New(provider, map[string]kms.KeyPath{
		"meno-wellness":   {Project: "wellness", Location: "local", KeyRing: "test", KeyID: "meno"},
		"partner-support": {Project: "wellness", Location: "local", KeyRing: "test", KeyID: "partner"},
	})
}

func TestGenerateDEKAndUnwrap(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	dek, err := s.GenerateDEK(ctx, "meno-wellness", "user-1")
	require.NoError(t, err)
	require.Len(t, dek.Plaintext, 32)
	require.NotNil(t, dek.Wrapped)
	assert.Equal(t, "meno-wellness", dek.Wrapped.AppType)
	assert.Equal(t, "user-1", dek.Wrapped.UserID)

	recovered, err := s.Unwrap(ctx, dek.Wrapped, "meno-wellness", "user-1")
	require.NoError(t, err)
	assert.Equal(t, dek.Plaintext, recovered)
}

func TestUnwrapCrossNamespaceFailsClosed(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	dek, err := s.GenerateDEK(ctx, "meno-wellness", "user-1")
	require.NoError(t, err)

	_, err = s.Unwrap(ctx, dek.Wrapped, "partner-support", "user-1")
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))

	// Forged AppType is caught by the provider's encryption context.
	forged := *dek.Wrapped
	forged.AppType = "partner-support"
	_, err = s.Unwrap(ctx, &forged, "partner-support", "user-1")
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestUnwrapWrongUserFailsClosed(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	dek, err := s.GenerateDEK(ctx, "meno-wellness", "user-1")
	require.NoError(t, err)

	_, err = s.Unwrap(ctx, dek.Wrapped, "meno-wellness", "user-2")
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestUnwrapMalformed(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Unwrap(ctx, nil, "meno-wellness", "user-1")
	assert.True(t, privacy.IsKind(err, privacy.KindMalformedKey))

	_, err = s.Unwrap(ctx, &WrappedDEK{EncryptedDEK: "not base64!!", AppType: "meno-wellness"}, "meno-wellness", "user-1")
	assert.True(t, privacy.IsKind(err, privacy.KindMalformedKey))
}

func TestUnknownNamespace(t *testing.T) {
	s := newTestService()
	_, err := s.GenerateDEK(context.Background(), "nope", "user-1")
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindKeyAccess))
}

func TestSealOpenRoundTrip(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	data, wrapped, err := s.Seal(ctx, "meno-wellness", "user-1", []byte("today was hard"))
	require.NoError(t, err)
	assert.Equal(t, Algorithm, data.Algorithm)
	assert.Equal(t, "meno", data.KeyID)
	assert.NotContains(t, data.EncryptedValue, "today was hard")

	plaintext, err := s.Open(ctx, "meno-wellness", "user-1", wrapped, data)
	require.NoError(t, err)
	assert.Equal(t, []byte("today was hard"), plaintext)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	data, wrapped, err := s.Seal(ctx, "meno-wellness", "user-1", []byte("payload"))
	require.NoError(t, err)

	tampered := *data
	tampered.EncryptedValue = data.EncryptedValue[:len(data.EncryptedValue)-4] + "AAA="
	_, err = s.Open(ctx, "meno-wellness", "user-1", wrapped, &tampered)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindMalformedKey))
}

func TestValidateEncryptedData(t *testing.T) {
	valid := &models.EncryptedData{
		EncryptedValue: "aGVsbG8=",
		KeyID:          "meno",
		Algorithm:      Algorithm,
	}
	assert.NoError(t, ValidateEncryptedData(valid))

	tests := []struct {
		name   string
		mutate func(d *models.EncryptedData)
	}{
		{"nil data", nil},
		{"wrong algorithm", func(d *models.EncryptedData) { d.Algorithm = "AES-128-GCM" }},
		{"empty value", func(d *models.EncryptedData) { d.EncryptedValue = "" }},
		{"empty key id", func(d *models.EncryptedData) { d.KeyID = "" }},
		{"bad base64", func(d *models.EncryptedData) { d.EncryptedValue = "%%%" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.mutate == nil {
				err := ValidateEncryptedData(nil)
				assert.True(t, privacy.IsKind(err, privacy.KindInvalidArgument))
				return
			}
			d := *valid
			tc.mutate(&d)
			err := ValidateEncryptedData(&d)
			assert.True(t, privacy.IsKind(err, privacy.KindInvalidArgument), tc.name)
		})
	}
}

func TestValidateAccess(t *testing.T) {
	s := newTestService()
	report := s.ValidateAccess(context.Background())
	assert.True(t, report.Healthy())
	assert.True(t, report.Namespaces["meno-wellness"])
	assert.True(t, report.Namespaces["partner-support"])

	empty := New(kms.NewLocalProvider("x"), map[string]kms.KeyPath{})
	assert.False(t, empty.ValidateAccess(context.Background()).Healthy())
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
