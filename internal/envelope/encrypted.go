package envelope

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

// Seal encrypts a payload under a fresh DEK and returns the persistable
// pair: the EncryptedData value object and the wrapped DEK. The plaintext
// DEK is wiped before returning.
func (s *Service) Seal(ctx context.Context, namespace, userID string, plaintext []byte) (*models.EncryptedData, *WrappedDEK, error) {
	dek, err := s.GenerateDEK(ctx, namespace, userID)
	if err != nil {
		return nil, nil, err
	}
	defer Wipe(dek.Plaintext)

	aead, err := newGCM(dek.Plaintext)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, privacy.Wrap(err, privacy.KindInternal, "nonce generation failed")
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	p, err := s.path(namespace)
	if err != nil {
		return nil, nil, err
	}

	data := &models.EncryptedData{
		EncryptedValue: base64.StdEncoding.EncodeToString(sealed),
		KeyID:          p.KeyID,
		Algorithm:      Algorithm,
		CreatedAt:      time.Now().UTC(),
	}
	return data, dek.Wrapped, nil
}

// Open unwraps the DEK and decrypts the payload. The recovered DEK is
// wiped before returning.
func (s *Service) Open(ctx context.Context, namespace, userID string, wrapped *WrappedDEK, data *models.EncryptedData) ([]byte, error) {
	if err := ValidateEncryptedData(data); err != nil {
		return nil, err
	}

	key, err := s.Unwrap(ctx, wrapped, namespace, userID)
	if err != nil {
		return nil, err
	}
	defer Wipe(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(data.EncryptedValue)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindMalformedKey, "ciphertext is not valid base64")
	}
	if len(sealed) < aead.NonceSize() {
		return nil, privacy.E(privacy.KindMalformedKey, "ciphertext shorter than nonce")
	}

	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindMalformedKey, "payload decryption failed")
	}
	return plaintext, nil
}

// ValidateEncryptedData checks the persisted wire shape: exactly the
// AES-256-GCM algorithm string, a key id, and base64 ciphertext.
func ValidateEncryptedData(data *models.EncryptedData) error {
	if data == nil {
		return privacy.E(privacy.KindInvalidArgument, "encrypted data is required")
	}
	if data.Algorithm != Algorithm {
		return privacy.E(privacy.KindInvalidArgument, "unsupported algorithm %q", data.Algorithm)
	}
	if data.EncryptedValue == "" {
		return privacy.E(privacy.KindInvalidArgument, "encrypted value is required")
	}
	if data.KeyID == "" {
		return privacy.E(privacy.KindInvalidArgument, "key id is required")
	}
	if _, err := base64.StdEncoding.DecodeString(data.EncryptedValue); err != nil {
		return privacy.Wrap(err, privacy.KindInvalidArgument, "encrypted value is not valid base64")
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "cipher setup failed")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "cipher setup failed")
	}
	return aead, nil
}
