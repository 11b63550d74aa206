package kms

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/menolabs/wellness-backend/internal/privacy"
)

// LocalProvider is an in-process RootKeyProvider for development and
// tests. Each key path gets its own AES-256-GCM key derived from the seed,
// and the encryption context is bound as AAD, so cross-namespace unwrap
// fails closed exactly like the managed service.
type LocalProvider struct {
	seed []byte
}

func NewLocalProvider(seed string) *LocalProvider {
	return &LocalProvider{seed: []byte(seed)}
}

func (p *LocalProvider) gcm(path KeyPath) (cipher.AEAD, error) {
	key := sha256.Sum256(append(append([]byte{}, p.seed...), []byte(path.String())...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (p *LocalProvider) Wrap(_ context.Context, path KeyPath, plaintext []byte, encCtx map[string]string) ([]byte, error) {
	aead, err := p.gcm(path)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "local key setup failed")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "nonce generation failed")
	}
	return aead.Seal(nonce, nonce, plaintext, encodeContext(encCtx)), nil
}

func (p *LocalProvider) Unwrap(_ context.Context, path KeyPath, ciphertext []byte, encCtx map[string]string) ([]byte, error) {
	aead, err := p.gcm(path)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "local key setup failed")
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, privacy.E(privacy.KindKeyAccess, "key service rejected unwrap")
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, encodeContext(encCtx))
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindKeyAccess, "key service rejected unwrap")
	}
	return plaintext, nil
}

func (p *LocalProvider) KeyMetadata(_ context.Context, path KeyPath) (*KeyMetadata, error) {
	return &KeyMetadata{
		KeyID:    path.KeyID,
		Location: path.Location,
		RingID:   path.KeyRing,
		Enabled:  true,
	}, nil
}

// encodeContext produces a deterministic AAD encoding of the encryption
// context.
func encodeContext(encCtx map[string]string) []byte {
	if len(encCtx) == 0 {
		return nil
	}
	keys := make([]string, 0, len(encCtx))
	for k := range encCtx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encCtx[k])
		b.WriteByte(';')
	}
	return []byte(b.String())
}
