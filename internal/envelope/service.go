// Package envelope implements envelope encryption: per-record data
// encryption keys wrapped by a managed root key, one root key per app
// namespace. Plaintext DEKs live only in memory and are never persisted
// or logged.
package envelope

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sort"
	"time"

	"github.com/menolabs/wellness-backend/internal/kms"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

const (
	// Algorithm is the only payload cipher this service produces or
	// accepts.
	Algorithm = "AES-256-GCM"

	dekSize = 32

	// currentKeyVersion tags wrapped DEKs with the root-key generation
	// that wrapped them, for future rotation.
	currentKeyVersion = "1"
)

// WrappedDEK is the storable form of a data encryption key. AppType must
// match the namespace used to unwrap it; a mismatch fails closed.
type WrappedDEK struct {
	EncryptedDEK string    `json:"encrypted_dek"`
	KeyVersion   string    `json:"key_version"`
	AppType      string    `json:"app_type"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// DEK pairs freshly generated plaintext key material with its wrapped
// form. The caller must wipe the plaintext after use.
type DEK struct {
	Plaintext []byte
	Wrapped   *WrappedDEK
}

// AccessReport is the result of probing every configured namespace's root
// key. Health-check use only; wrap/unwrap never consult it.
type AccessReport struct {
	Namespaces map[string]bool `json:"namespaces"`
	Errors     []string        `json:"errors,omitempty"`
}

// Healthy reports whether every namespace key was reachable.
func (r *AccessReport) Healthy() bool {
	for _, ok := range r.Namespaces {
		if !ok {
			return false
		}
	}
	return len(r.Namespaces) > 0
}

// Service generates, wraps and unwraps DEKs via the root key provider.
type Service struct {
	provider kms.RootKeyProvider
	keys     map[string]kms.KeyPath
}

// New builds a Service over the given provider and namespace→key-path
// table.
func New(provider kms.RootKeyProvider, keys map[string]kms.KeyPath) *Service {
	return &Service{provider: provider, keys: keys}
}

func (s *Service) path(namespace string) (kms.KeyPath, error) {
	p, ok := s.keys[namespace]
	if !ok {
		return kms.KeyPath{}, privacy.E(privacy.KindKeyAccess, "unknown key namespace %q", namespace)
	}
	return p, nil
}

func encryptionContext(namespace, userID string) map[string]string {
	return map[string]string{"app": namespace, "uid": userID}
}

// GenerateDEK draws 32 bytes of cryptographically secure random material
// and wraps it under the namespace's root key. The plaintext is for
// immediate in-memory use only.
func (s *Service) GenerateDEK(ctx context.Context, namespace, userID string) (*DEK, error) {
	plaintext := make([]byte, dekSize)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "random key generation failed")
	}

	wrapped, err := s.Wrap(ctx, plaintext, namespace, userID)
	if err != nil {
		Wipe(plaintext)
		return nil, err
	}
	return &DEK{Plaintext: plaintext, Wrapped: wrapped}, nil
}

// Wrap wraps caller-supplied key material. Used by GenerateDEK and when
// re-wrapping under key rotation.
func (s *Service) Wrap(ctx context.Context, plaintext []byte, namespace, userID string) (*WrappedDEK, error) {
	p, err := s.path(namespace)
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.provider.Wrap(ctx, p, plaintext, encryptionContext(namespace, userID))
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 {
		return nil, privacy.E(privacy.KindMalformedKey, "wrap produced no ciphertext")
	}

	return &WrappedDEK{
		EncryptedDEK: base64.StdEncoding.EncodeToString(ciphertext),
		KeyVersion:   currentKeyVersion,
		AppType:      namespace,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Unwrap recovers the plaintext DEK. A namespace mismatch fails closed
// before the provider is even consulted; the provider's encryption
// context check backs that up.
func (s *Service) Unwrap(ctx context.Context, wrapped *WrappedDEK, namespace, userID string) ([]byte, error) {
	if wrapped == nil || wrapped.EncryptedDEK == "" {
		return nil, privacy.E(privacy.KindMalformedKey, "wrapped key has no ciphertext")
	}
	if wrapped.AppType != namespace {
		return nil, privacy.E(privacy.KindKeyAccess, "wrapped key belongs to namespace %q", wrapped.AppType)
	}

	p, err := s.path(namespace)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrapped.EncryptedDEK)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindMalformedKey, "wrapped key is not valid base64")
	}

	return s.provider.Unwrap(ctx, p, ciphertext, encryptionContext(namespace, userID))
}

// DescribeKey returns root-key metadata for a namespace. No secret
// material.
func (s *Service) DescribeKey(ctx context.Context, namespace string) (*kms.KeyMetadata, error) {
	p, err := s.path(namespace)
	if err != nil {
		return nil, err
	}
	return s.provider.KeyMetadata(ctx, p)
}

// ValidateAccess probes every configured namespace's root key. Too slow
// and costly for the request path; health checks only.
func (s *Service) ValidateAccess(ctx context.Context) *AccessReport {
	report := &AccessReport{Namespaces: make(map[string]bool, len(s.keys))}

	namespaces := make([]string, 0, len(s.keys))
	for ns := range s.keys {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		if _, err := s.DescribeKey(ctx, ns); err != nil {
			report.Namespaces[ns] = false
			report.Errors = append(report.Errors, ns+": "+privacy.MessageOf(err))
			continue
		}
		report.Namespaces[ns] = true
	}
	return report
}

// Wipe zeroes key material in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
