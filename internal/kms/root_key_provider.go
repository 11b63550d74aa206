package kms

import "context"

// RootKeyProvider is the wrap/unwrap primitive backed by the managed key
// service. The encryption context binds a ciphertext to the app namespace
// and user that produced it; unwrapping under a different context must
// fail closed.
type RootKeyProvider interface {
	Wrap(ctx context.Context, path KeyPath, plaintext []byte, encCtx map[string]string) ([]byte, error)
	Unwrap(ctx context.Context, path KeyPath, ciphertext []byte, encCtx map[string]string) ([]byte, error)
	KeyMetadata(ctx context.Context, path KeyPath) (*KeyMetadata, error)
}
