package kms

import (
	"context"
	"errors"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awskms "github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/smithy-go"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

// AWSProvider backs RootKeyProvider with AWS KMS. The SDK client is built
// lazily on first use so a cold start never pays the credential-resolution
// cost, and the single-initialization path is guarded by sync.OnceValues.
type AWSProvider struct {
	region  string
	timeout time.Duration
	client  func() (*awskms.Client, error)
}

func NewAWSProvider(region string, timeout time.Duration) *AWSProvider {
	p := &AWSProvider{region: region, timeout: timeout}
	p.client = sync.OnceValues(func() (*awskms.Client, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, err
		}
		return awskms.NewFromConfig(cfg), nil
	})
	return p
}

func (p *AWSProvider) Wrap(ctx context.Context, path KeyPath, plaintext []byte, encCtx map[string]string) ([]byte, error) {
	cli, err := p.client()
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindKeyUnavailable, "key service client init failed")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := cli.Encrypt(ctx, &awskms.EncryptInput{
		KeyId:             awssdk.String(path.KeyID),
		Plaintext:         plaintext,
		EncryptionContext: encCtx,
	})
	if err != nil {
		return nil, classify(err, "wrap")
	}
	return out.CiphertextBlob, nil
}

func (p *AWSProvider) Unwrap(ctx context.Context, path KeyPath, ciphertext []byte, encCtx map[string]string) ([]byte, error) {
	cli, err := p.client()
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindKeyUnavailable, "key service client init failed")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := cli.Decrypt(ctx, &awskms.DecryptInput{
		KeyId:             awssdk.String(path.KeyID),
		CiphertextBlob:    ciphertext,
		EncryptionContext: encCtx,
	})
	if err != nil {
		return nil, classify(err, "unwrap")
	}
	return out.Plaintext, nil
}

func (p *AWSProvider) KeyMetadata(ctx context.Context, path KeyPath) (*KeyMetadata, error) {
	cli, err := p.client()
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindKeyUnavailable, "key service client init failed")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := cli.DescribeKey(ctx, &awskms.DescribeKeyInput{
		KeyId: awssdk.String(path.KeyID),
	})
	if err != nil {
		return nil, classify(err, "describe key")
	}

	meta := &KeyMetadata{
		Location: p.region,
		RingID:   path.KeyRing,
	}
	if out.KeyMetadata != nil {
		meta.KeyID = awssdk.ToString(out.KeyMetadata.KeyId)
		meta.Enabled = out.KeyMetadata.Enabled
	}
	return meta, nil
}

// classify maps an AWS KMS failure onto the privacy error taxonomy. The
// dividing line is whether a retry is meaningful: throttling, timeouts and
// service-side trouble are retryable (key-unavailable); authorization and
// ciphertext/key mismatches are not (key-access).
func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return privacy.Wrap(err, privacy.KindKeyUnavailable, "key service %s timed out", op)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "KMSInternalException", "DependencyTimeoutException", "KMSInvalidStateException":
			return privacy.Wrap(err, privacy.KindKeyUnavailable, "key service %s unavailable", op)
		case "AccessDeniedException", "InvalidCiphertextException", "IncorrectKeyException",
			"NotFoundException", "DisabledException", "InvalidKeyUsageException":
			return privacy.Wrap(err, privacy.KindKeyAccess, "key service rejected %s", op)
		}
	}
	return privacy.Wrap(err, privacy.KindInternal, "key service %s failed", op)
}
