package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore stores lead documents in a Google Cloud Storage bucket and hands
// out V4 signed GET URLs instead of permanent public links.
type GCSStore struct {
	client    *gcs.Client
	bucket    string
	signerID  string
	signerKey []byte
}

type serviceAccountJSON struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewGCSStore creates a GCS-backed object store. credentialsJSON may be
// empty, in which case application-default credentials are used for data
// operations; signing always needs an explicit service-account key, either
// from the credentials JSON or the signerEmail/signerKey pair.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON, signerEmail, signerKey string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}

	var opts []option.ClientOption
	signerID := strings.TrimSpace(signerEmail)
	key := normalizePrivateKey(signerKey)

	if credJSON := strings.TrimSpace(credentialsJSON); credJSON != "" {
		var sa serviceAccountJSON
		if err := json.Unmarshal([]byte(credJSON), &sa); err != nil {
			return nil, fmt.Errorf("invalid storage credentials JSON: %w", err)
		}
		if signerID == "" {
			signerID = sa.ClientEmail
		}
		if len(key) == 0 {
			key = normalizePrivateKey(sa.PrivateKey)
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	if signerID == "" || len(key) == 0 {
		return nil, errors.New("storage signer email and private key are required")
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client:    client,
		bucket:    bucket,
		signerID:  signerID,
		signerKey: key,
	}, nil
}

// Upload writes the object and returns only after the store confirms it
func (s *GCSStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return nil
}

// Download reads the whole object
func (s *GCSStore) Download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object; a missing object is not an error
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// SignedURL mints a time-limited GET reference for the object
func (s *GCSStore) SignedURL(key string, expires time.Duration) (string, error) {
	return gcs.SignedURL(s.bucket, key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.signerID,
		PrivateKey:     s.signerKey,
	})
}

// Close releases the underlying client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func normalizePrivateKey(key string) []byte {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return []byte(strings.ReplaceAll(key, "\\n", "\n"))
}
