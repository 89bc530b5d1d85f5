package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadhub.backend/pkg/crypto"
)

// ObjectStore abstracts the binary attachment store. Implementations must
// confirm the write before returning from Upload; metadata rows are only
// created afterwards.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SignedURL(key string, expires time.Duration) (string, error)
}

// Access-reference lifetimes: short for immediate display, long for links
// returned to callers that may hold them for later retrieval.
const (
	DisplayURLExpiry  = 24 * time.Hour
	DownloadURLExpiry = 7 * 24 * time.Hour
)

// BuildObjectKey builds a collision-resistant storage key namespaced under
// the lead id. The user-supplied filename contributes only its extension.
func BuildObjectKey(leadID uuid.UUID, originalName string) (string, error) {
	token, err := crypto.GenerateObjectToken()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("leads/%s/%d-%s%s", leadID, time.Now().UnixMilli(), token, ext), nil
}
