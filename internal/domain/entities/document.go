package entities

import (
	"time"

	"github.com/google/uuid"
)

// Document is the metadata row for a binary attachment held in the object
// store. The storage key is randomized and namespaced under the lead id; the
// user-supplied filename is kept only as display metadata.
type Document struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"leadId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	StorageKey string    `json:"-"`
	FileURL    string    `json:"fileUrl,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Per-document upload ceiling for the lead form.
const MaxDocumentSize = 5 * 1024 * 1024

// AllowedDocumentTypes is the MIME allow-list for uploads.
var AllowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}
