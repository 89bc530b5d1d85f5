package entities

import (
	"time"

	"github.com/google/uuid"
)

// Affiliate represents a partner organization that originates leads and is
// scoped to see only its own.
type Affiliate struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}
