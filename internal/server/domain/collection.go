package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCollectionNameLength bounds collection names.
const MaxCollectionNameLength = 32

// Collection is a named, owner-scoped grouping of ciphers.
type Collection struct {
	ID           uuid.UUID `json:"id"`
	Owner        uuid.UUID `json:"owner"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}
