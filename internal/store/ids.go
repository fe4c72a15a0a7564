package store

import "github.com/google/uuid"

// IDGenerator produces record IDs. IDs identify records; seq orders them.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator is the default IDGenerator. It is safe for concurrent use.
type UUIDv7Generator struct{}

// Generate panics only if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
