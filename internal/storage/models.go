package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// StatusRecord is the persisted application status of a single job.
type StatusRecord struct {
	JobID     int
	Status    string
	UpdatedAt time.Time
}

// DigestRecord is one cached daily digest. Payload is a JSON array of
// digest entries stored as text; Day is the local YYYY-MM-DD key.
type DigestRecord struct {
	Day          string
	GenerationID string
	Payload      string
	GeneratedAt  time.Time
}
