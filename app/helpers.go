package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// UuidToString converts a pgtype.UUID to its string representation.
func UuidToString(u pgtype.UUID) string {
	return uuid.UUID(u.Bytes).String()
}

// NewPgUUID returns a fresh time-ordered UUID as a pgtype value.
func NewPgUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.Must(uuid.NewV7()), Valid: true}
}

// PgTime wraps a time.Time as a valid pgtype.Timestamptz.
func PgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// PgText wraps a string as a valid pgtype.Text.
func PgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
