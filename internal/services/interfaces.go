package services

import (
	"context"

	"github.com/rendezvous-csd/rendezvous-api/internal/models"
)

// RosterLookup reports whether an email is on a role's roster
type RosterLookup interface {
	Lookup(ctx context.Context, role models.Role, email string) (canonicalEmail string, found bool, err error)
}

// RowInserter executes one positional insert into an import target
type RowInserter interface {
	InsertRow(ctx context.Context, target models.ImportTarget, values []any) error
}

// SessionStore holds sessions keyed by their opaque ID.
// Save overwrites an existing session with the same ID.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UploadArchiver keeps a copy of an uploaded workbook
type UploadArchiver interface {
	Archive(ctx context.Context, target, fileName string, data []byte) (string, error)
}

// AuthServiceInterface defines login, session presence and logout
type AuthServiceInterface interface {
	Login(ctx context.Context, handle, email string) (*models.Session, string, error)
	CurrentIdentity(ctx context.Context, handle string) (string, bool, error)
	Session(ctx context.Context, handle string) (*models.Session, error)
	Logout(ctx context.Context, handle string) error
}

// ImportServiceInterface defines spreadsheet ingestion
type ImportServiceInterface interface {
	Ingest(ctx context.Context, target models.ImportTarget, fileName string, data []byte) (*models.ImportReport, error)
}
