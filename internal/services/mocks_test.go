package services_test

import (
	"context"

	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRosterLookup is a mock implementation of RosterLookup
type MockRosterLookup struct {
	mock.Mock
}

func (m *MockRosterLookup) Lookup(ctx context.Context, role models.Role, email string) (string, bool, error) {
	args := m.Called(ctx, role, email)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockRowInserter is a mock implementation of RowInserter
type MockRowInserter struct {
	mock.Mock
}

func (m *MockRowInserter) InsertRow(ctx context.Context, target models.ImportTarget, values []any) error {
	args := m.Called(ctx, target, values)
	return args.Error(0)
}

// MockSessionStore is a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockUploadArchiver is a mock implementation of UploadArchiver
type MockUploadArchiver struct {
	mock.Mock
}

func (m *MockUploadArchiver) Archive(ctx context.Context, target, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, target, fileName, data)
	return args.String(0), args.Error(1)
}
