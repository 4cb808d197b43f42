package mocks

import (
	"sync"

	"github.com/Billy-Davies-2/draftboard/internal/dal"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// defaultMockFile keeps the mock's data out of the sqlite driver's file
const defaultMockFile = "mock-postgres.sqlite"

// MockPostgresDAL stands in for Postgres in development by storing the
// board in SQLite. It counts writes per key so tests can assert on
// persistence traffic.
type MockPostgresDAL struct {
	dal.DraftDAL
	mu     sync.Mutex
	writes map[string]int
}

// NewMockPostgresDAL creates a mock Postgres DAL using SQLite. An empty file
// uses mock-postgres.sqlite; ":memory:" keeps everything in process.
func NewMockPostgresDAL(sqliteFile string) (*MockPostgresDAL, error) {
	if sqliteFile == "" {
		sqliteFile = defaultMockFile
	}
	logger.Info("Using MOCK Postgres (SQLite) for local development", "file", sqliteFile)

	sqliteDAL, err := dal.NewSQLiteDAL(sqliteFile)
	if err != nil {
		return nil, err
	}

	return &MockPostgresDAL{
		DraftDAL: sqliteDAL,
		writes:   make(map[string]int),
	}, nil
}

// Save stores the value and counts the write
func (m *MockPostgresDAL) Save(key string, value []byte) error {
	if err := m.DraftDAL.Save(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	m.writes[key]++
	m.mu.Unlock()
	return nil
}

// Writes returns how many times key has been saved
func (m *MockPostgresDAL) Writes(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}
