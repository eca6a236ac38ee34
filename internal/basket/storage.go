package basket

import (
	"context"
	"sync"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
)

// Storage is the durable slot a basket is loaded from and written to. Save
// always receives the complete, ordered collection.
type Storage interface {
	Load(ctx context.Context) ([]domain.AnalysisRecord, error)
	Save(ctx context.Context, records []domain.AnalysisRecord) error
}

// MemoryStorage keeps the encoded slot in memory. It round-trips through the
// same JSON encoding as the durable adapters.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStorage returns an empty in-memory slot.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load implements Storage.
func (m *MemoryStorage) Load(_ context.Context) ([]domain.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.UnmarshalRecords(m.data)
}

// Save implements Storage.
func (m *MemoryStorage) Save(_ context.Context, records []domain.AnalysisRecord) error {
	data, err := domain.MarshalRecords(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Bytes returns a copy of the raw slot contents.
func (m *MemoryStorage) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// SetBytes overwrites the raw slot contents.
func (m *MemoryStorage) SetBytes(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}
