package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// MockTokenStore is an in-memory mock implementation of TokenStore for testing
type MockTokenStore struct {
	mu       sync.RWMutex
	registry *domain.TokenTypeRegistry
	records  map[string]*tokenRecord // key: service:userID

	// GetErr, when set, is returned by Get for every call. Used to
	// simulate decryption failures.
	GetErr error
}

type tokenRecord struct {
	service   string
	userID    string
	fields    map[string]string
	createdAt time.Time
	updatedAt time.Time
}

// NewMockTokenStore creates a new MockTokenStore backed by the given registry
func NewMockTokenStore(registry *domain.TokenTypeRegistry) *MockTokenStore {
	return &MockTokenStore{
		registry: registry,
		records:  make(map[string]*tokenRecord),
	}
}

func recordKey(service, userID string) string {
	return service + ":" + userID
}

func (m *MockTokenStore) Upsert(ctx context.Context, service, userID string, fields map[string]string) error {
	cfg, err := m.registry.Lookup(service)
	if err != nil {
		return err
	}
	if userID == "" {
		return domain.ErrValidation
	}
	for name := range fields {
		if !cfg.HasField(name) {
			return domain.ErrValidation
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(service, userID)
	rec, ok := m.records[key]
	if !ok {
		rec = &tokenRecord{
			service:   service,
			userID:    userID,
			fields:    make(map[string]string),
			createdAt: time.Now(),
		}
		m.records[key] = rec
	}
	for name, value := range fields {
		rec.fields[name] = value
	}
	rec.updatedAt = time.Now()
	return nil
}

func (m *MockTokenStore) Get(ctx context.Context, service, userID string) (map[string]string, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if _, err := m.registry.Lookup(service); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordKey(service, userID)]
	if !ok {
		return nil, nil
	}
	fields := make(map[string]string, len(rec.fields))
	for name, value := range rec.fields {
		fields[name] = value
	}
	return fields, nil
}

func (m *MockTokenStore) Delete(ctx context.Context, service, userID string) (bool, error) {
	if _, err := m.registry.Lookup(service); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(service, userID)
	if _, ok := m.records[key]; !ok {
		return false, nil
	}
	delete(m.records, key)
	return true, nil
}

func (m *MockTokenStore) DeleteAllForUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []string
	for _, service := range m.registry.Services() {
		key := recordKey(service, userID)
		if _, ok := m.records[key]; ok {
			delete(m.records, key)
			deleted = append(deleted, service)
		}
	}
	return deleted, nil
}

func (m *MockTokenStore) ListUsers(ctx context.Context, service string) ([]string, error) {
	if _, err := m.registry.Lookup(service); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*tokenRecord
	for _, rec := range m.records {
		if rec.service == service {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].updatedAt.After(recs[j].updatedAt)
	})

	users := make([]string, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.userID)
	}
	return users, nil
}

func (m *MockTokenStore) ListServicesForUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var services []string
	for _, rec := range m.records {
		if rec.userID == userID {
			services = append(services, rec.service)
		}
	}
	sort.Strings(services)
	return services, nil
}

func (m *MockTokenStore) Summaries(ctx context.Context, service string) ([]domain.TokenSummary, error) {
	cfg, err := m.registry.Lookup(service)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*tokenRecord
	for _, rec := range m.records {
		if rec.service == service {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].updatedAt.After(recs[j].updatedAt)
	})

	summaries := make([]domain.TokenSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, domain.SummariseToken(cfg, rec.userID, rec.fields, rec.createdAt, rec.updatedAt))
	}
	return summaries, nil
}
