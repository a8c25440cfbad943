package mocks

import (
	"context"
	"sync"

	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// MockPendingAuthStore is an in-memory mock implementation of PendingAuthStore for testing
type MockPendingAuthStore struct {
	mu      sync.Mutex
	byState map[string]*driven.PendingAuth
	byUser  map[string]string // service:userID -> state
}

// NewMockPendingAuthStore creates a new MockPendingAuthStore
func NewMockPendingAuthStore() *MockPendingAuthStore {
	return &MockPendingAuthStore{
		byState: make(map[string]*driven.PendingAuth),
		byUser:  make(map[string]string),
	}
}

func userKey(service, userID string) string {
	return service + ":" + userID
}

func (m *MockPendingAuthStore) Save(ctx context.Context, pending *driven.PendingAuth) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userKey(pending.Service, pending.UserID)
	if old, ok := m.byUser[key]; ok {
		delete(m.byState, old)
	}
	m.byState[pending.State] = pending
	m.byUser[key] = pending.State
	return nil
}

func (m *MockPendingAuthStore) GetAndDelete(ctx context.Context, service, state string) (*driven.PendingAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.byState[state]
	if !ok || pending.Service != service {
		return nil, nil
	}
	delete(m.byState, state)
	delete(m.byUser, userKey(pending.Service, pending.UserID))
	if pending.Expired() {
		return nil, nil
	}
	return pending, nil
}

func (m *MockPendingAuthStore) GetByUser(ctx context.Context, service, userID string) (*driven.PendingAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.byUser[userKey(service, userID)]
	if !ok {
		return nil, nil
	}
	pending := m.byState[state]
	if pending == nil || pending.Expired() {
		return nil, nil
	}
	return pending, nil
}

func (m *MockPendingAuthStore) Delete(ctx context.Context, service, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userKey(service, userID)
	if state, ok := m.byUser[key]; ok {
		delete(m.byState, state)
		delete(m.byUser, key)
	}
	return nil
}

func (m *MockPendingAuthStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for state, pending := range m.byState {
		if pending.Expired() {
			delete(m.byState, state)
			delete(m.byUser, userKey(pending.Service, pending.UserID))
		}
	}
	return nil
}
