package nutrition

import (
	"context"
	"sort"
	"sync"
)

// MemoryProvider keeps entries and grants in memory. It backs dev mode and
// tests.
type MemoryProvider struct {
	mu      sync.Mutex
	entries []Entry
	granted map[Permission]bool
}

// NewMemoryProvider returns a provider holding entries, with every required
// permission granted.
func NewMemoryProvider(entries ...Entry) *MemoryProvider {
	m := &MemoryProvider{granted: make(map[Permission]bool)}
	m.entries = append(m.entries, entries...)
	for _, p := range RequiredPermissions {
		m.granted[p] = true
	}
	return m
}

// Add records entries.
func (m *MemoryProvider) Add(entries ...Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

// Grant adds permissions.
func (m *MemoryProvider) Grant(perms ...Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range perms {
		m.granted[p] = true
	}
}

// Revoke removes permissions.
func (m *MemoryProvider) Revoke(perms ...Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range perms {
		delete(m.granted, p)
	}
}

func (m *MemoryProvider) GrantedPermissions(ctx context.Context) ([]Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, 0, len(m.granted))
	for p := range m.granted {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *MemoryProvider) ReadNutrition(ctx context.Context, w TimeWindow) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if w.Contains(e.Time) {
			out = append(out, e)
		}
	}
	return out, nil
}

// unavailable is a Provider that fails every call with the same error.
type unavailable struct {
	err *ProviderUnavailableError
}

// Unavailable returns a Provider standing in for one that could not be
// opened. Every call fails with err.
func Unavailable(err *ProviderUnavailableError) Provider {
	return unavailable{err: err}
}

func (u unavailable) GrantedPermissions(context.Context) ([]Permission, error) {
	return nil, u.err
}

func (u unavailable) ReadNutrition(context.Context, TimeWindow) ([]Entry, error) {
	return nil, u.err
}
