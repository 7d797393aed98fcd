package db

import (
	"context"
	"sync"

	"github.com/bituwy/wheyout/internal/nutrition"
)

// LazyProvider is a nutrition.Provider for a database that may not exist
// yet. Every call retries OpenExisting until the file appears, so a daemon
// started before the first 'wheyout log' picks the data up on its next
// refresh. Until then calls fail with *nutrition.ProviderUnavailableError.
type LazyProvider struct {
	path string

	mu sync.Mutex
	db *DB
}

var _ nutrition.Provider = (*LazyProvider)(nil)

// NewLazyProvider returns a provider for the database at path. Nothing is
// opened until the first call.
func NewLazyProvider(path string) *LazyProvider {
	return &LazyProvider{path: path}
}

func (l *LazyProvider) open() (*DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db != nil {
		return l.db, nil
	}
	db, err := OpenExisting(l.path)
	if err != nil {
		return nil, err
	}
	l.db = db
	return db, nil
}

func (l *LazyProvider) GrantedPermissions(ctx context.Context) ([]nutrition.Permission, error) {
	db, err := l.open()
	if err != nil {
		return nil, err
	}
	return db.GrantedPermissions(ctx)
}

func (l *LazyProvider) ReadNutrition(ctx context.Context, w nutrition.TimeWindow) ([]nutrition.Entry, error) {
	db, err := l.open()
	if err != nil {
		return nil, err
	}
	return db.ReadNutrition(ctx, w)
}

// Opened reports whether the database has been opened.
func (l *LazyProvider) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db != nil
}

// Close closes the database if it was opened.
func (l *LazyProvider) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
