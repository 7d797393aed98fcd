package nutrition

import (
	"context"
	"fmt"
)

// Provider is a health-data source.
type Provider interface {
	// GrantedPermissions returns the permissions the user has granted.
	GrantedPermissions(ctx context.Context) ([]Permission, error)
	// ReadNutrition returns the entries recorded inside w.
	ReadNutrition(ctx context.Context, w TimeWindow) ([]Entry, error)
}

// Tracker reads and summarizes nutrition through a Provider. It checks
// permissions itself before every read rather than relying on the provider
// to reject the query.
type Tracker struct {
	provider Provider
	target   float64
}

// NewTracker returns a Tracker for the given daily target. A non-positive
// target is rejected here rather than on the first fetch.
func NewTracker(p Provider, target float64) (*Tracker, error) {
	if _, err := Summarize(nil, target); err != nil {
		return nil, err
	}
	return &Tracker{provider: p, target: target}, nil
}

// Target returns the daily calorie target.
func (t *Tracker) Target() float64 { return t.target }

// Fetch checks permissions, reads the window and summarizes it. A missing
// permission yields *PermissionError without reading anything.
func (t *Tracker) Fetch(ctx context.Context, w TimeWindow) (Summary, error) {
	granted, err := t.provider.GrantedPermissions(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read granted permissions: %w", err)
	}
	if err := CheckPermissions(granted); err != nil {
		return Summary{}, err
	}

	entries, err := t.provider.ReadNutrition(ctx, w)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read nutrition: %w", err)
	}
	return Summarize(entries, t.target)
}
