package nutrition

import (
	"fmt"
	"strings"
)

// PermissionError reports required permissions that have not been granted.
// The user can grant them and refresh.
type PermissionError struct {
	// Missing holds the display labels of the missing permissions.
	Missing []string
}

func (e *PermissionError) Error() string {
	return "Missing Permissions: " + strings.Join(e.Missing, ", ")
}

// ProviderUnavailableError reports that no health-data provider is reachable.
// It clears only once the provider is installed or created.
type ProviderUnavailableError struct {
	Provider string
	Reason   string
}

func (e *ProviderUnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("health data provider %s unavailable", e.Provider)
	}
	return fmt.Sprintf("health data provider %s unavailable: %s", e.Provider, e.Reason)
}

// ConfigurationError reports a setting the summarizer cannot work with, such
// as a zero calorie target.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
