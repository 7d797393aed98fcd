package nutrition

import (
	"fmt"
	"strings"
)

// Permission names a capability the provider must grant before nutrition
// history can be read.
type Permission string

const (
	ReadNutrition  Permission = "read nutrition"
	ReadHistory    Permission = "read history"
	ReadBackground Permission = "read in background"
)

// RequiredPermissions lists, in display order, every permission checked
// before a query.
var RequiredPermissions = []Permission{ReadNutrition, ReadHistory, ReadBackground}

var permissionLabels = map[Permission]string{
	ReadNutrition:  "Nutrition",
	ReadHistory:    "Health History",
	ReadBackground: "Health Background",
}

// Label returns the short name shown to the user.
func (p Permission) Label() string {
	if l, ok := permissionLabels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePermission accepts a permission name or its label, case-insensitively.
func ParsePermission(s string) (Permission, error) {
	s = strings.TrimSpace(s)
	for _, p := range RequiredPermissions {
		if strings.EqualFold(s, string(p)) || strings.EqualFold(s, p.Label()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// MissingPermissions returns the required permissions absent from granted.
func MissingPermissions(granted []Permission) []Permission {
	have := make(map[Permission]bool, len(granted))
	for _, p := range granted {
		have[p] = true
	}
	var missing []Permission
	for _, p := range RequiredPermissions {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// CheckPermissions returns a *PermissionError naming every missing
// permission, or nil when all are granted.
func CheckPermissions(granted []Permission) error {
	missing := MissingPermissions(granted)
	if len(missing) == 0 {
		return nil
	}
	labels := make([]string, len(missing))
	for i, p := range missing {
		labels[i] = p.Label()
	}
	return &PermissionError{Missing: labels}
}
