package domain

import "strings"

// Function describes a protected resource keyed by an API URL prefix.
type Function struct {
	ID           int64
	APIURLPrefix string
	Description  string
	Deleted      bool
	DisplayOrder int
}

// Guards reports whether the function's prefix covers path. Matching is a plain
// textual prefix comparison without normalisation, so an empty prefix guards
// every path.
func (f Function) Guards(path string) bool {
	return strings.HasPrefix(path, f.APIURLPrefix)
}

// RoleFunctionGrant links a role with a function it may access.
type RoleFunctionGrant struct {
	RoleID     int64
	FunctionID int64
}
