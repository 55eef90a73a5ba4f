package domain

// Identity mirrors the persisted representation in the users table joined with its roles.
type Identity struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Active       bool
	Verified     bool
	Deleted      bool
	Roles        []Role
}

// Role is a named permission bundle granting zero or more Functions.
type Role struct {
	ID      int64
	Name    string
	Type    int
	Deleted bool
}

// RoleIDs returns the identifiers of the identity's roles in stored order.
func (i *Identity) RoleIDs() []int64 {
	if i == nil {
		return nil
	}
	ids := make([]int64, 0, len(i.Roles))
	for _, role := range i.Roles {
		ids = append(ids, role.ID)
	}
	return ids
}

// RoleNames returns the role names embedded into issued tokens.
func (i *Identity) RoleNames() []string {
	if i == nil {
		return nil
	}
	names := make([]string, 0, len(i.Roles))
	for _, role := range i.Roles {
		names = append(names, role.Name)
	}
	return names
}

// HasRoles reports whether at least one role is attached.
func (i *Identity) HasRoles() bool {
	return i != nil && len(i.Roles) > 0
}
