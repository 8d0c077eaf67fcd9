// Package identity models the authenticated principal behind a shopping session
// and fans out identity transitions to interested components.
package identity

import "strings"

// Role is the marketplace role resolved from the profile collections.
type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Identity is an authenticated principal. A nil *Identity means anonymous.
type Identity struct {
	UID   string
	Email string
	Role  Role
	// VendorID is the vendor document owned by a vendor principal.
	VendorID string
}

// Same reports whether a and b refer to the same principal (or are both anonymous).
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(strings.TrimSpace(a.UID), strings.TrimSpace(b.UID))
}

// Clone returns a copy that callers may keep without aliasing.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

// IsVendor reports whether the identity acts for a vendor.
func (i *Identity) IsVendor() bool {
	return i != nil && i.Role == RoleVendor && i.VendorID != ""
}
