// Package auth provides permission-based access control for device
// operations.
package auth

// Permission defines an action that can be controlled
type Permission string

// Standard permissions
const (
	PermConfigRead     Permission = "config.read"
	PermConfigValidate Permission = "config.validate"
	PermConfigEdit     Permission = "config.edit"
	PermConfigCommit   Permission = "config.commit"
	PermAuditView      Permission = "audit.view"

	PermAll Permission = "all" // Superuser - allows everything
)

// PermissionCategory groups related permissions
type PermissionCategory struct {
	Name        string
	Description string
	Permissions []Permission
}

// StandardCategories defines standard permission categories
var StandardCategories = []PermissionCategory{
	{
		Name:        "config",
		Description: "Device configuration",
		Permissions: []Permission{PermConfigRead, PermConfigValidate, PermConfigEdit, PermConfigCommit},
	},
	{
		Name:        "audit",
		Description: "Audit log access",
		Permissions: []Permission{PermAuditView},
	},
}

// Context provides context for permission checks
type Context struct {
	Device    string
	Fragment  string
	Interface string
}

// NewContext creates a new permission context
func NewContext() *Context {
	return &Context{}
}

// WithDevice sets the device context
func (c *Context) WithDevice(device string) *Context {
	c.Device = device
	return c
}

// WithFragment sets the fragment context
func (c *Context) WithFragment(fragment string) *Context {
	c.Fragment = fragment
	return c
}

// WithInterface sets the interface context
func (c *Context) WithInterface(iface string) *Context {
	c.Interface = iface
	return c
}

// IsReadOnly returns true if the permission is read-only
func (p Permission) IsReadOnly() bool {
	switch p {
	case PermConfigRead, PermConfigValidate, PermAuditView:
		return true
	}
	return false
}

// IsWriteOperation returns true if the permission involves modification
func (p Permission) IsWriteOperation() bool {
	return !p.IsReadOnly()
}
