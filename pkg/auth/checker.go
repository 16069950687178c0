package auth

import (
	"fmt"
	"os/user"

	"github.com/newtron-network/ifconf/pkg/util"
)

// Policy is the access section of the configuration file. Permission maps
// take a permission name (or "all") to the users and groups holding it.
type Policy struct {
	SuperUsers  []string            `yaml:"super_users,omitempty"`
	UserGroups  map[string][]string `yaml:"user_groups,omitempty"`
	Permissions map[string][]string `yaml:"permissions,omitempty"`

	// Devices narrows permissions per device; a device entry is consulted
	// before the global map.
	Devices map[string]map[string][]string `yaml:"devices,omitempty"`
}

// Open reports whether the policy restricts nothing.
func (p *Policy) Open() bool {
	return p == nil || (len(p.SuperUsers) == 0 && len(p.Permissions) == 0 && len(p.Devices) == 0)
}

// Checker validates user permissions
type Checker struct {
	policy      *Policy
	currentUser string
}

// NewChecker creates a permission checker for the OS user. A nil or empty
// policy allows everything.
func NewChecker(policy *Policy) *Checker {
	return &Checker{
		policy:      policy,
		currentUser: CurrentUsername(),
	}
}

// CurrentUsername returns the OS user name, or "unknown".
func CurrentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// SetUser overrides the current user (for testing or sudo)
func (c *Checker) SetUser(username string) {
	c.currentUser = username
}

// CurrentUser returns the current username
func (c *Checker) CurrentUser() string {
	return c.currentUser
}

// Check verifies if the current user has a permission
func (c *Checker) Check(permission Permission, ctx *Context) error {
	return c.CheckUser(c.currentUser, permission, ctx)
}

// CheckUser verifies if a specific user has a permission
func (c *Checker) CheckUser(username string, permission Permission, ctx *Context) error {
	if c.policy.Open() || c.isSuperUser(username) {
		return nil
	}

	// Device-specific permissions first
	if ctx != nil && ctx.Device != "" {
		if perms, ok := c.policy.Devices[ctx.Device]; ok && c.checkPermissionMap(username, permission, perms) {
			return nil
		}
	}

	if c.checkPermissionMap(username, permission, c.policy.Permissions) {
		return nil
	}

	return &PermissionError{
		User:       username,
		Permission: permission,
		Context:    ctx,
	}
}

// IsSuperUser returns true if the current user is a superuser
func (c *Checker) IsSuperUser() bool {
	return c.isSuperUser(c.currentUser)
}

func (c *Checker) isSuperUser(username string) bool {
	if c.policy == nil {
		return false
	}
	for _, su := range c.policy.SuperUsers {
		if su == username {
			return true
		}
	}
	return false
}

// checkPermissionMap checks whether username has the given permission in permMap.
// It first checks the "all" wildcard key, then the specific permission key.
func (c *Checker) checkPermissionMap(username string, permission Permission, permMap map[string][]string) bool {
	if groups, ok := permMap[string(PermAll)]; ok {
		if c.userInGroups(username, groups) {
			return true
		}
	}

	groups, ok := permMap[string(permission)]
	if !ok {
		return false
	}
	return c.userInGroups(username, groups)
}

func (c *Checker) userInGroups(username string, allowedGroups []string) bool {
	for _, group := range allowedGroups {
		if group == username {
			return true
		}
		for _, member := range c.policy.UserGroups[group] {
			if member == username {
				return true
			}
		}
	}
	return false
}

// ListPermissions returns all permissions the current user has
func (c *Checker) ListPermissions() []Permission {
	return c.ListPermissionsForUser(c.currentUser)
}

// ListPermissionsForUser returns the global permissions a user has, in
// category order.
func (c *Checker) ListPermissionsForUser(username string) []Permission {
	if c.policy.Open() || c.isSuperUser(username) {
		return []Permission{PermAll}
	}

	var perms []Permission
	for _, cat := range StandardCategories {
		for _, p := range cat.Permissions {
			if c.checkPermissionMap(username, p, c.policy.Permissions) {
				perms = append(perms, p)
			}
		}
	}
	return perms
}

// PermissionError represents a permission denial
type PermissionError struct {
	User       string
	Permission Permission
	Context    *Context
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied: user '%s' does not have '%s' permission", e.User, e.Permission)
	if e.Context != nil {
		if e.Context.Fragment != "" {
			msg += fmt.Sprintf(" for fragment '%s'", e.Context.Fragment)
		}
		if e.Context.Device != "" {
			msg += fmt.Sprintf(" on device '%s'", e.Context.Device)
		}
	}
	return msg
}

func (e *PermissionError) Unwrap() error {
	return util.ErrPermissionDenied
}
