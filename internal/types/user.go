package types

import (
	"fmt"
	"time"
)

// PermissionLevel orders what a caller is allowed to do against reports
type PermissionLevel string

const (
	PermissionReadOnly     PermissionLevel = "read_only"
	PermissionCreateIssues PermissionLevel = "create_issues"
	PermissionManageIssues PermissionLevel = "manage_issues"
	PermissionAdmin        PermissionLevel = "admin"
)

// permissionRank imposes the READ_ONLY < CREATE_ISSUES < MANAGE_ISSUES < ADMIN ordering
var permissionRank = map[PermissionLevel]int{
	PermissionReadOnly:     0,
	PermissionCreateIssues: 1,
	PermissionManageIssues: 2,
	PermissionAdmin:        3,
}

// IsValid checks if the permission level value is valid
func (p PermissionLevel) IsValid() bool {
	_, ok := permissionRank[p]
	return ok
}

// AtLeast reports whether p grants everything that other grants
func (p PermissionLevel) AtLeast(other PermissionLevel) bool {
	return permissionRank[p] >= permissionRank[other]
}

// IsolationLevel is the visibility policy governing which other users' data
// a caller may see.
//
// Team and organization levels are declared but not implemented: until a
// membership lookup collaborator exists they behave exactly like strict.
// IsImplemented makes the restriction explicit rather than a silent
// fall-through.
type IsolationLevel string

const (
	IsolationStrict       IsolationLevel = "strict"
	IsolationTeam         IsolationLevel = "team"
	IsolationOrganization IsolationLevel = "organization"
	IsolationPublic       IsolationLevel = "public"
)

// IsValid checks if the isolation level value is valid
func (l IsolationLevel) IsValid() bool {
	switch l {
	case IsolationStrict, IsolationTeam, IsolationOrganization, IsolationPublic:
		return true
	}
	return false
}

// IsImplemented reports whether the level has real visibility semantics.
// Unimplemented levels are treated as strict by the isolation validator.
func (l IsolationLevel) IsImplemented() bool {
	switch l {
	case IsolationStrict, IsolationPublic:
		return true
	}
	return false
}

// UserContext identifies the caller on whose behalf an operation runs.
// It is consumed only to filter and redact; it is never cached beyond a
// single call.
type UserContext struct {
	UserID          string          `json:"user_id"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	IsolationLevel  IsolationLevel  `json:"isolation_level"`
	OrganizationID  string          `json:"organization_id,omitempty"`
	TeamIDs         []string        `json:"team_ids,omitempty"`
	SessionExpiry   time.Time       `json:"session_expiry"`
}

// Validate checks if the user context has valid field values
func (u *UserContext) Validate() error {
	if u.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !u.PermissionLevel.IsValid() {
		return fmt.Errorf("invalid permission level: %s", u.PermissionLevel)
	}
	if !u.IsolationLevel.IsValid() {
		return fmt.Errorf("invalid isolation level: %s", u.IsolationLevel)
	}
	return nil
}

// SessionExpired reports whether the caller's session has lapsed
func (u *UserContext) SessionExpired(now time.Time) bool {
	return !u.SessionExpiry.IsZero() && now.After(u.SessionExpiry)
}
