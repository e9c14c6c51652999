// Package isolation enforces multi-user visibility and authorization rules
// over issue reports, independent of any scoring logic.
package isolation

import (
	"time"

	"github.com/netra-systems/zen-triage/internal/sanitize"
	"github.com/netra-systems/zen-triage/internal/types"
)

// Operation is an action a caller may attempt against the issue tracker
type Operation string

const (
	OpReadIssues   Operation = "read_issues"
	OpCreateIssue  Operation = "create_issue"
	OpUpdateIssue  Operation = "update_issue"
	OpCloseIssue   Operation = "close_issue"
	OpCommentIssue Operation = "comment_issue"
	OpManageUsers  Operation = "manage_users"
)

// OperationClass groups operations by the permission they require
type OperationClass string

const (
	ClassRead   OperationClass = "read"
	ClassWrite  OperationClass = "write"
	ClassManage OperationClass = "manage"
	ClassAdmin  OperationClass = "admin"
)

// Class returns the permission class an operation belongs to. Unknown
// operations classify as admin, the most restrictive bucket.
func (o Operation) Class() OperationClass {
	switch o {
	case OpReadIssues:
		return ClassRead
	case OpCreateIssue:
		return ClassWrite
	case OpUpdateIssue, OpCloseIssue, OpCommentIssue:
		return ClassManage
	case OpManageUsers:
		return ClassAdmin
	}
	return ClassAdmin
}

// Validator applies visibility filtering and operation authorization.
// Stateless; a single Validator serves concurrent callers.
type Validator struct {
	sanitizer *sanitize.Sanitizer
	now       func() time.Time
}

// New returns a Validator with the default clock
func New() *Validator {
	return &Validator{
		sanitizer: sanitize.New(),
		now:       time.Now,
	}
}

// FilterVisible returns the subset of candidates the caller may see, with
// cross-user identifiers redacted from what is returned.
//
// A caller always sees their own reports. Public isolation sees everything.
// Strict isolation hides anything attributed to another user — and the
// unimplemented team/organization levels deliberately behave the same way
// (see types.IsolationLevel.IsImplemented) rather than guessing at
// membership semantics.
func (v *Validator) FilterVisible(user *types.UserContext, candidates []*types.Issue) []*types.Issue {
	if user == nil {
		return nil
	}

	visible := make([]*types.Issue, 0, len(candidates))
	for _, issue := range candidates {
		if issue == nil {
			continue
		}
		reporter := issue.ReportedBy()
		if reporter == user.UserID {
			visible = append(visible, issue)
			continue
		}
		if user.IsolationLevel == types.IsolationPublic {
			visible = append(visible, issue)
			continue
		}
		// Strict, team, and organization: only unattributed reports show
		if reporter == "" {
			visible = append(visible, redactedCopy(v.sanitizer, user, issue))
		}
	}
	return visible
}

// redactedCopy sanitizes the caller-visible text fields without mutating
// the tracker-owned candidate.
func redactedCopy(s *sanitize.Sanitizer, user *types.UserContext, issue *types.Issue) *types.Issue {
	out := *issue
	out.Title = s.Text(issue.Title, user)
	out.Body = s.Text(issue.Body, user)
	return &out
}

// Authorize decides whether the caller may perform an operation. The second
// return value carries the denial reason, empty when allowed.
//
// operationData may carry a "reported_by" entry naming the user the target
// issue is attributed to; manage-class operations on another user's report
// additionally require that the caller be permitted to see that user's data.
func (v *Validator) Authorize(user *types.UserContext, op Operation, operationData map[string]interface{}) (bool, string) {
	if user == nil {
		return false, "no user context"
	}
	if err := user.Validate(); err != nil {
		return false, "invalid user context: " + err.Error()
	}
	if user.SessionExpired(v.now()) {
		return false, "session expired"
	}

	switch op.Class() {
	case ClassRead:
		return true, ""
	case ClassWrite:
		if !user.PermissionLevel.AtLeast(types.PermissionCreateIssues) {
			return false, "create_issues permission required"
		}
		return true, ""
	case ClassManage:
		if !user.PermissionLevel.AtLeast(types.PermissionManageIssues) {
			return false, "manage_issues permission required"
		}
		if target := targetReporter(operationData); target != "" && target != user.UserID {
			if !v.canSeeUser(user) {
				return false, "target belongs to another user"
			}
		}
		return true, ""
	case ClassAdmin:
		if user.PermissionLevel != types.PermissionAdmin {
			return false, "admin permission required"
		}
		return true, ""
	}
	return false, "unknown operation"
}

// canSeeUser reports whether the caller's isolation level permits acting on
// another user's data. Team/organization fall back to strict until a
// membership collaborator exists.
func (v *Validator) canSeeUser(user *types.UserContext) bool {
	return user.IsolationLevel == types.IsolationPublic
}

func targetReporter(operationData map[string]interface{}) string {
	if operationData == nil {
		return ""
	}
	s, _ := operationData["reported_by"].(string)
	return s
}
