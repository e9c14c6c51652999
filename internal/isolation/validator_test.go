package isolation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/netra-systems/zen-triage/internal/types"
)

func userWith(id string, perm types.PermissionLevel, level types.IsolationLevel) *types.UserContext {
	return &types.UserContext{
		UserID:          id,
		PermissionLevel: perm,
		IsolationLevel:  level,
		SessionExpiry:   time.Now().Add(time.Hour),
	}
}

func attributedIssue(number int, reporter string) *types.Issue {
	return &types.Issue{
		Number: number,
		Title:  "report",
		Body:   "details",
		Labels: []string{"automated", types.ReporterLabelPrefix + reporter},
	}
}

func TestFilterVisible(t *testing.T) {
	own := attributedIssue(1, "user_alpha")
	foreign := attributedIssue(2, "user_beta")
	unattributed := &types.Issue{Number: 3, Title: "anon", Body: "details"}
	candidates := []*types.Issue{own, foreign, unattributed}

	tests := []struct {
		name        string
		level       types.IsolationLevel
		wantNumbers []int
	}{
		{"strict sees own and unattributed", types.IsolationStrict, []int{1, 3}},
		{"public sees everything", types.IsolationPublic, []int{1, 2, 3}},
		{"team behaves like strict until implemented", types.IsolationTeam, []int{1, 3}},
		{"organization behaves like strict until implemented", types.IsolationOrganization, []int{1, 3}},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := userWith("user_alpha", types.PermissionReadOnly, tt.level)
			got := v.FilterVisible(user, candidates)
			var numbers []int
			for _, issue := range got {
				numbers = append(numbers, issue.Number)
			}
			assert.Equal(t, tt.wantNumbers, numbers)
		})
	}
}

func TestFilterVisibleNilUser(t *testing.T) {
	if got := New().FilterVisible(nil, []*types.Issue{attributedIssue(1, "x")}); got != nil {
		t.Errorf("nil user must see nothing, got %v", got)
	}
}

func TestFilterVisibleRedactsUnattributed(t *testing.T) {
	issue := &types.Issue{
		Number: 9,
		Title:  "failure observed by user_beta",
		Body:   "ping oncall@example.com",
	}
	user := userWith("user_alpha", types.PermissionReadOnly, types.IsolationStrict)

	got := New().FilterVisible(user, []*types.Issue{issue})
	if len(got) != 1 {
		t.Fatalf("expected 1 visible issue, got %d", len(got))
	}
	assert.NotContains(t, got[0].Title, "user_beta")
	assert.NotContains(t, got[0].Body, "oncall@example.com")
	// The tracker's copy is never mutated
	assert.Contains(t, issue.Title, "user_beta")
}

func TestFilterVisibleAttributionFromBody(t *testing.T) {
	issue := &types.Issue{
		Number: 4,
		Title:  "report",
		Body:   "details\n\nreported-by: user_beta\n",
	}
	user := userWith("user_alpha", types.PermissionReadOnly, types.IsolationStrict)

	if got := New().FilterVisible(user, []*types.Issue{issue}); len(got) != 0 {
		t.Errorf("body-attributed foreign issue must be hidden, got %v", got)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		user   *types.UserContext
		op     Operation
		data   map[string]interface{}
		want   bool
		reason string
	}{
		{
			name: "read always allowed for valid session",
			user: userWith("u1", types.PermissionReadOnly, types.IsolationStrict),
			op:   OpReadIssues,
			want: true,
		},
		{
			name:   "read-only cannot create",
			user:   userWith("u1", types.PermissionReadOnly, types.IsolationStrict),
			op:     OpCreateIssue,
			want:   false,
			reason: "create_issues permission required",
		},
		{
			name: "create permission can create",
			user: userWith("u1", types.PermissionCreateIssues, types.IsolationStrict),
			op:   OpCreateIssue,
			want: true,
		},
		{
			name:   "create permission cannot close",
			user:   userWith("u1", types.PermissionCreateIssues, types.IsolationStrict),
			op:     OpCloseIssue,
			want:   false,
			reason: "manage_issues permission required",
		},
		{
			name: "manage permission can update own report",
			user: userWith("u1", types.PermissionManageIssues, types.IsolationStrict),
			op:   OpUpdateIssue,
			data: map[string]interface{}{"reported_by": "u1"},
			want: true,
		},
		{
			name:   "manage under strict cannot touch another user's report",
			user:   userWith("u1", types.PermissionManageIssues, types.IsolationStrict),
			op:     OpCommentIssue,
			data:   map[string]interface{}{"reported_by": "u2"},
			want:   false,
			reason: "target belongs to another user",
		},
		{
			name: "manage under public can touch another user's report",
			user: userWith("u1", types.PermissionManageIssues, types.IsolationPublic),
			op:   OpCommentIssue,
			data: map[string]interface{}{"reported_by": "u2"},
			want: true,
		},
		{
			name:   "manage permission cannot administer users",
			user:   userWith("u1", types.PermissionManageIssues, types.IsolationPublic),
			op:     OpManageUsers,
			want:   false,
			reason: "admin permission required",
		},
		{
			name: "admin can administer users",
			user: userWith("u1", types.PermissionAdmin, types.IsolationPublic),
			op:   OpManageUsers,
			want: true,
		},
		{
			name:   "unknown operation requires admin",
			user:   userWith("u1", types.PermissionManageIssues, types.IsolationPublic),
			op:     Operation("defragment"),
			want:   false,
			reason: "admin permission required",
		},
		{
			name:   "nil user denied",
			user:   nil,
			op:     OpReadIssues,
			want:   false,
			reason: "no user context",
		},
		{
			name:   "invalid permission level denied",
			user:   userWith("u1", types.PermissionLevel("owner"), types.IsolationStrict),
			op:     OpReadIssues,
			want:   false,
			reason: "invalid user context: invalid permission level: owner",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, reason := v.Authorize(tt.user, tt.op, tt.data)
			assert.Equal(t, tt.want, allowed)
			if !tt.want {
				assert.Equal(t, tt.reason, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestAuthorizeExpiredSession(t *testing.T) {
	user := userWith("u1", types.PermissionAdmin, types.IsolationPublic)
	user.SessionExpiry = time.Now().Add(-time.Minute)

	allowed, reason := New().Authorize(user, OpReadIssues, nil)
	assert.False(t, allowed)
	assert.Equal(t, "session expired", reason)
}

func TestOperationClass(t *testing.T) {
	tests := []struct {
		op   Operation
		want OperationClass
	}{
		{OpReadIssues, ClassRead},
		{OpCreateIssue, ClassWrite},
		{OpUpdateIssue, ClassManage},
		{OpCloseIssue, ClassManage},
		{OpCommentIssue, ClassManage},
		{OpManageUsers, ClassAdmin},
		{Operation("mystery"), ClassAdmin},
	}
	for _, tt := range tests {
		if got := tt.op.Class(); got != tt.want {
			t.Errorf("Class(%s) = %s, want %s", tt.op, got, tt.want)
		}
	}
}
