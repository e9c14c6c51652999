package types

import (
	"strings"
	"time"
)

// Issue states as exposed by the issue tracker
const (
	IssueStateOpen   = "open"
	IssueStateClosed = "closed"
)

// ReporterLabelPrefix marks the label a front end attaches to record which
// user an automated report was filed for, e.g. "reporter:user_42".
const ReporterLabelPrefix = "reporter:"

// Issue is a previously filed report retrieved from the issue-tracking
// collaborator. This engine only reads and scores issues; it never mutates
// them.
//
// CreatedAt and UpdatedAt are kept as the tracker's raw strings: candidates
// with unparseable dates must be retained during lookback filtering, so
// parsing is deferred to the point of use.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	State     string   `json:"state"`
	Labels    []string `json:"labels"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	URL       string   `json:"url"`
}

// issueTimeLayouts are the timestamp formats trackers are known to emit
var issueTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedTime parses the issue's creation timestamp. The second return
// value is false when the tracker's string cannot be parsed; callers must
// treat that conservatively (keep the candidate, never drop it).
func (i *Issue) CreatedTime() (time.Time, bool) {
	s := strings.TrimSpace(i.CreatedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range issueTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReportedBy returns the user an automated report is attributed to, or ""
// when the issue carries no attribution. Attribution comes from a
// "reporter:" label, falling back to a "reported-by:" line in the body.
func (i *Issue) ReportedBy() string {
	for _, label := range i.Labels {
		if strings.HasPrefix(label, ReporterLabelPrefix) {
			return strings.TrimPrefix(label, ReporterLabelPrefix)
		}
	}
	for _, line := range strings.Split(i.Body, "\n") {
		trimmed := strings.TrimSpace(strings.ToLower(line))
		if strings.HasPrefix(trimmed, "reported-by:") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "reported-by:"))
		}
	}
	return ""
}

// Comment is a note recorded on an existing issue by the tracker
type Comment struct {
	ID          string    `json:"id"`
	IssueNumber int       `json:"issue_number"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url,omitempty"`
}
