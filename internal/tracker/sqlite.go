package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/netra-systems/zen-triage/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS issues (
	number     INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT 'open',
	labels     TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id           TEXT PRIMARY KEY,
	issue_number INTEGER NOT NULL REFERENCES issues(number),
	body         TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_state ON issues(state);
CREATE INDEX IF NOT EXISTS idx_comments_issue ON comments(issue_number);
`

// SQLiteStore implements Tracker against a local sqlite database. It serves
// tests and offline CLI use, and doubles as the reference implementation of
// the search semantics the engine relies on.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Tracker
var _ Tracker = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) a local issue store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode for concurrent readers during parallel candidate searches
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateIssue files a new report so front ends can act on a create_new
// recommendation. The assigned issue number is filled into the returned copy.
func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *types.Issue) (*types.Issue, error) {
	if issue.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	state := issue.State
	if state == "" {
		state = types.IssueStateOpen
	}
	labels, err := json.Marshal(issue.Labels)
	if err != nil {
		return nil, fmt.Errorf("encoding labels: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (title, body, state, labels, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		issue.Title, issue.Body, state, string(labels), now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting issue: %w", err)
	}
	number, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading issue number: %w", err)
	}

	created := *issue
	created.Number = int(number)
	created.State = state
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// SearchIssues implements Tracker with a term-wise LIKE match over title and
// body. Any term matching qualifies; results come back most recently
// updated first.
func (s *SQLiteStore) SearchIssues(ctx context.Context, query string, opts SearchOptions) ([]*types.Issue, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []interface{}
	for _, term := range terms {
		clauses = append(clauses, "(title LIKE ? OR body LIKE ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}

	sqlQuery := "SELECT number, title, body, state, labels, created_at, updated_at FROM issues WHERE (" +
		strings.Join(clauses, " OR ") + ")"
	if opts.State != "" {
		sqlQuery += " AND state = ?"
		args = append(args, opts.State)
	}
	sqlQuery += " ORDER BY updated_at DESC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	sqlQuery += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	defer rows.Close()

	var issues []*types.Issue
	for rows.Next() {
		var issue types.Issue
		var labelsJSON string
		if err := rows.Scan(&issue.Number, &issue.Title, &issue.Body, &issue.State,
			&labelsJSON, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		if err := json.Unmarshal([]byte(labelsJSON), &issue.Labels); err != nil {
			// Tolerate malformed label storage rather than drop the candidate
			issue.Labels = nil
		}
		if matchesLabels(issue.Labels, opts.Labels) {
			issues = append(issues, &issue)
		}
	}
	return issues, rows.Err()
}

// AddComment implements Tracker
func (s *SQLiteStore) AddComment(ctx context.Context, issueNumber int, body string) (*types.Comment, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM issues WHERE number = ?`, issueNumber).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %d not found", issueNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up issue %d: %w", issueNumber, err)
	}

	comment := &types.Comment{
		ID:          uuid.NewString(),
		IssueNumber: issueNumber,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comments (id, issue_number, body, created_at) VALUES (?, ?, ?, ?)`,
		comment.ID, comment.IssueNumber, comment.Body, comment.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	return comment, nil
}

// GetComments returns the comments recorded on an issue, oldest first
func (s *SQLiteStore) GetComments(ctx context.Context, issueNumber int) ([]*types.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_number, body, created_at FROM comments WHERE issue_number = ? ORDER BY created_at ASC`,
		issueNumber)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []*types.Comment
	for rows.Next() {
		var c types.Comment
		var created string
		if err := rows.Scan(&c.ID, &c.IssueNumber, &c.Body, &created); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// matchesLabels reports whether issue labels contain every required label
func matchesLabels(issueLabels, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]bool, len(issueLabels))
	for _, l := range issueLabels {
		set[l] = true
	}
	for _, r := range required {
		if !set[r] {
			return false
		}
	}
	return true
}
