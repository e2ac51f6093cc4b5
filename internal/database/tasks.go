package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/task-notifier/internal/models"
)

// MaxSearchResults caps the rows returned by SearchTasks
const MaxSearchResults = 50

// TaskRepository reads task records from the task store
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FetchDueCandidates returns open tasks due at or before the window horizon, earliest first
func (r *TaskRepository) FetchDueCandidates(ctx context.Context, window models.NotificationWindow) ([]*models.Task, error) {
	d := r.db.dialect
	query := fmt.Sprintf(`
		SELECT id, title, description, due_date, status, priority
		FROM tasks
		WHERE status IN ('pending', 'in_progress')
		  AND due_date IS NOT NULL
		  AND %s <= %s
		ORDER BY %s ASC
	`, d.due, d.placeholder(1), d.due)

	rows, err := r.db.QueryContext(ctx, query, d.instant(window.Horizon))
	if err != nil {
		return nil, &StoreError{Op: "fetch due candidates", Err: err}
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var description, priority sql.NullString
		var due any

		if err := rows.Scan(&task.ID, &task.Title, &description, &due, &task.Status, &priority); err != nil {
			return nil, &StoreError{Op: "scan due candidate", Err: err}
		}

		task.Description = description.String
		task.Priority = models.NormalizePriority(priority.String)
		if task.DueDate, err = NormalizeDueDate(due); err != nil {
			return nil, &StoreError{Op: "scan due candidate", Err: err}
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "iterate due candidates", Err: err}
	}

	return tasks, nil
}

// SearchTasks finds tasks by text and status filter, earliest due first, at most MaxSearchResults rows
func (r *TaskRepository) SearchTasks(ctx context.Context, search models.TaskSearch) ([]*models.Task, error) {
	d := r.db.dialect
	query := `
		SELECT id, title, due_date, status, priority
		FROM tasks
		WHERE 1=1
	`
	var args []any
	argIndex := 1

	if text := strings.TrimSpace(search.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		query += fmt.Sprintf(` AND (title %s %s ESCAPE '\' OR description %s %s ESCAPE '\')`,
			d.like, d.placeholder(argIndex), d.like, d.placeholder(argIndex+1))
		args = append(args, pattern, pattern)
		argIndex += 2
	}

	switch search.Filter {
	case models.SearchFilterPending:
		query += " AND status = 'pending'"
	case models.SearchFilterInProgress:
		query += " AND status = 'in_progress'"
	case models.SearchFilterOverdue:
		now := search.Now
		if now.IsZero() {
			now = time.Now()
		}
		query += fmt.Sprintf(" AND status IN ('pending', 'in_progress') AND %s < %s", d.due, d.placeholder(argIndex))
		args = append(args, d.instant(now))
	}

	query += fmt.Sprintf(" ORDER BY %s ASC NULLS LAST LIMIT %d", d.due, MaxSearchResults)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "search tasks", Err: err}
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var priority sql.NullString
		var due any

		if err := rows.Scan(&task.ID, &task.Title, &due, &task.Status, &priority); err != nil {
			return nil, &StoreError{Op: "scan task", Err: err}
		}

		task.Priority = models.NormalizePriority(priority.String)
		if task.DueDate, err = NormalizeDueDate(due); err != nil {
			return nil, &StoreError{Op: "scan task", Err: err}
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "iterate tasks", Err: err}
	}

	return tasks, nil
}

// dueDateLayouts are the text layouts a due date may be stored in. Layouts without a
// zone are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// NormalizeDueDate converts a scanned due_date value into a UTC instant.
// Date-only values become the start of that day in UTC; NULL yields nil.
func NormalizeDueDate(value any) (*time.Time, error) {
	var t time.Time
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = v
	case []byte:
		return NormalizeDueDate(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		parsed, err := parseDueDate(s)
		if err != nil {
			return nil, err
		}
		t = parsed
	case int64:
		t = time.Unix(v, 0)
	default:
		return nil, fmt.Errorf("unsupported due_date type %T", value)
	}

	t = t.UTC()
	return &t, nil
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized due_date value %q", s)
}

// escapeLike escapes LIKE wildcards so search text matches literally
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
