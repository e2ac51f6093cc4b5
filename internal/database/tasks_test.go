package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/benvon/task-notifier/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func insertTask(t *testing.T, db *DB, title, description string, due any, status models.TaskStatus, priority string) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO tasks (title, description, due_date, status, priority) VALUES (?, ?, ?, ?, ?)`,
		title, description, due, string(status), priority)
	if err != nil {
		t.Fatalf("Failed to insert task %q: %v", title, err)
	}
}

func titles(tasks []*models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func sameTitles(got []*models.Task, want ...string) bool {
	g := titles(got)
	if len(g) != len(want) {
		return false
	}
	for i := range want {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTaskRepository_FetchDueCandidates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	insertTask(t, db, "overdue", "", now.Add(-2*time.Hour), models.TaskStatusPending, "high")
	insertTask(t, db, "soon", "in a bit", now.Add(3*time.Hour), models.TaskStatusInProgress, "")
	insertTask(t, db, "far", "", now.Add(48*time.Hour), models.TaskStatusPending, "normal")
	insertTask(t, db, "done", "", now.Add(-time.Hour), models.TaskStatusCompleted, "normal")
	insertTask(t, db, "cancelled", "", now.Add(time.Hour), models.TaskStatusCancelled, "normal")
	insertTask(t, db, "no due", "", nil, models.TaskStatusPending, "normal")
	insertTask(t, db, "at horizon", "", now.Add(24*time.Hour), models.TaskStatusPending, "urgent")

	tasks, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(now, 24))
	if err != nil {
		t.Fatalf("FetchDueCandidates() error = %v", err)
	}

	if !sameTitles(tasks, "overdue", "soon", "at horizon") {
		t.Fatalf("FetchDueCandidates() titles = %v, want [overdue soon at horizon]", titles(tasks))
	}

	first := tasks[0]
	if first.DueDate == nil || !first.DueDate.Equal(now.Add(-2*time.Hour)) {
		t.Errorf("Expected due date %v, got %v", now.Add(-2*time.Hour), first.DueDate)
	}
	if first.Priority != models.PriorityHigh {
		t.Errorf("Expected priority high, got %s", first.Priority)
	}
	if first.ID == "" {
		t.Error("Expected task ID to be populated")
	}
	if tasks[1].Description != "in a bit" {
		t.Errorf("Expected description 'in a bit', got %q", tasks[1].Description)
	}
	if tasks[1].Priority != models.PriorityNormal {
		t.Errorf("Expected empty priority to normalize to normal, got %s", tasks[1].Priority)
	}
	if tasks[1].Status != models.TaskStatusInProgress {
		t.Errorf("Expected status in_progress, got %s", tasks[1].Status)
	}
}

func TestTaskRepository_FetchDueCandidates_ZeroLead(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	insertTask(t, db, "overdue", "", now.Add(-time.Minute), models.TaskStatusPending, "normal")
	insertTask(t, db, "upcoming", "", now.Add(time.Minute), models.TaskStatusPending, "normal")

	tasks, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(now, 0))
	if err != nil {
		t.Fatalf("FetchDueCandidates() error = %v", err)
	}
	if !sameTitles(tasks, "overdue") {
		t.Errorf("FetchDueCandidates() titles = %v, want [overdue]", titles(tasks))
	}
}

func TestTaskRepository_FetchDueCandidates_DateOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)

	insertTask(t, db, "date only", "", "2024-03-01", models.TaskStatusPending, "normal")

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tasks, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(now, 24))
	if err != nil {
		t.Fatalf("FetchDueCandidates() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if tasks[0].DueDate == nil || !tasks[0].DueDate.Equal(want) {
		t.Errorf("Expected date-only due to be start of day UTC %v, got %v", want, tasks[0].DueDate)
	}
}

func TestTaskRepository_SearchTasks(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	insertTask(t, db, "Pay rent", "monthly", now.Add(-24*time.Hour), models.TaskStatusPending, "urgent")
	insertTask(t, db, "Call plumber", "kitchen RENT unit", now.Add(2*time.Hour), models.TaskStatusInProgress, "normal")
	insertTask(t, db, "Renew passport", "", nil, models.TaskStatusPending, "normal")
	insertTask(t, db, "Archive receipts", "", now.Add(-48*time.Hour), models.TaskStatusCompleted, "normal")
	insertTask(t, db, "100% done", "literal percent", now.Add(5*time.Hour), models.TaskStatusPending, "normal")

	tests := []struct {
		name   string
		search models.TaskSearch
		want   []string
	}{
		{
			name:   "no filter returns everything, undated last",
			search: models.TaskSearch{},
			want:   []string{"Archive receipts", "Pay rent", "Call plumber", "100% done", "Renew passport"},
		},
		{
			name:   "text matches title or description case-insensitively",
			search: models.TaskSearch{Text: "rent"},
			want:   []string{"Pay rent", "Call plumber"},
		},
		{
			name:   "pending filter",
			search: models.TaskSearch{Filter: models.SearchFilterPending},
			want:   []string{"Pay rent", "100% done", "Renew passport"},
		},
		{
			name:   "in progress filter",
			search: models.TaskSearch{Filter: models.SearchFilterInProgress},
			want:   []string{"Call plumber"},
		},
		{
			name:   "overdue filter excludes closed tasks",
			search: models.TaskSearch{Filter: models.SearchFilterOverdue, Now: now},
			want:   []string{"Pay rent"},
		},
		{
			name:   "all filter",
			search: models.TaskSearch{Text: "re", Filter: models.SearchFilterAll},
			want:   []string{"Archive receipts", "Pay rent", "Call plumber", "Renew passport"},
		},
		{
			name:   "wildcards match literally",
			search: models.TaskSearch{Text: "%"},
			want:   []string{"100% done"},
		},
		{
			name:   "text and filter combine",
			search: models.TaskSearch{Text: "rent", Filter: models.SearchFilterInProgress},
			want:   []string{"Call plumber"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.SearchTasks(context.Background(), tt.search)
			if err != nil {
				t.Fatalf("SearchTasks() error = %v", err)
			}
			if !sameTitles(tasks, tt.want...) {
				t.Errorf("SearchTasks() titles = %v, want %v", titles(tasks), tt.want)
			}
		})
	}
}

func TestTaskRepository_SearchTasks_Limit(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < MaxSearchResults+10; i++ {
		insertTask(t, db, fmt.Sprintf("task %02d", i), "", base.Add(time.Duration(i)*time.Minute), models.TaskStatusPending, "normal")
	}

	tasks, err := repo.SearchTasks(context.Background(), models.TaskSearch{})
	if err != nil {
		t.Fatalf("SearchTasks() error = %v", err)
	}
	if len(tasks) != MaxSearchResults {
		t.Errorf("Expected %d results, got %d", MaxSearchResults, len(tasks))
	}
	if tasks[0].Title != "task 00" {
		t.Errorf("Expected earliest task first, got %s", tasks[0].Title)
	}
}

func TestTaskRepository_ClosedStoreIsUnavailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)

	if err := db.current().Close(); err != nil {
		t.Fatalf("Failed to close pool: %v", err)
	}

	_, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(time.Now(), 24))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}

	if err := db.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if _, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(time.Now(), 24)); err != nil {
		t.Errorf("Expected queries to succeed after reconnect, got %v", err)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	if _, err := New("mysql", "root@/tasks"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestNormalizeDueDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		value   any
		want    *time.Time
		wantErr bool
	}{
		{name: "nil", value: nil, want: nil},
		{name: "empty string", value: "", want: nil},
		{name: "time in other zone", value: want.In(time.FixedZone("CET", 3600)), want: &want},
		{name: "rfc3339", value: "2024-03-01T09:30:00Z", want: &want},
		{name: "sqlite layout", value: "2024-03-01 09:30:00+00:00", want: &want},
		{name: "naive timestamp read as UTC", value: "2024-03-01 09:30:00", want: &want},
		{name: "bytes", value: []byte("2024-03-01T09:30:00"), want: &want},
		{name: "garbage", value: "next tuesday", wantErr: true},
		{name: "unsupported type", value: 3.14, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeDueDate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDueDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeDueDate() = %v, want %v", got, tt.want)
			}
			if got != nil {
				if !got.Equal(*tt.want) {
					t.Errorf("NormalizeDueDate() = %v, want %v", got, tt.want)
				}
				if got.Location() != time.UTC {
					t.Errorf("Expected UTC location, got %v", got.Location())
				}
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("escapeLike() = %q", got)
	}
}

func TestOpen_DefersConnection(t *testing.T) {
	t.Parallel()

	db, err := Open(DriverPostgres, "postgres://notifier@127.0.0.1:1/tasks?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = NewTaskRepository(db).FetchDueCandidates(ctx, models.NewNotificationWindow(time.Now(), 24))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from unreachable store, got %v", err)
	}
	if err := db.Reconnect(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected Reconnect to fail with ErrStoreUnavailable, got %v", err)
	}
}

func TestDB_ClosedHandle(t *testing.T) {
	db := newTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := db.PingContext(context.Background()); err == nil {
		t.Error("Expected ping on closed handle to fail")
	}
	_, err := NewTaskRepository(db).SearchTasks(context.Background(), models.TaskSearch{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestTaskRepository_FetchDueCandidates_MixedLayouts(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	// horizon is 2024-03-11 12:00 UTC

	insertTask(t, db, "inside plus5", "", "2024-03-11T16:00:00+05:00", models.TaskStatusPending, "normal")
	insertTask(t, db, "outside minus5", "", "2024-03-11T10:00:00-05:00", models.TaskStatusPending, "normal")
	insertTask(t, db, "overdue rfc3339", "", "2024-03-10T10:00:00Z", models.TaskStatusPending, "high")
	insertTask(t, db, "horizon plus2", "", "2024-03-11T14:00:00+02:00", models.TaskStatusInProgress, "normal")
	insertTask(t, db, "soon", "", now.Add(3*time.Hour), models.TaskStatusPending, "normal")

	tasks, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(now, 24))
	if err != nil {
		t.Fatalf("FetchDueCandidates() error = %v", err)
	}
	if !sameTitles(tasks, "overdue rfc3339", "soon", "inside plus5", "horizon plus2") {
		t.Fatalf("FetchDueCandidates() titles = %v, want [overdue rfc3339 soon inside plus5 horizon plus2]", titles(tasks))
	}

	want := time.Date(2024, 3, 11, 11, 0, 0, 0, time.UTC)
	if tasks[2].DueDate == nil || !tasks[2].DueDate.Equal(want) {
		t.Errorf("Expected offset due to normalize to %v, got %v", want, tasks[2].DueDate)
	}
}

func TestTaskRepository_FetchDueCandidates_OverdueTForm(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	insertTask(t, db, "overdue", "", "2024-03-10T10:00:00Z", models.TaskStatusPending, "normal")
	insertTask(t, db, "later today", "", "2024-03-10T18:00:00Z", models.TaskStatusPending, "normal")

	tasks, err := repo.FetchDueCandidates(context.Background(), models.NewNotificationWindow(now, 0))
	if err != nil {
		t.Fatalf("FetchDueCandidates() error = %v", err)
	}
	if !sameTitles(tasks, "overdue") {
		t.Errorf("FetchDueCandidates() titles = %v, want [overdue]", titles(tasks))
	}
}

func TestTaskRepository_SearchTasks_OverdueWithOffsets(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	insertTask(t, db, "overdue plus5", "", "2024-03-10T13:00:00+05:00", models.TaskStatusPending, "normal")
	insertTask(t, db, "upcoming minus5", "", "2024-03-10T08:00:00-05:00", models.TaskStatusPending, "normal")
	insertTask(t, db, "overdue t-form", "", "2024-03-10T11:30:00Z", models.TaskStatusInProgress, "normal")

	tasks, err := repo.SearchTasks(context.Background(), models.TaskSearch{Filter: models.SearchFilterOverdue, Now: now})
	if err != nil {
		t.Fatalf("SearchTasks() error = %v", err)
	}
	if !sameTitles(tasks, "overdue plus5", "overdue t-form") {
		t.Errorf("SearchTasks() titles = %v, want [overdue plus5 overdue t-form]", titles(tasks))
	}
}

func TestDB_ReconnectCreatesSQLiteSchema(t *testing.T) {
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}

	tasks, err := NewTaskRepository(db).FetchDueCandidates(ctx, models.NewNotificationWindow(time.Now(), 24))
	if err != nil {
		t.Fatalf("FetchDueCandidates() after reconnect error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks in a fresh store, got %d", len(tasks))
	}
}
