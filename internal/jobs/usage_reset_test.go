package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pointflow/internal/database"
	"pointflow/internal/models"
)

func setupJobTest(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test_jobs.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	return db
}

func seedProject(t *testing.T, db *database.DB, id, userID, tier string, usageCount int, resetDate string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, email, password_hash, tier, created_at, last_login_at)
		VALUES (?, ?, 'hash', ?, ?, ?)`,
		userID, userID+"@test", tier, now, now)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO projects (id, name, user_id, created_at, last_active, summary_usage_count, summary_usage_reset_date)
		VALUES (?, 'P', ?, ?, ?, ?, ?)`,
		id, userID, now, now, usageCount, resetDate)
	if err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
}

func TestUsageResetRun(t *testing.T) {
	db := setupJobTest(t)

	limits := map[string]models.TierLimits{
		models.TierFree: {MaxProjects: 1, SummariesPerPeriod: 1, SummaryPeriod: 7 * 24 * time.Hour},
	}
	svc, err := NewUsageResetService(db, limits)
	if err != nil {
		t.Fatalf("NewUsageResetService failed: %v", err)
	}
	t.Cleanup(func() { svc.Stop() })

	stale := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	fresh := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	seedProject(t, db, "proj-stale", "u1", models.TierFree, 1, stale)
	seedProject(t, db, "proj-fresh", "u2", models.TierFree, 1, fresh)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var count int
	var resetDate string
	err = db.QueryRowContext(context.Background(),
		`SELECT summary_usage_count, summary_usage_reset_date FROM projects WHERE id = 'proj-stale'`).
		Scan(&count, &resetDate)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Stale project should be reset, count = %d", count)
	}
	if resetDate != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("Expected today's reset date, got %q", resetDate)
	}

	err = db.QueryRowContext(context.Background(),
		`SELECT summary_usage_count FROM projects WHERE id = 'proj-fresh'`).Scan(&count)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Fresh project must keep its usage, count = %d", count)
	}
}
