package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"pointflow/internal/database"
	"pointflow/internal/models"
)

// UsageResetService rolls over expired summary-usage windows once a day.
// The actor also rolls a stale window lazily before each summary, so this
// job only keeps the stored counters and reset dates fresh for clients
// reading the project directory.
type UsageResetService struct {
	scheduler gocron.Scheduler
	db        *database.DB
	limits    map[string]models.TierLimits
}

// NewUsageResetService creates the reset job on a daily schedule.
func NewUsageResetService(db *database.DB, limits map[string]models.TierLimits) (*UsageResetService, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &UsageResetService{
		scheduler: scheduler,
		db:        db,
		limits:    limits,
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			if err := s.Run(context.Background()); err != nil {
				log.Printf("❌ [USAGE-RESET] Run failed: %v", err)
			}
		}),
		gocron.WithName("summary_usage_reset"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register usage reset job: %w", err)
	}

	return s, nil
}

// Start starts the scheduler.
func (s *UsageResetService) Start() {
	s.scheduler.Start()
	log.Println("⏰ Usage reset job scheduled")
}

// Stop stops the scheduler.
func (s *UsageResetService) Stop() error {
	return s.scheduler.Shutdown()
}

// Run resets the usage window for every project whose period has elapsed,
// per the owner's tier.
func (s *UsageResetService) Run(ctx context.Context) error {
	log.Println("▶️  [USAGE-RESET] Rolling over expired summary windows...")
	today := time.Now().UTC().Format("2006-01-02")

	total := int64(0)
	for tier, limits := range s.limits {
		days := int(limits.SummaryPeriod.Hours() / 24)
		if days <= 0 {
			continue
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
		result, err := s.db.ExecContext(ctx, `
			UPDATE projects
			SET summary_usage_count = 0, summary_usage_reset_date = ?
			WHERE summary_usage_reset_date <= ?
			  AND user_id IN (SELECT id FROM users WHERE tier = ?)`,
			today, cutoff, tier,
		)
		if err != nil {
			return fmt.Errorf("failed to reset usage for tier %s: %w", tier, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			total += n
		}
	}

	log.Printf("✅ [USAGE-RESET] Reset %d projects", total)
	return nil
}
