package preflight

import (
	"fmt"
	"log"
	"os"

	"pointflow/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	db *database.DB
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB) *Checker {
	return &Checker{db: db}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkEnvironmentVariables(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("\n📊 Pre-flight summary: %d passed, %d failed, %d warnings\n", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkDatabaseSchema verifies all required tables exist
func (c *Checker) checkDatabaseSchema() CheckResult {
	requiredTables := []string{
		"users",
		"projects",
		"points",
		"reactions",
		"replies",
		"summaries",
	}

	for _, table := range requiredTables {
		var count int
		query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
		err := c.db.QueryRow(query, table).Scan(&count)
		if err != nil || count == 0 {
			return CheckResult{
				Name:    "Database Schema",
				Status:  "fail",
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  "pass",
		Message: fmt.Sprintf("All %d required tables exist", len(requiredTables)),
	}
}

// checkEnvironmentVariables verifies recommended configuration is present
func (c *Checker) checkEnvironmentVariables() CheckResult {
	if os.Getenv("JWT_SECRET") == "" {
		return CheckResult{
			Name:    "Environment Variables",
			Status:  "warning",
			Message: "JWT_SECRET not set (auth disabled, development mode only)",
		}
	}

	if os.Getenv("AI_API_KEY") == "" {
		return CheckResult{
			Name:    "Environment Variables",
			Status:  "warning",
			Message: "AI_API_KEY not set (summary generation will fail upstream)",
		}
	}

	return CheckResult{
		Name:    "Environment Variables",
		Status:  "pass",
		Message: "All environment variables configured",
	}
}
