package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/financialmanagement/backend/internal/policy"
	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from TEST_* environment variables.
// The boolean result is false when no test database is configured, which lets callers skip.
func LoadTestConfig() (*Config, bool, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		Environment: "test",
		Visibility:  policy.VisibilityRestricted,
	}
	cfg.Logging.Level = "debug"
	cfg.CORS.AllowedOrigins = []string{"*"}

	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")
	dbPortStr := os.Getenv("TEST_DB_PORT")
	if cfg.Database.Host == "" || dbPortStr == "" || cfg.Database.User == "" || cfg.Database.DBName == "" {
		return cfg, false, nil
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, false, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	cfg.JWT.Secret = os.Getenv("TEST_JWT_SECRET")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "integration-test-secret"
	}
	cfg.JWT.AccessTokenExpiry = 30 * time.Minute
	cfg.JWT.RefreshTokenExpiry = 7 * 24 * time.Hour

	return cfg, true, nil
}
