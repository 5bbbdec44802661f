package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	// Engine holds the scoring tunables. The vote-limit windows are kept as
	// separate knobs: the daily caps rate-limit, the 7-day window detects
	// reciprocal voting rings.
	Engine struct {
		DailyVoteLimit        int
		VotesPerTargetPerDay  int
		MutualVoteWindowDays  int
		MutualVoteThreshold   int
		TrendingWindow        time.Duration
		TrendingCacheTTL      time.Duration
		ActivityRetentionDays int
		SweepCronSpec         string
		CleanupCronSpec       string
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "scoring_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "peerpoint")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC (health endpoint only)
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Engine
	cfg.Engine.DailyVoteLimit = getEnvInt("DAILY_VOTE_LIMIT", 5)
	cfg.Engine.VotesPerTargetPerDay = getEnvInt("VOTES_PER_TARGET_PER_DAY", 2)
	cfg.Engine.MutualVoteWindowDays = getEnvInt("MUTUAL_VOTE_WINDOW_DAYS", 7)
	cfg.Engine.MutualVoteThreshold = getEnvInt("MUTUAL_VOTE_THRESHOLD", 5)
	cfg.Engine.TrendingWindow = time.Duration(getEnvInt("TRENDING_WINDOW_HOURS", 7*24)) * time.Hour
	cfg.Engine.TrendingCacheTTL = time.Duration(getEnvInt("TRENDING_CACHE_TTL_SECONDS", 300)) * time.Second
	cfg.Engine.ActivityRetentionDays = getEnvInt("ACTIVITY_RETENTION_DAYS", 90)
	cfg.Engine.SweepCronSpec = getEnvDefault("SWEEP_CRON", "*/15 * * * *")
	cfg.Engine.CleanupCronSpec = getEnvDefault("CLEANUP_CRON", "30 3 * * *")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
