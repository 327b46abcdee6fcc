package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL string
	ServerAddr  string

	LedgerRPCURL    string
	LedgerProgramID string
	LedgerTimeout   time.Duration
	// ExposeLedgerLogs includes raw program log lines in error responses.
	// Keep off outside development.
	ExposeLedgerLogs bool

	MonitorPollInterval time.Duration
	MonitorMaxAttempts  int

	DraftWindow    time.Duration
	DecisionWindow time.Duration
	AnswerWindow   time.Duration

	AuditSigningKey []byte
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "questledger")
		pass := getenv("POSTGRES_PASSWORD", "questledger_pass")
		db := getenv("POSTGRES_DB", "questledger")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	rpcURL := getenv("LEDGER_RPC_URL", "http://localhost:8899")
	programID := os.Getenv("LEDGER_PROGRAM_ID")
	if programID == "" {
		return nil, fmt.Errorf("LEDGER_PROGRAM_ID is required")
	}

	return &Config{
		DatabaseURL:         dsn,
		ServerAddr:          getenv("SERVER_ADDR", "0.0.0.0:8080"),
		LedgerRPCURL:        rpcURL,
		LedgerProgramID:     programID,
		LedgerTimeout:       parseDuration(getenv("LEDGER_TIMEOUT", "15s"), 15*time.Second),
		ExposeLedgerLogs:    parseBool(getenv("EXPOSE_LEDGER_LOGS", "false"), false),
		MonitorPollInterval: parseDuration(getenv("MONITOR_POLL_INTERVAL", "10s"), 10*time.Second),
		MonitorMaxAttempts:  parseInt(getenv("MONITOR_MAX_ATTEMPTS", "30"), 30),
		DraftWindow:         parseDuration(getenv("DRAFT_WINDOW", "72h"), 72*time.Hour),
		DecisionWindow:      parseDuration(getenv("DECISION_WINDOW", "48h"), 48*time.Hour),
		AnswerWindow:        parseDuration(getenv("ANSWER_WINDOW", "72h"), 72*time.Hour),
		AuditSigningKey:     []byte(getenv("AUDIT_SIGNING_KEY", "")),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
