package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"signaling-service/logger"
	"signaling-service/src/config"

	_ "github.com/lib/pq"

	"github.com/sirupsen/logrus"
)

// schema holds the call-record archive table. Live call state never touches
// the database; only finished calls land here.
const schema = `
	CREATE TABLE IF NOT EXISTS call_records (
		session_id      VARCHAR(255) PRIMARY KEY,
		caller_id       VARCHAR(255) NOT NULL,
		target_id       VARCHAR(255) NOT NULL,
		last_status     VARCHAR(16)  NOT NULL,
		end_reason      VARCHAR(16)  NOT NULL,
		candidate_count INTEGER      NOT NULL DEFAULT 0,
		started_at      TIMESTAMP    NOT NULL,
		ended_at        TIMESTAMP    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_call_records_caller_id ON call_records(caller_id);
	CREATE INDEX IF NOT EXISTS idx_call_records_target_id ON call_records(target_id);
	CREATE INDEX IF NOT EXISTS idx_call_records_ended_at  ON call_records(ended_at);
`

// DB represents the database connection and operations
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection
func NewDB(cfg *config.GlobalConfig) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Set connection pool settings
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"host":     cfg.DatabaseHost,
		"port":     cfg.DatabasePort,
		"database": cfg.DatabaseName,
	}).Info("Connected to PostgreSQL database")

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// GetConnection returns the underlying sql.DB connection
func (db *DB) GetConnection() *sql.DB {
	return db.conn
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// initSchema creates the archive table and its indexes if they do not exist.
func initSchema(conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema script: %w", err)
	}

	logger.Logger.Info("Database schema created/verified")
	return nil
}
