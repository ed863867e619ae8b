package repository

import (
	"context"
	"fmt"

	"signaling-service/logger"
	"signaling-service/src/db"
	"signaling-service/src/models"
)

// CallRecordRepository handles all database operations for archived calls.
// The archive is append-only: a row is written once when a call leaves the
// in-memory store and is never updated afterwards.
type CallRecordRepository struct {
	db *db.DB
}

// NewCallRecordRepository creates a new call record repository
func NewCallRecordRepository(database *db.DB) *CallRecordRepository {
	return &CallRecordRepository{
		db: database,
	}
}

// Insert archives one finished call.
func (r *CallRecordRepository) Insert(ctx context.Context, rec models.CallRecord) error {
	query := `
		INSERT INTO call_records
		(session_id, caller_id, target_id, last_status, end_reason, candidate_count, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.db.GetConnection().ExecContext(
		ctx,
		query,
		rec.SessionID,
		rec.CallerID,
		rec.TargetID,
		rec.LastStatus,
		rec.EndReason,
		rec.CandidateCount,
		rec.StartedAt,
		rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert call record: %w", err)
	}

	logger.Logger.WithField("session_id", rec.SessionID).Debug("Archived call record")
	return nil
}

// ListByUser returns the most recent records in which the user took part,
// as caller or as target, newest first.
func (r *CallRecordRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.CallRecord, error) {
	query := `
		SELECT session_id, caller_id, target_id, last_status, end_reason, candidate_count, started_at, ended_at
		FROM call_records
		WHERE caller_id = $1 OR target_id = $1
		ORDER BY ended_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetConnection().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	records := []models.CallRecord{}
	for rows.Next() {
		var rec models.CallRecord
		if err := rows.Scan(
			&rec.SessionID,
			&rec.CallerID,
			&rec.TargetID,
			&rec.LastStatus,
			&rec.EndReason,
			&rec.CandidateCount,
			&rec.StartedAt,
			&rec.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read call records: %w", err)
	}

	return records, nil
}
