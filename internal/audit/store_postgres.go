package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"gatekeeper/pkg/domain"
)

// PostgresStore appends audit events to the audit_events table. There are
// deliberately no UPDATE or DELETE statements in this file.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}

	var accountID *uuid.UUID
	if event.AccountID != nil {
		uid := uuid.UUID(*event.AccountID)
		accountID = &uid
	}

	query := `
		INSERT INTO audit_events (id, account_id, action, timestamp, origin, success, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		accountID,
		string(event.Action),
		event.Timestamp,
		event.Origin,
		event.Success,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID domain.AccountID, limit int) ([]Event, error) {
	query := `
		SELECT id, account_id, action, timestamp, origin, success, detail
		FROM audit_events
		WHERE account_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(accountID), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, account_id, action, timestamp, origin, success, detail
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

const defaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event

	for rows.Next() {
		var (
			event     Event
			eventID   uuid.UUID
			accountID *uuid.UUID
			action    string
			detail    []byte
		)
		err := rows.Scan(&eventID, &accountID, &action, &event.Timestamp, &event.Origin, &event.Success, &detail)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ID = domain.EventID(eventID)
		event.Action = Action(action)
		if accountID != nil {
			aid := domain.AccountID(*accountID)
			event.AccountID = &aid
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
