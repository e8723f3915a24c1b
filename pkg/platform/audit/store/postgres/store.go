// Package postgres persists the audit trail.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "dokflyt/pkg/platform/audit"
	txcontext "dokflyt/pkg/platform/tx"
)

// Store implements audit.Store on a postgres pool. Writers participate in an
// ambient transaction when one is carried in the context.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a postgres audit store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

// Append inserts one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			category, timestamp, journalpost_id, action, actor, unit, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).Exec(ctx, query,
		string(event.Category),
		event.Timestamp,
		event.JournalpostID,
		event.Action,
		event.Actor,
		event.Unit,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByJournalpost returns the trail for one journalpost, newest first.
func (s *Store) ListByJournalpost(ctx context.Context, journalpostID string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, journalpost_id, action, actor, unit, reason, request_id
		FROM audit_events
		WHERE journalpost_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.pool.Query(ctx, query, journalpostID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, journalpost_id, action, actor, unit, reason, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.JournalpostID,
			&event.Action,
			&event.Actor,
			&event.Unit,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
