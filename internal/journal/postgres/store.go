package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
)

// Store persists intent outcomes in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Record inserts one intent outcome.
func (s *Store) Record(ctx context.Context, entry journal.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO intent_outcomes (
			intent_kind, account, pair, outcome, cause, tx_hashes, steps_done, steps_total, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.IntentKind,
		entry.Account,
		entry.Pair,
		entry.Outcome,
		entry.Cause,
		entry.TxHashes,
		entry.StepsDone,
		entry.StepsTotal,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert intent outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT intent_kind, account, pair, outcome, cause, tx_hashes, steps_done, steps_total, recorded_at
		FROM intent_outcomes
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query intent outcomes: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var entry journal.Entry
		if err := rows.Scan(
			&entry.IntentKind,
			&entry.Account,
			&entry.Pair,
			&entry.Outcome,
			&entry.Cause,
			&entry.TxHashes,
			&entry.StepsDone,
			&entry.StepsTotal,
			&entry.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan intent outcome: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read intent outcomes: %w", err)
	}
	return entries, nil
}
