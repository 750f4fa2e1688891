package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_rounds (
	id               BIGSERIAL PRIMARY KEY,
	round_number     INTEGER NOT NULL,
	round_start_time TIMESTAMPTZ NOT NULL,
	round_end_time   TIMESTAMPTZ NOT NULL,
	a1_result        SMALLINT,
	a2_result        SMALLINT,
	b1_result        SMALLINT,
	b2_result        SMALLINT,
	c1_result        SMALLINT,
	c2_result        SMALLINT,
	seed             JSONB,
	status           TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_rounds_start ON game_rounds(round_start_time);

CREATE TABLE IF NOT EXISTS game_history (
	id               BIGSERIAL PRIMARY KEY,
	round_id         BIGINT REFERENCES game_rounds(id),
	round_start_time TIMESTAMPTZ NOT NULL,
	a1               SMALLINT,
	a2               SMALLINT,
	b1               SMALLINT,
	b2               SMALLINT,
	c1               SMALLINT,
	c2               SMALLINT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists rounds and history in Postgres through pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the round tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate round schema: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateRound inserts an active round and returns its id.
func (s *PostgresStore) CreateRound(ctx context.Context, round models.NewRound) (int64, error) {
	seed, err := marshalSeed(round.Seed)
	if err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO game_rounds (round_number, round_start_time, round_end_time, seed, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, q,
		round.RoundIndex, round.StartTime, round.EndTime, seed, string(models.RoundStatusActive),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create round: %w", err)
	}
	return id, nil
}

// UpdateRound writes the assigned outcomes and the status. It returns
// ErrRoundNotFound when no row has the id.
func (s *PostgresStore) UpdateRound(ctx context.Context, id int64, outcomes models.OutcomeSet, status models.RoundStatus) error {
	cols, vals := assignedResults(outcomes)

	sets := make([]string, 0, len(cols)+2)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, vals[i])
	}
	sets = append(sets, fmt.Sprintf("status = $%d", len(args)+1), "updated_at = now()")
	args = append(args, string(status), id)

	q := fmt.Sprintf("UPDATE game_rounds SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrRoundNotFound, id)
	}
	return nil
}

// GetRound loads a round by id.
func (s *PostgresStore) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	const q = `
		SELECT id, round_number, round_start_time, round_end_time,
		       a1_result, a2_result, b1_result, b2_result, c1_result, c2_result,
		       seed, status, created_at, updated_at
		FROM game_rounds
		WHERE id = $1
	`
	var (
		r       models.Round
		results [6]*int16
		seed    pqtype.NullRawMessage
		status  string
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&r.ID, &r.RoundIndex, &r.StartTime, &r.EndTime,
		&results[0], &results[1], &results[2], &results[3], &results[4], &results[5],
		&seed, &status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRoundNotFound, id)
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	r.Status = models.RoundStatus(status)
	r.Outcomes = outcomesFromInt16(results)
	if r.Seed, err = unmarshalSeed(seed); err != nil {
		return nil, err
	}
	return &r, nil
}

// AppendHistory inserts a history row.
func (s *PostgresStore) AppendHistory(ctx context.Context, entry models.HistoryEntry) (int64, error) {
	const q = `
		INSERT INTO game_history (round_id, round_start_time, a1, a2, b1, b2, c1, c2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	args := []any{entry.RoundID, entry.RoundStartTime}
	for _, c := range models.Categories {
		args = append(args, entry.Outcomes[c])
	}

	var id int64
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to append history: %w", err)
	}

	log.Debug().Int64("history_id", id).Msg("history appended")
	return id, nil
}

// ListHistory returns the newest history rows first.
func (s *PostgresStore) ListHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	const q = `
		SELECT id, round_id, round_start_time, a1, a2, b1, b2, c1, c2, created_at
		FROM game_history
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, q, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var (
			e       models.HistoryEntry
			results [6]*int16
		)
		if err := rows.Scan(&e.ID, &e.RoundID, &e.RoundStartTime,
			&results[0], &results[1], &results[2], &results[3], &results[4], &results[5],
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Outcomes = outcomesFromInt16(results)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return out, nil
}

func marshalSeed(seed models.OutcomeSet) (pqtype.NullRawMessage, error) {
	if seed == nil {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(seed)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to marshal seed: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

func unmarshalSeed(raw pqtype.NullRawMessage) (models.OutcomeSet, error) {
	if !raw.Valid {
		return nil, nil
	}
	var seed models.OutcomeSet
	if err := json.Unmarshal(raw.RawMessage, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed: %w", err)
	}
	return seed, nil
}

func outcomesFromInt16(results [6]*int16) models.OutcomeSet {
	out := models.NewOutcomeSet()
	for i, c := range models.Categories {
		if results[i] != nil {
			v := int(*results[i])
			out[c] = &v
		}
	}
	return out
}
