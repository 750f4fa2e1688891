package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/sqlutil"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_rounds (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	round_number     INTEGER NOT NULL,
	round_start_time INTEGER NOT NULL,
	round_end_time   INTEGER NOT NULL,
	a1_result        INTEGER,
	a2_result        INTEGER,
	b1_result        INTEGER,
	b2_result        INTEGER,
	c1_result        INTEGER,
	c2_result        INTEGER,
	seed             TEXT,
	status           TEXT NOT NULL DEFAULT 'active',
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_rounds_start ON game_rounds(round_start_time);

CREATE TABLE IF NOT EXISTS game_history (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	round_id         INTEGER REFERENCES game_rounds(id),
	round_start_time INTEGER NOT NULL,
	a1               INTEGER,
	a2               INTEGER,
	b1               INTEGER,
	b2               INTEGER,
	c1               INTEGER,
	c2               INTEGER,
	created_at       INTEGER NOT NULL
);
`

// SQLiteStore persists rounds and history in an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() int64
}

// OpenSQLite opens a SQLite database at path with WAL pragmas and runs the
// schema migration.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database. Call Migrate before use.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: func() int64 { return sqlutil.ToUnixMilli(time.Now()) }}
}

// Migrate creates the round tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqliteSchema)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle so other stores can share it.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRound inserts an active round and returns its id.
func (s *SQLiteStore) CreateRound(ctx context.Context, round models.NewRound) (int64, error) {
	var seed sql.NullString
	if round.Seed != nil {
		data, err := json.Marshal(round.Seed)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal seed: %w", err)
		}
		seed = sql.NullString{String: string(data), Valid: true}
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_rounds (round_number, round_start_time, round_end_time, seed, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		round.RoundIndex,
		sqlutil.ToUnixMilli(round.StartTime),
		sqlutil.ToUnixMilli(round.EndTime),
		seed,
		string(models.RoundStatusActive),
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create round: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read round id: %w", err)
	}
	return id, nil
}

// UpdateRound writes the assigned outcomes and the status. It returns
// ErrRoundNotFound when no row has the id.
func (s *SQLiteStore) UpdateRound(ctx context.Context, id int64, outcomes models.OutcomeSet, status models.RoundStatus) error {
	cols, vals := assignedResults(outcomes)

	sets := make([]string, 0, len(cols)+2)
	args := make([]any, 0, len(cols)+3)
	for i, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, vals[i])
	}
	sets = append(sets, "status = ?", "updated_at = ?")
	args = append(args, string(status), s.now(), id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE game_rounds SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRoundNotFound, id)
	}
	return nil
}

// GetRound loads a round by id.
func (s *SQLiteStore) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	var (
		r                            models.Round
		results                      [6]sql.NullInt32
		seed                         sql.NullString
		status                       string
		start, end, created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, round_number, round_start_time, round_end_time,
		       a1_result, a2_result, b1_result, b2_result, c1_result, c2_result,
		       seed, status, created_at, updated_at
		FROM game_rounds WHERE id = ?`, id).Scan(
		&r.ID, &r.RoundIndex, &start, &end,
		&results[0], &results[1], &results[2], &results[3], &results[4], &results[5],
		&seed, &status, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRoundNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	r.StartTime = sqlutil.FromUnixMilli(start)
	r.EndTime = sqlutil.FromUnixMilli(end)
	r.CreatedAt = sqlutil.FromUnixMilli(created)
	r.UpdatedAt = sqlutil.FromUnixMilli(updated)
	r.Status = models.RoundStatus(status)
	r.Outcomes = outcomesFromNull(results)
	if seed.Valid {
		if err := json.Unmarshal([]byte(seed.String), &r.Seed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal seed: %w", err)
		}
	}
	return &r, nil
}

// AppendHistory inserts a history row.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry models.HistoryEntry) (int64, error) {
	args := []any{sqlutil.ToSqlInt64(entry.RoundID), sqlutil.ToUnixMilli(entry.RoundStartTime)}
	for _, c := range models.Categories {
		args = append(args, sqlutil.ToSqlInt32(entry.Outcomes[c]))
	}
	args = append(args, s.now())

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_history (round_id, round_start_time, a1, a2, b1, b2, c1, c2, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to append history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history id: %w", err)
	}
	return id, nil
}

// ListHistory returns the newest history rows first.
func (s *SQLiteStore) ListHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, round_id, round_start_time, a1, a2, b1, b2, c1, c2, created_at
		FROM game_history
		ORDER BY id DESC
		LIMIT ?`, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var (
			e              models.HistoryEntry
			roundID        sql.NullInt64
			results        [6]sql.NullInt32
			start, created int64
		)
		if err := rows.Scan(&e.ID, &roundID, &start,
			&results[0], &results[1], &results[2], &results[3], &results[4], &results[5],
			&created); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.RoundID = sqlutil.FromSqlInt64(roundID)
		e.RoundStartTime = sqlutil.FromUnixMilli(start)
		e.CreatedAt = sqlutil.FromUnixMilli(created)
		e.Outcomes = outcomesFromNull(results)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return out, nil
}

func outcomesFromNull(results [6]sql.NullInt32) models.OutcomeSet {
	out := models.NewOutcomeSet()
	for i, c := range models.Categories {
		out[c] = sqlutil.FromSqlInt32(results[i])
	}
	return out
}
