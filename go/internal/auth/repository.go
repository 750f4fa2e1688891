package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/sqlutil"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Dialect selects the SQL flavor of the users table.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

const postgresUsersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	token         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);
`

const sqliteUsersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	token         TEXT,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);
`

// Repository implements user data access on database/sql.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// NewRepository creates a users repository.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// schema returns the users table DDL for the dialect.
func schema(d Dialect) string {
	if d == DialectSQLite {
		return sqliteUsersSchema
	}
	return postgresUsersSchema
}

// Migrate creates the users table if needed.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema(r.dialect)); err != nil {
		return fmt.Errorf("failed to migrate users schema: %w", err)
	}
	return nil
}

// CreateUser inserts a user and returns it.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	var created any = now
	if r.dialect == DialectSQLite {
		created = sqlutil.ToUnixMilli(now)
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		r.rebind("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id"),
		username, passwordHash, created,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &models.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, "username = ?", username)
}

// GetUserByToken retrieves the user currently holding token.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	return r.getUser(ctx, "token = ?", token)
}

// SetToken stores the active session token for a user.
func (r *Repository) SetToken(ctx context.Context, userID int64, token *string) error {
	res, err := r.db.ExecContext(ctx, r.rebind("UPDATE users SET token = ? WHERE id = ?"), sqlutil.ToSqlString(token), userID)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u     models.User
		token sql.NullString
	)
	q := r.rebind("SELECT id, username, password_hash, token FROM users WHERE " + where)
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Token = sqlutil.FromSqlStringPtr(token)
	return &u, nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (r *Repository) rebind(q string) string {
	if r.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
