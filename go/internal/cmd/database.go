package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/wheelround/go/internal/auth"
	"github.com/mcdev12/wheelround/go/internal/config"
	"github.com/mcdev12/wheelround/go/internal/dbconfig"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/repository"
	"github.com/rs/zerolog/log"
)

// RoundStore is everything the service needs from round storage.
type RoundStore interface {
	CreateRound(ctx context.Context, round models.NewRound) (int64, error)
	UpdateRound(ctx context.Context, id int64, outcomes models.OutcomeSet, status models.RoundStatus) error
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	AppendHistory(ctx context.Context, entry models.HistoryEntry) (int64, error)
	ListHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Ping(ctx context.Context) error
}

// Stores bundles the opened databases.
type Stores struct {
	Rounds RoundStore
	Users  *auth.Repository

	closers []func()
}

func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupDatabase(ctx context.Context, cfg config.Config) (*Stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return setupSQLite(ctx, cfg.Storage.SQLitePath)
	default:
		return setupPostgres(ctx, dbconfig.NewConfigFromEnv())
	}
}

func setupPostgres(ctx context.Context, dbCfg dbconfig.Config) (*Stores, error) {
	stores := &Stores{}

	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	stores.closers = append(stores.closers, pool.Close)

	rounds := repository.NewPostgresStore(pool)
	if err := rounds.Ping(ctx); err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := rounds.Migrate(ctx); err != nil {
		stores.Close()
		return nil, err
	}
	stores.Rounds = rounds

	// Users go through database/sql so the same repository serves SQLite.
	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	stores.closers = append(stores.closers, func() { database.Close() })

	if err := database.PingContext(ctx); err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	stores.Users = auth.NewRepository(database, auth.DialectPostgres)
	if err := stores.Users.Migrate(ctx); err != nil {
		stores.Close()
		return nil, err
	}

	log.Info().
		Str("dsn", dbCfg.Redacted()).
		Msg("connected to postgres")
	return stores, nil
}

func setupSQLite(ctx context.Context, path string) (*Stores, error) {
	rounds, err := repository.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	stores := &Stores{
		Rounds:  rounds,
		Users:   auth.NewRepository(rounds.DB(), auth.DialectSQLite),
		closers: []func(){func() { rounds.Close() }},
	}
	if err := stores.Users.Migrate(ctx); err != nil {
		stores.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("opened sqlite database")
	return stores, nil
}
