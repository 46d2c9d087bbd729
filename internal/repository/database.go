package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrRunNotFound     = errors.New("run not found in datasource")
	ErrSummaryNotFound = errors.New("summary not found in datasource")
	ErrNoDatabaseURL   = errors.New("database url is empty")
)

//go:embed schema.sql
var schema string

type runsRepository interface {
	GetRun(ctx context.Context, id string) (Run, error)
	ListRunMarks(ctx context.Context, runID string) ([]RunMark, error)
}
type eventsRepository interface {
	ListRunFills(ctx context.Context, runID string) ([]RunFill, error)
	ListRunOrderEvents(ctx context.Context, runID string) ([]RunOrderEvent, error)
}
type summariesRepository interface {
	UpsertRunSummary(ctx context.Context, arg UpsertRunSummaryParams) error
	GetRunSummary(ctx context.Context, runID string) ([]byte, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	runs      runsRepository
	events    eventsRepository
	summaries summariesRepository
	conn      *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (Database, error) {
	if dbURL == "" {
		return Database{}, ErrNoDatabaseURL
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return Database{}, err
	}

	queries := NewQueries(conn)
	return Database{
		runs:      queries,
		events:    queries,
		summaries: queries,
		conn:      conn}, nil
}

// Migrate creates the run tables when they do not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
