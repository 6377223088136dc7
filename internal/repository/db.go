package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Phantawat/car-parking/internal/models"
)

// SQLitePrefix selects the SQLite driver, e.g. "sqlite::memory:" or "sqlite:parking.db".
const SQLitePrefix = "sqlite:"

// DB wraps the pooled database handle.
type DB struct {
	Bun *bun.DB
}

// New opens the connection pool and checks it with a ping. Postgres URLs go
// through the pgx driver; URLs starting with SQLitePrefix open SQLite.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	var bunDB *bun.DB

	if dsn, ok := strings.CutPrefix(databaseURL, SQLitePrefix); ok {
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// an in-memory database lives and dies with its connection
		sqldb.SetMaxOpenConns(1)
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	} else {
		config, err := pgx.ParseConfig(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}

		// pool sizing
		sqldb := stdlib.OpenDB(*config)
		sqldb.SetMaxOpenConns(10)
		sqldb.SetMaxIdleConns(2)
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("ping database: %w", models.Unavailable(err))
	}

	return &DB{Bun: bunDB}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.Bun.Close()
}

// Store returns the record store backed by the pool.
func (db *DB) Store() *Store {
	return NewStore(db.Bun)
}

var tables = []interface{}{
	(*models.Lot)(nil),
	(*models.Level)(nil),
	(*models.Spot)(nil),
	(*models.Vehicle)(nil),
	(*models.Ticket)(nil),
}

var indexes = []struct {
	model   interface{}
	name    string
	columns []string
	unique  bool
	where   string
}{
	{model: (*models.Level)(nil), name: "idx_parking_levels_parking_lot_id", columns: []string{"parking_lot_id"}},
	{model: (*models.Spot)(nil), name: "idx_parking_spots_level_id", columns: []string{"level_id", "is_occupied"}},
	{model: (*models.Ticket)(nil), name: "idx_tickets_vehicle_id", columns: []string{"vehicle_id"}},
	{model: (*models.Ticket)(nil), name: "idx_tickets_start_time", columns: []string{"start_time"}},
	// at most one open ticket per vehicle
	{model: (*models.Ticket)(nil), name: "uq_tickets_open_vehicle", columns: []string{"vehicle_id"}, unique: true, where: "price IS NULL"},
}

// Migrate creates missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for _, m := range tables {
		if _, err := db.Bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	for _, idx := range indexes {
		q := db.Bun.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if idx.where != "" {
			q = q.Where(idx.where)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}
