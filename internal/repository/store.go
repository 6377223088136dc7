package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/Phantawat/car-parking/internal/store"
)

// Store is the bun implementation of store.Store. It is bound either to the
// pool or to a single transaction.
type Store struct {
	db       bun.IDB
	lots     *LotRepository
	levels   *LevelRepository
	spots    *SpotRepository
	vehicles *VehicleRepository
	tickets  *TicketRepository
}

var _ store.Store = (*Store)(nil)

// NewStore builds the entity repositories on top of db.
func NewStore(db bun.IDB) *Store {
	return &Store{
		db:       db,
		lots:     NewLotRepository(db),
		levels:   NewLevelRepository(db),
		spots:    NewSpotRepository(db),
		vehicles: NewVehicleRepository(db),
		tickets:  NewTicketRepository(db),
	}
}

func (s *Store) Lots() store.LotStore         { return s.lots }
func (s *Store) Levels() store.LevelStore     { return s.levels }
func (s *Store) Spots() store.SpotStore       { return s.spots }
func (s *Store) Vehicles() store.VehicleStore { return s.vehicles }
func (s *Store) Tickets() store.TicketStore   { return s.tickets }

// InTx implements store.Store.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if _, ok := s.db.(bun.Tx); ok {
		return fn(ctx, s)
	}

	var fnErr error
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		fnErr = fn(ctx, NewStore(tx))
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return storeError("run transaction", err, nil)
	}
	return err
}

// Ping checks that the store answers queries.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.NewRaw("SELECT 1").Scan(ctx, &one); err != nil {
		return storeError("ping store", err, nil)
	}
	return nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// lockRow appends FOR UPDATE on Postgres. SQLite allows one writer at a time,
// so its transactions are already serialized.
func lockRow(db bun.IDB, q *bun.SelectQuery) *bun.SelectQuery {
	if db.Dialect().Name() == dialect.PG {
		return q.For("UPDATE")
	}
	return q
}
