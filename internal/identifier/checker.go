package identifier

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/perpexbistro/ride-hailing/pkg/cache"
)

// Reserver is the subset of cache.Store used for reservations
type Reserver interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

var _ Reserver = (*cache.Store)(nil)

// ReservationChecker claims a candidate in Redis with SETNX, so two
// instances generating concurrently never hand out the same value.
// A failed claim counts as a collision.
type ReservationChecker struct {
	store Reserver
	ttl   time.Duration
	next  Checker
}

// NewReservationChecker creates a reservation checker. When next is set, a
// successfully reserved candidate is also checked against it.
func NewReservationChecker(store Reserver, ttl time.Duration, next Checker) *ReservationChecker {
	return &ReservationChecker{store: store, ttl: ttl, next: next}
}

// Exists reports true when the candidate is already reserved or persisted
func (c *ReservationChecker) Exists(ctx context.Context, id string) (bool, error) {
	reserved, err := c.store.SetNX(ctx, "reserve:"+id, []byte("1"), c.ttl)
	if err != nil {
		return false, err
	}
	if !reserved {
		return true, nil
	}
	if c.next == nil {
		return false, nil
	}
	return c.next.Exists(ctx, id)
}

// SQLChecker looks a candidate up in a table column
type SQLChecker struct {
	db    *sqlx.DB
	query string
}

// NewSQLChecker creates a checker for table.column. Both names are trusted
// identifiers from code, never user input.
func NewSQLChecker(db *sqlx.DB, table, column string) *SQLChecker {
	return &SQLChecker{
		db:    db,
		query: "SELECT EXISTS(SELECT 1 FROM " + table + " WHERE " + column + " = $1)",
	}
}

// Exists runs the EXISTS query
func (c *SQLChecker) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := c.db.GetContext(ctx, &exists, c.query, id); err != nil {
		return false, err
	}
	return exists, nil
}
