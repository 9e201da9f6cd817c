package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/shopspring/decimal"
)

// RideRepository stores rides in PostgreSQL. State changes are single
// conditional UPDATE statements so the precondition and the write cannot be
// separated by a concurrent request.
type RideRepository struct {
	db *sqlx.DB
}

var _ ride.Repository = (*RideRepository)(nil)

// NewRideRepository creates a new ride repository
func NewRideRepository(db *sqlx.DB) *RideRepository {
	return &RideRepository{db: db}
}

type rideRow struct {
	ID               uuid.UUID           `db:"id"`
	Code             string              `db:"code"`
	RiderID          uuid.UUID           `db:"rider_id"`
	DriverID         uuid.NullUUID       `db:"driver_id"`
	PickupAddress    string              `db:"pickup_address"`
	PickupLatitude   float64             `db:"pickup_latitude"`
	PickupLongitude  float64             `db:"pickup_longitude"`
	DropoffAddress   string              `db:"dropoff_address"`
	DropoffLatitude  float64             `db:"dropoff_latitude"`
	DropoffLongitude float64             `db:"dropoff_longitude"`
	Status           string              `db:"status"`
	SurgeMultiplier  decimal.Decimal     `db:"surge_multiplier"`
	Fare             decimal.NullDecimal `db:"fare"`
	PaymentMethod    sql.NullString      `db:"payment_method"`
	PaymentStatus    string              `db:"payment_status"`
	PaidAt           sql.NullTime        `db:"paid_at"`
	CompletedAt      sql.NullTime        `db:"completed_at"`
	CancelledAt      sql.NullTime        `db:"cancelled_at"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

func (r rideRow) toDomain() *ride.Ride {
	out := &ride.Ride{
		ID:               r.ID,
		Code:             r.Code,
		RiderID:          r.RiderID,
		PickupAddress:    r.PickupAddress,
		PickupLatitude:   r.PickupLatitude,
		PickupLongitude:  r.PickupLongitude,
		DropoffAddress:   r.DropoffAddress,
		DropoffLatitude:  r.DropoffLatitude,
		DropoffLongitude: r.DropoffLongitude,
		Status:           ride.Status(r.Status),
		SurgeMultiplier:  r.SurgeMultiplier,
		PaymentStatus:    ride.PaymentStatus(r.PaymentStatus),
		PaidAt:           nullTime(r.PaidAt),
		CompletedAt:      nullTime(r.CompletedAt),
		CancelledAt:      nullTime(r.CancelledAt),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.DriverID.Valid {
		id := r.DriverID.UUID
		out.DriverID = &id
	}
	if r.Fare.Valid {
		f := r.Fare.Decimal
		out.Fare = &f
	}
	if r.PaymentMethod.Valid {
		m := ride.PaymentMethod(r.PaymentMethod.String)
		out.PaymentMethod = &m
	}
	return out
}

const rideColumns = `id, code, rider_id, driver_id, pickup_address, pickup_latitude, pickup_longitude,
dropoff_address, dropoff_latitude, dropoff_longitude, status, surge_multiplier, fare,
payment_method, payment_status, paid_at, completed_at, cancelled_at, created_at, updated_at`

const insertRideQuery = `
INSERT INTO rides (id, code, rider_id, pickup_address, pickup_latitude, pickup_longitude,
    dropoff_address, dropoff_latitude, dropoff_longitude, status, surge_multiplier,
    payment_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

func (r *RideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	_, err := r.db.ExecContext(ctx, insertRideQuery,
		rd.ID, rd.Code, rd.RiderID,
		rd.PickupAddress, rd.PickupLatitude, rd.PickupLongitude,
		rd.DropoffAddress, rd.DropoffLatitude, rd.DropoffLongitude,
		rd.Status, rd.SurgeMultiplier, rd.PaymentStatus,
		rd.CreatedAt, rd.UpdatedAt,
	)
	if isUniqueViolation(err, "rides_code_key") {
		return ride.ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

const getRideQuery = `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	var row rideRow
	err := r.db.GetContext(ctx, &row, getRideQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return row.toDomain(), nil
}

const codeExistsQuery = `SELECT EXISTS(SELECT 1 FROM rides WHERE code = $1)`

func (r *RideRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, codeExistsQuery, code); err != nil {
		return false, fmt.Errorf("check ride code: %w", err)
	}
	return exists, nil
}

const assignDriverQuery = `
UPDATE rides SET driver_id = $2, status = 'ONGOING', updated_at = now()
WHERE id = $1 AND status = 'REQUESTED'
RETURNING ` + rideColumns

func (r *RideRepository) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*ride.Ride, error) {
	return r.conditional(ctx, id, transitionCheck((*ride.Ride).CanAssignDriver), assignDriverQuery, id, driverID)
}

const completeRideQuery = `
UPDATE rides SET status = 'COMPLETED', completed_at = clock_timestamp(), updated_at = now()
WHERE id = $1 AND status = 'ONGOING'
RETURNING ` + rideColumns

func (r *RideRepository) Complete(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	return r.conditional(ctx, id, transitionCheck((*ride.Ride).CanComplete), completeRideQuery, id)
}

const cancelRideQuery = `
UPDATE rides SET status = 'CANCELLED', cancelled_at = clock_timestamp(), updated_at = now()
WHERE id = $1 AND status IN ('REQUESTED', 'ONGOING')
RETURNING ` + rideColumns

func (r *RideRepository) Cancel(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	return r.conditional(ctx, id, transitionCheck((*ride.Ride).CanCancel), cancelRideQuery, id)
}

const setFareQuery = `
UPDATE rides SET fare = $2, updated_at = now()
WHERE id = $1 AND status = 'COMPLETED' AND fare IS NULL
RETURNING ` + rideColumns

func (r *RideRepository) SetFare(ctx context.Context, id uuid.UUID, fare decimal.Decimal) (*ride.Ride, error) {
	return r.conditional(ctx, id, (*ride.Ride).CheckFareSettable, setFareQuery, id, fare)
}

// paid_at takes clock_timestamp() so it records the moment of this write,
// not the start of the surrounding transaction.
const markPaidQuery = `
UPDATE rides SET
    payment_method = COALESCE($2, payment_method),
    payment_status = $3::text,
    paid_at = CASE WHEN $3::text = 'PAID' THEN clock_timestamp() ELSE paid_at END,
    updated_at = now()
WHERE id = $1 AND status = 'COMPLETED' AND payment_status <> 'PAID'
RETURNING ` + rideColumns

func (r *RideRepository) MarkPaid(ctx context.Context, id uuid.UUID, u ride.PaymentUpdate) (*ride.Ride, error) {
	var method sql.NullString
	if u.Method != nil {
		method = sql.NullString{String: string(*u.Method), Valid: true}
	}
	return r.conditional(ctx, id, (*ride.Ride).CheckPayable, markPaidQuery, id, method, string(u.Status))
}

func (r *RideRepository) List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	query, args := listQuery(filter)

	var rows []rideRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	return toRides(rows), nil
}

func listQuery(filter ride.Filter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.DriverID != nil {
		add("driver_id = $%d", *filter.DriverID)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	query := `SELECT ` + rideColumns + ` FROM rides`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	return query, args
}

const listPaidByDriverQuery = `
SELECT ` + rideColumns + ` FROM rides
WHERE driver_id = $1 AND status = 'COMPLETED' AND payment_status = 'PAID' AND completed_at >= $2
ORDER BY completed_at DESC`

func (r *RideRepository) ListPaidByDriver(ctx context.Context, driverID uuid.UUID, since time.Time) ([]*ride.Ride, error) {
	var rows []rideRow
	if err := r.db.SelectContext(ctx, &rows, listPaidByDriverQuery, driverID, since); err != nil {
		return nil, fmt.Errorf("list paid rides: %w", err)
	}
	return toRides(rows), nil
}

// conditional runs an UPDATE ... RETURNING. When no row matched it re-reads
// the ride and reports the precondition that failed.
func (r *RideRepository) conditional(ctx context.Context, id uuid.UUID, check func(*ride.Ride) error, query string, args ...interface{}) (*ride.Ride, error) {
	var row rideRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := check(current); err != nil {
		return nil, err
	}
	return nil, ride.ErrInvalidTransition
}

func transitionCheck(allowed func(*ride.Ride) bool) func(*ride.Ride) error {
	return func(rd *ride.Ride) error {
		if !allowed(rd) {
			return ride.ErrInvalidTransition
		}
		return nil
	}
}

func toRides(rows []rideRow) []*ride.Ride {
	out := make([]*ride.Ride, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
