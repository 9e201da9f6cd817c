package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
)

// RiderRepository stores rider profiles in PostgreSQL
type RiderRepository struct {
	db *sqlx.DB
}

var _ rider.Repository = (*RiderRepository)(nil)

// NewRiderRepository creates a new rider repository
func NewRiderRepository(db *sqlx.DB) *RiderRepository {
	return &RiderRepository{db: db}
}

type riderRow struct {
	ID                     uuid.UUID       `db:"id"`
	UserID                 uuid.UUID       `db:"user_id"`
	Username               string          `db:"username"`
	FullName               string          `db:"full_name"`
	Phone                  string          `db:"phone"`
	PreferredPaymentMethod string          `db:"preferred_payment_method"`
	DefaultPickupLatitude  sql.NullFloat64 `db:"default_pickup_latitude"`
	DefaultPickupLongitude sql.NullFloat64 `db:"default_pickup_longitude"`
	Rating                 float64         `db:"rating"`
	TotalRides             int             `db:"total_rides"`
	IsActive               bool            `db:"is_active"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
}

func (r riderRow) toDomain() *rider.Rider {
	out := &rider.Rider{
		ID:                     r.ID,
		UserID:                 r.UserID,
		Username:               r.Username,
		FullName:               r.FullName,
		Phone:                  r.Phone,
		PreferredPaymentMethod: r.PreferredPaymentMethod,
		Rating:                 r.Rating,
		TotalRides:             r.TotalRides,
		IsActive:               r.IsActive,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
	if r.DefaultPickupLatitude.Valid && r.DefaultPickupLongitude.Valid {
		lat, lng := r.DefaultPickupLatitude.Float64, r.DefaultPickupLongitude.Float64
		out.DefaultPickupLatitude = &lat
		out.DefaultPickupLongitude = &lng
	}
	return out
}

const selectRider = `
SELECT r.id, r.user_id, u.username, u.full_name, r.phone, r.preferred_payment_method,
    r.default_pickup_latitude, r.default_pickup_longitude, r.rating, r.total_rides,
    r.is_active, r.created_at, r.updated_at
FROM riders r JOIN users u ON u.id = r.user_id`

const insertRiderQuery = `
INSERT INTO riders (id, user_id, phone, preferred_payment_method, default_pickup_latitude,
    default_pickup_longitude, rating, total_rides, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (r *RiderRepository) Create(ctx context.Context, rd *rider.Rider) error {
	_, err := r.db.ExecContext(ctx, insertRiderQuery,
		rd.ID, rd.UserID, rd.Phone, rd.PreferredPaymentMethod,
		rd.DefaultPickupLatitude, rd.DefaultPickupLongitude,
		rd.Rating, rd.TotalRides, rd.IsActive, rd.CreatedAt, rd.UpdatedAt,
	)
	if isUniqueViolation(err, "riders_user_id_key") {
		return rider.ErrRiderExists
	}
	if err != nil {
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

func (r *RiderRepository) GetByID(ctx context.Context, id uuid.UUID) (*rider.Rider, error) {
	return r.getOne(ctx, selectRider+` WHERE r.id = $1`, id)
}

func (r *RiderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*rider.Rider, error) {
	return r.getOne(ctx, selectRider+` WHERE r.user_id = $1`, userID)
}

func (r *RiderRepository) getOne(ctx context.Context, query string, arg interface{}) (*rider.Rider, error) {
	var row riderRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rider.ErrRiderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rider: %w", err)
	}
	return row.toDomain(), nil
}

const incrementRiderRidesQuery = `UPDATE riders SET total_rides = total_rides + 1, updated_at = now() WHERE id = $1`

func (r *RiderRepository) IncrementRides(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, incrementRiderRidesQuery, id)
	if err != nil {
		return fmt.Errorf("increment rider rides: %w", err)
	}
	return requireRow(res, rider.ErrRiderNotFound)
}
