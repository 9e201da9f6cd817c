package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
)

// DriverRepository stores driver profiles in PostgreSQL
type DriverRepository struct {
	db *sqlx.DB
}

var _ driver.Repository = (*DriverRepository)(nil)

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db *sqlx.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

type driverRow struct {
	ID               uuid.UUID       `db:"id"`
	UserID           uuid.UUID       `db:"user_id"`
	Username         string          `db:"username"`
	FullName         string          `db:"full_name"`
	Phone            string          `db:"phone"`
	LicenseNumber    string          `db:"license_number"`
	LicenseExpiry    time.Time       `db:"license_expiry"`
	VehicleMake      string          `db:"vehicle_make"`
	VehicleModel     string          `db:"vehicle_model"`
	VehicleYear      int             `db:"vehicle_year"`
	VehicleColor     string          `db:"vehicle_color"`
	VehicleType      string          `db:"vehicle_type"`
	LicensePlate     string          `db:"license_plate"`
	CurrentLatitude  sql.NullFloat64 `db:"current_latitude"`
	CurrentLongitude sql.NullFloat64 `db:"current_longitude"`
	Status           string          `db:"availability_status"`
	IsVerified       bool            `db:"is_verified"`
	IsActive         bool            `db:"is_active"`
	Rating           float64         `db:"rating"`
	TotalRides       int             `db:"total_rides"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (r driverRow) toDomain() *driver.Driver {
	d := &driver.Driver{
		ID:            r.ID,
		UserID:        r.UserID,
		Username:      r.Username,
		FullName:      r.FullName,
		Phone:         r.Phone,
		LicenseNumber: r.LicenseNumber,
		LicenseExpiry: r.LicenseExpiry,
		Vehicle: driver.Vehicle{
			Make:  r.VehicleMake,
			Model: r.VehicleModel,
			Year:  r.VehicleYear,
			Color: r.VehicleColor,
			Type:  driver.VehicleType(r.VehicleType),
			Plate: r.LicensePlate,
		},
		Status:     driver.Status(r.Status),
		IsVerified: r.IsVerified,
		IsActive:   r.IsActive,
		Rating:     r.Rating,
		TotalRides: r.TotalRides,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CurrentLatitude.Valid && r.CurrentLongitude.Valid {
		lat, lng := r.CurrentLatitude.Float64, r.CurrentLongitude.Float64
		d.CurrentLatitude = &lat
		d.CurrentLongitude = &lng
	}
	return d
}

const selectDriver = `
SELECT d.id, d.user_id, u.username, u.full_name, d.phone, d.license_number, d.license_expiry,
    d.vehicle_make, d.vehicle_model, d.vehicle_year, d.vehicle_color, d.vehicle_type, d.license_plate,
    d.current_latitude, d.current_longitude, d.availability_status, d.is_verified, d.is_active,
    d.rating, d.total_rides, d.created_at, d.updated_at
FROM drivers d JOIN users u ON u.id = d.user_id`

const insertDriverQuery = `
INSERT INTO drivers (id, user_id, phone, license_number, license_expiry, vehicle_make, vehicle_model,
    vehicle_year, vehicle_color, vehicle_type, license_plate, current_latitude, current_longitude,
    availability_status, is_verified, is_active, rating, total_rides, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

func (r *DriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	_, err := r.db.ExecContext(ctx, insertDriverQuery,
		d.ID, d.UserID, d.Phone, d.LicenseNumber, d.LicenseExpiry,
		d.Vehicle.Make, d.Vehicle.Model, d.Vehicle.Year, d.Vehicle.Color, string(d.Vehicle.Type), d.Vehicle.Plate,
		d.CurrentLatitude, d.CurrentLongitude,
		string(d.Status), d.IsVerified, d.IsActive, d.Rating, d.TotalRides,
		d.CreatedAt, d.UpdatedAt,
	)
	if isUniqueViolation(err, "drivers_license_number_key") || isUniqueViolation(err, "drivers_license_plate_key") {
		return driver.ErrDuplicateLicense
	}
	if err != nil {
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	return r.getOne(ctx, selectDriver+` WHERE d.id = $1`, id)
}

func (r *DriverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*driver.Driver, error) {
	return r.getOne(ctx, selectDriver+` WHERE d.user_id = $1`, userID)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg interface{}) (*driver.Driver, error) {
	var row driverRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driver.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return row.toDomain(), nil
}

const listAvailableQuery = selectDriver + `
WHERE d.availability_status = 'AVAILABLE'
  AND d.current_latitude IS NOT NULL
  AND d.current_longitude IS NOT NULL`

func (r *DriverRepository) ListAvailable(ctx context.Context) ([]*driver.Driver, error) {
	var rows []driverRow
	if err := r.db.SelectContext(ctx, &rows, listAvailableQuery); err != nil {
		return nil, fmt.Errorf("list available drivers: %w", err)
	}
	out := make([]*driver.Driver, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

const updateLocationQuery = `
UPDATE drivers SET current_latitude = $2, current_longitude = $3, updated_at = now()
WHERE id = $1`

func (r *DriverRepository) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	if err := geo.Validate(lat, lng); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateLocationQuery, id, lat, lng)
	if err != nil {
		return fmt.Errorf("update driver location: %w", err)
	}
	return requireRow(res, driver.ErrDriverNotFound)
}

const transitionStatusQuery = `
UPDATE drivers SET availability_status = $3, updated_at = now()
WHERE id = $1 AND availability_status = $2`

const driverExistsQuery = `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = $1)`

func (r *DriverRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to driver.Status) error {
	res, err := r.db.ExecContext(ctx, transitionStatusQuery, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("transition driver status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition driver status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, driverExistsQuery, id); err != nil {
		return fmt.Errorf("check driver: %w", err)
	}
	if !exists {
		return driver.ErrDriverNotFound
	}
	return driver.ErrDriverNotAvailable
}

const incrementDriverRidesQuery = `UPDATE drivers SET total_rides = total_rides + 1, updated_at = now() WHERE id = $1`

func (r *DriverRepository) IncrementRides(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, incrementDriverRidesQuery, id)
	if err != nil {
		return fmt.Errorf("increment driver rides: %w", err)
	}
	return requireRow(res, driver.ErrDriverNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
