package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the ride tables. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id         UUID PRIMARY KEY,
    username   TEXT NOT NULL UNIQUE,
    full_name  TEXT NOT NULL DEFAULT '',
    is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS riders (
    id                       UUID PRIMARY KEY,
    user_id                  UUID NOT NULL UNIQUE REFERENCES users(id),
    phone                    TEXT NOT NULL,
    preferred_payment_method TEXT NOT NULL DEFAULT '',
    default_pickup_latitude  DOUBLE PRECISION,
    default_pickup_longitude DOUBLE PRECISION,
    rating                   DOUBLE PRECISION NOT NULL DEFAULT 5 CHECK (rating BETWEEN 0 AND 5),
    total_rides              INTEGER NOT NULL DEFAULT 0,
    is_active                BOOLEAN NOT NULL DEFAULT TRUE,
    created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT riders_pickup_pair CHECK ((default_pickup_latitude IS NULL) = (default_pickup_longitude IS NULL))
);

CREATE TABLE IF NOT EXISTS drivers (
    id                  UUID PRIMARY KEY,
    user_id             UUID NOT NULL UNIQUE REFERENCES users(id),
    phone               TEXT NOT NULL,
    license_number      TEXT NOT NULL UNIQUE,
    license_expiry      DATE NOT NULL,
    vehicle_make        TEXT NOT NULL DEFAULT '',
    vehicle_model       TEXT NOT NULL DEFAULT '',
    vehicle_year        INTEGER NOT NULL DEFAULT 0,
    vehicle_color       TEXT NOT NULL DEFAULT '',
    vehicle_type        TEXT NOT NULL CHECK (vehicle_type IN ('sedan', 'hatchback', 'suv', 'bike', 'auto')),
    license_plate       TEXT NOT NULL UNIQUE,
    current_latitude    DOUBLE PRECISION CHECK (current_latitude BETWEEN -90 AND 90),
    current_longitude   DOUBLE PRECISION CHECK (current_longitude BETWEEN -180 AND 180),
    availability_status TEXT NOT NULL DEFAULT 'OFFLINE' CHECK (availability_status IN ('OFFLINE', 'AVAILABLE', 'ON_TRIP')),
    is_verified         BOOLEAN NOT NULL DEFAULT FALSE,
    is_active           BOOLEAN NOT NULL DEFAULT TRUE,
    rating              DOUBLE PRECISION NOT NULL DEFAULT 5 CHECK (rating BETWEEN 0 AND 5),
    total_rides         INTEGER NOT NULL DEFAULT 0,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT drivers_location_pair CHECK ((current_latitude IS NULL) = (current_longitude IS NULL)),
    CONSTRAINT drivers_location_not_null_island CHECK (NOT (current_latitude = 0 AND current_longitude = 0))
);

CREATE INDEX IF NOT EXISTS idx_drivers_available ON drivers (availability_status)
    WHERE current_latitude IS NOT NULL;

CREATE TABLE IF NOT EXISTS rides (
    id                UUID PRIMARY KEY,
    code              TEXT NOT NULL UNIQUE,
    rider_id          UUID NOT NULL REFERENCES riders(id),
    driver_id         UUID REFERENCES drivers(id),
    pickup_address    TEXT NOT NULL DEFAULT '',
    pickup_latitude   DOUBLE PRECISION NOT NULL CHECK (pickup_latitude BETWEEN -90 AND 90),
    pickup_longitude  DOUBLE PRECISION NOT NULL CHECK (pickup_longitude BETWEEN -180 AND 180),
    dropoff_address   TEXT NOT NULL DEFAULT '',
    dropoff_latitude  DOUBLE PRECISION NOT NULL CHECK (dropoff_latitude BETWEEN -90 AND 90),
    dropoff_longitude DOUBLE PRECISION NOT NULL CHECK (dropoff_longitude BETWEEN -180 AND 180),
    status            TEXT NOT NULL DEFAULT 'REQUESTED' CHECK (status IN ('REQUESTED', 'ONGOING', 'COMPLETED', 'CANCELLED')),
    surge_multiplier  NUMERIC(6, 2) NOT NULL DEFAULT 1 CHECK (surge_multiplier > 0),
    fare              NUMERIC(12, 2),
    payment_method    TEXT CHECK (payment_method IN ('CASH', 'CARD', 'UPI', 'WALLET')),
    payment_status    TEXT NOT NULL DEFAULT 'UNPAID' CHECK (payment_status IN ('UNPAID', 'PAID')),
    paid_at           TIMESTAMPTZ,
    completed_at      TIMESTAMPTZ,
    cancelled_at      TIMESTAMPTZ,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT rides_distinct_endpoints CHECK (
        pickup_latitude <> dropoff_latitude OR pickup_longitude <> dropoff_longitude),
    CONSTRAINT rides_paid_at_iff_paid CHECK ((paid_at IS NULL) = (payment_status <> 'PAID')),
    CONSTRAINT rides_driver_when_started CHECK (status = 'REQUESTED' OR status = 'CANCELLED' OR driver_id IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_rides_driver_completed ON rides (driver_id, completed_at DESC)
    WHERE status = 'COMPLETED' AND payment_status = 'PAID';
CREATE INDEX IF NOT EXISTS idx_rides_created_at ON rides (created_at DESC);
`

// Migrate applies Schema
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
