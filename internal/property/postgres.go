// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package property

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/wneessen/propertyloc/internal/disclosure"
	"github.com/wneessen/propertyloc/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewPool creates a database connection pool and verifies the connection.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = db.Close()
	}()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, result := range results {
		log.Info("applied database migration", slog.String("migration", result.Source.Path),
			slog.Duration("duration", result.Duration))
	}
	return nil
}

// PostgresRepository stores locations in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveLocation(ctx context.Context, loc Location) (Location, error) {
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	var capturedAt *time.Time
	if !loc.Coordinate.CapturedAt.IsZero() {
		capturedAt = &loc.Coordinate.CapturedAt
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO property_locations (property_id, tier, street_address, area, lga, state, place_id,
			latitude, longitude, accuracy_meters, captured_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (property_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			street_address = EXCLUDED.street_address,
			area = EXCLUDED.area,
			lga = EXCLUDED.lga,
			state = EXCLUDED.state,
			place_id = EXCLUDED.place_id,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			accuracy_meters = EXCLUDED.accuracy_meters,
			captured_at = EXCLUDED.captured_at,
			updated_at = now()
		RETURNING updated_at
	`, loc.PropertyID, loc.Tier.String(), loc.StreetAddress, loc.Area, loc.LGA, loc.State, loc.PlaceID,
		loc.Coordinate.Latitude, loc.Coordinate.Longitude, loc.Coordinate.AccuracyMeters, capturedAt,
	).Scan(&loc.UpdatedAt)
	if err != nil {
		return Location{}, fmt.Errorf("failed to store property location: %w", err)
	}
	return loc, nil
}

func (r *PostgresRepository) Location(ctx context.Context, id uuid.UUID) (Location, error) {
	var (
		loc        Location
		tier       string
		capturedAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT property_id, tier, street_address, area, lga, state, place_id,
			latitude, longitude, accuracy_meters, captured_at, updated_at
		FROM property_locations
		WHERE property_id = $1
	`, id).Scan(
		&loc.PropertyID, &tier, &loc.StreetAddress, &loc.Area, &loc.LGA, &loc.State, &loc.PlaceID,
		&loc.Coordinate.Latitude, &loc.Coordinate.Longitude, &loc.Coordinate.AccuracyMeters, &capturedAt,
		&loc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("failed to read property location: %w", err)
	}
	if loc.Tier, err = disclosure.ParseTier(tier); err != nil {
		return Location{}, err
	}
	if capturedAt != nil {
		loc.Coordinate.CapturedAt = *capturedAt
	}
	return loc, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
