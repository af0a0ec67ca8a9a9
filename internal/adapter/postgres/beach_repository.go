// Package postgres reads beaches and likes from the primary database and
// records status transitions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

const beachColumns = `id::text, name, neighborhood, status, last_update,
	coordinates_lat, coordinates_lng, description, amenities,
	wave_height, shark_risk, water_temperature, coliform_level`

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// errInvalidBeach marks a row that was read but holds values the domain
// rejects, such as an unknown status.
var errInvalidBeach = errors.New("invalid beach row")

// BeachRepository reads beaches and likes from Postgres.
type BeachRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewBeachRepository creates a new repository.
func NewBeachRepository(pool *pgxpool.Pool, logger *slog.Logger) *BeachRepository {
	return &BeachRepository{pool: pool, logger: logger}
}

// ListBeaches returns every beach ordered by name. Rows with values the
// domain rejects are logged and skipped.
func (r *BeachRepository) ListBeaches(ctx context.Context) ([]domain.BeachRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+beachColumns+` FROM beaches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query beaches: %w", err)
	}
	defer rows.Close()

	return collectBeaches(rows, r.logger)
}

type beachRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectBeaches(rows beachRows, logger *slog.Logger) ([]domain.BeachRecord, error) {
	var beaches []domain.BeachRecord
	for rows.Next() {
		b, err := scanBeach(rows)
		if errors.Is(err, errInvalidBeach) {
			logger.Warn("skipping invalid beach row", "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		beaches = append(beaches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read beaches: %w", err)
	}
	return beaches, nil
}

// LikerIDs returns the users who liked beachID.
func (r *BeachRepository) LikerIDs(ctx context.Context, beachID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id::text
		FROM beach_likes
		WHERE beach_id = $1
		ORDER BY user_id
	`, beachID)
	if err != nil {
		return nil, fmt.Errorf("query beach likes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read beach likes: %w", err)
	}
	return ids, nil
}

// RecordStatusChange appends a status transition to the notification log.
func (r *BeachRepository) RecordStatusChange(ctx context.Context, beachID string, oldStatus, newStatus domain.BeachStatus, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO beach_status_notifications (beach_id, old_status, new_status, notified_at)
		VALUES ($1, $2, $3, $4)
	`, beachID, string(oldStatus), string(newStatus), at)
	if err != nil {
		return fmt.Errorf("record status change for %s: %w", beachID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeach(row rowScanner) (domain.BeachRecord, error) {
	var r domain.BeachRow
	if err := row.Scan(
		&r.ID, &r.Name, &r.Neighborhood, &r.Status, &r.LastUpdate.Time,
		&r.CoordinatesLat, &r.CoordinatesLng, &r.Description, &r.Amenities,
		&r.WaveHeight, &r.SharkRisk, &r.WaterTemperature, &r.ColiformLevel,
	); err != nil {
		return domain.BeachRecord{}, fmt.Errorf("scan beach: %w", err)
	}
	rec, err := r.ToRecord()
	if err != nil {
		return domain.BeachRecord{}, fmt.Errorf("%w: %w", errInvalidBeach, err)
	}
	return rec, nil
}
