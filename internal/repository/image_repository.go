package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// LastImageRepository defines the single-slot storage for the most recent output.
//
// There is exactly one slot and no locking: concurrent writers race and the
// last one wins.
type LastImageRepository interface {
	// Save overwrites the slot and returns its reference
	Save(ctx context.Context, data []byte) (string, error)
	// Load reads the slot; an empty ref means the fixed slot
	Load(ctx context.Context, ref string) ([]byte, error)
	// UpdatedAt reports when the slot was last written
	UpdatedAt(ctx context.Context) (time.Time, error)
	// Delete empties the slot; deleting an empty slot is not an error
	Delete(ctx context.Context) error
	// Ref returns the fixed reference of the slot
	Ref() string
}

// checkRef rejects references that do not point at the fixed slot
func checkRef(repo LastImageRepository, ref string) error {
	if ref != "" && ref != repo.Ref() {
		return domain.ErrNoLastImage
	}
	return nil
}

const postgresSlot = 1

// PostgresLastImageRepository implements LastImageRepository for PostgreSQL
type PostgresLastImageRepository struct {
	db *sql.DB
}

// NewPostgresLastImageRepository creates a new PostgreSQL last image repository
func NewPostgresLastImageRepository(db *sql.DB) *PostgresLastImageRepository {
	return &PostgresLastImageRepository{db: db}
}

// Migrate creates the slot table if it doesn't exist
func (r *PostgresLastImageRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS last_image (
			slot SMALLINT PRIMARY KEY CHECK (slot = 1),
			data BYTEA NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create last_image table: %w", err)
	}
	return nil
}

// Ref returns the fixed reference of the slot
func (r *PostgresLastImageRepository) Ref() string {
	return "postgres:last_image/1"
}

// Save upserts the image into the single row
func (r *PostgresLastImageRepository) Save(ctx context.Context, data []byte) (string, error) {
	query := `
		INSERT INTO last_image (slot, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, postgresSlot, data, time.Now()); err != nil {
		return "", fmt.Errorf("failed to save last image: %w", err)
	}
	return r.Ref(), nil
}

// Load retrieves the image from the single row
func (r *PostgresLastImageRepository) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(r, ref); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM last_image WHERE slot = $1`, postgresSlot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoLastImage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last image: %w", err)
	}
	return data, nil
}

// UpdatedAt returns the row's update time
func (r *PostgresLastImageRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM last_image WHERE slot = $1`, postgresSlot).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.ErrNoLastImage
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last image time: %w", err)
	}
	return updatedAt, nil
}

// Delete removes the row
func (r *PostgresLastImageRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM last_image WHERE slot = $1`, postgresSlot); err != nil {
		return fmt.Errorf("failed to delete last image: %w", err)
	}
	return nil
}
