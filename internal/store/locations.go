// ABOUTME: SQLite persistence for saved in-game locations
// ABOUTME: Locations are keyed by name; saving an existing name overwrites it

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveLocation inserts or replaces a saved location by name.
func (s *SQLiteStore) SaveLocation(ctx context.Context, loc *Location) error {
	dimension := loc.Dimension
	if dimension == "" {
		dimension = "overworld"
	}

	query := `
		INSERT INTO locations (name, x, y, z, dimension, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			z = excluded.z,
			dimension = excluded.dimension,
			description = excluded.description
	`

	_, err := s.db.ExecContext(ctx, query,
		loc.Name, loc.X, loc.Y, loc.Z, dimension, nullString(loc.Description),
	)
	if err != nil {
		return fmt.Errorf("saving location: %w", err)
	}

	s.logger.Debug("saved location", "name", loc.Name, "dimension", dimension)
	return nil
}

// GetLocation retrieves a saved location by name.
// Returns ErrNotFound if no location with the given name exists.
func (s *SQLiteStore) GetLocation(ctx context.Context, name string) (*Location, error) {
	query := `
		SELECT name, x, y, z, dimension, description
		FROM locations
		WHERE name = ?
	`

	row := s.db.QueryRowContext(ctx, query, name)
	loc, err := scanLocation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying location: %w", err)
	}
	return loc, nil
}

// ListLocations returns all saved locations ordered by name.
func (s *SQLiteStore) ListLocations(ctx context.Context) ([]*Location, error) {
	query := `
		SELECT name, x, y, z, dimension, description
		FROM locations
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locations []*Location
	for rows.Next() {
		loc, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning location row: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location rows: %w", err)
	}

	return locations, nil
}

// scanLocation scans a location row using the given scan function.
func scanLocation(scan func(dest ...any) error) (*Location, error) {
	var loc Location
	var description *string

	if err := scan(&loc.Name, &loc.X, &loc.Y, &loc.Z, &loc.Dimension, &description); err != nil {
		return nil, err
	}

	if description != nil {
		loc.Description = *description
	}

	return &loc, nil
}
