package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-relay/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tripColumns = `id, courier_id, origin_address, destination_address,
	origin_lat, origin_lon, destination_lat, destination_lon,
	departure_time, estimated_arrival, available_capacity, status, created_at, updated_at`

// RepositoryInterface defines the contract for the trip repository.
// It also serves as the matching engine's trip read surface.
type RepositoryInterface interface {
	Create(ctx context.Context, courierID string, req models.CreateTripRequest) (*models.Trip, error)
	FindByID(ctx context.Context, tripID string) (*models.Trip, error)
	ListByCourier(ctx context.Context, courierID string, page, limit int) ([]*models.Trip, int, error)
	ListSchedulable(ctx context.Context) ([]*models.Trip, error)
	ListSchedulableWithoutCoords(ctx context.Context) ([]*models.Trip, error)
	ListSchedulableByIDs(ctx context.Context, tripIDs []string) ([]*models.Trip, error)
	Update(ctx context.Context, tripID string, req models.UpdateTripRequest) (*models.Trip, error)
	UpdateStatus(ctx context.Context, tripID string, status models.TripStatus) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new trip repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Create inserts a new trip in scheduled state.
func (r *Repository) Create(ctx context.Context, courierID string, req models.CreateTripRequest) (*models.Trip, error) {
	query := fmt.Sprintf(`
		INSERT INTO trips (courier_id, origin_address, destination_address,
			origin_lat, origin_lon, destination_lat, destination_lon,
			departure_time, estimated_arrival, available_capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'scheduled')
		RETURNING %s`, tripColumns)

	row := r.db.QueryRow(ctx, query,
		courierID, req.OriginAddress, req.DestinationAddress,
		req.OriginLat, req.OriginLon, req.DestinationLat, req.DestinationLon,
		req.DepartureTime, req.EstimatedArrival, req.AvailableCapacity,
	)
	trip, err := scanTrip(row)
	if err != nil {
		return nil, fmt.Errorf("repo.CreateTrip: %w", err)
	}
	return trip, nil
}

// FindByID retrieves a single trip by its ID.
func (r *Repository) FindByID(ctx context.Context, tripID string) (*models.Trip, error) {
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE id = $1`, tripColumns)

	trip, err := scanTrip(r.db.QueryRow(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindTripByID: %w", err)
	}
	return trip, nil
}

// ListByCourier retrieves a courier's trips with pagination.
func (r *Repository) ListByCourier(ctx context.Context, courierID string, page, limit int) ([]*models.Trip, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE courier_id = $1
		ORDER BY departure_time DESC
		LIMIT $2 OFFSET $3`, tripColumns)

	rows, err := r.db.Query(ctx, query, courierID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCourier: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCourier: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trips WHERE courier_id = $1`, courierID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCourier count: %w", err)
	}
	return trips, total, nil
}

// ListSchedulable returns scheduled trips with a future departure.
func (r *Repository) ListSchedulable(ctx context.Context) ([]*models.Trip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE status = 'scheduled' AND departure_time > NOW()`, tripColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulable: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulable: %w", err)
	}
	return trips, nil
}

// ListSchedulableWithoutCoords returns the schedulable trips that carry no
// origin coordinates and therefore live outside the geo index.
func (r *Repository) ListSchedulableWithoutCoords(ctx context.Context) ([]*models.Trip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE status = 'scheduled' AND departure_time > NOW()
		  AND (origin_lat IS NULL OR origin_lon IS NULL)`, tripColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulableWithoutCoords: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulableWithoutCoords: %w", err)
	}
	return trips, nil
}

// ListSchedulableByIDs returns the schedulable subset of the given trip ids.
func (r *Repository) ListSchedulableByIDs(ctx context.Context, tripIDs []string) ([]*models.Trip, error) {
	if len(tripIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE id = ANY($1) AND status = 'scheduled' AND departure_time > NOW()`, tripColumns)

	rows, err := r.db.Query(ctx, query, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulableByIDs: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ListSchedulableByIDs: %w", err)
	}
	return trips, nil
}

// Update applies a partial edit to a trip.
func (r *Repository) Update(ctx context.Context, tripID string, req models.UpdateTripRequest) (*models.Trip, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.OriginAddress != nil {
		addSet("origin_address", *req.OriginAddress)
	}
	if req.DestinationAddress != nil {
		addSet("destination_address", *req.DestinationAddress)
	}
	if req.OriginLat != nil {
		addSet("origin_lat", *req.OriginLat)
	}
	if req.OriginLon != nil {
		addSet("origin_lon", *req.OriginLon)
	}
	if req.DestinationLat != nil {
		addSet("destination_lat", *req.DestinationLat)
	}
	if req.DestinationLon != nil {
		addSet("destination_lon", *req.DestinationLon)
	}
	if req.DepartureTime != nil {
		addSet("departure_time", *req.DepartureTime)
	}
	if req.EstimatedArrival != nil {
		addSet("estimated_arrival", *req.EstimatedArrival)
	}
	if req.AvailableCapacity != nil {
		addSet("available_capacity", *req.AvailableCapacity)
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, tripID)
	}

	addSet("updated_at", time.Now())
	args = append(args, tripID)

	query := fmt.Sprintf(`
		UPDATE trips SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(setClauses, ", "), argIdx, tripColumns)

	trip, err := scanTrip(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.UpdateTrip: %w", err)
	}
	return trip, nil
}

// UpdateStatus sets a trip's lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, tripID string, status models.TripStatus) error {
	query := `UPDATE trips SET status = $1, updated_at = NOW() WHERE id = $2`

	cmd, err := r.db.Exec(ctx, query, status, tripID)
	if err != nil {
		return fmt.Errorf("repo.UpdateTripStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func collectTrips(rows pgx.Rows) ([]*models.Trip, error) {
	var trips []*models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanTrip scans one row into a Trip model.
func scanTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID,
		&t.CourierID,
		&t.OriginAddress,
		&t.DestinationAddress,
		&t.OriginLat,
		&t.OriginLon,
		&t.DestinationLat,
		&t.DestinationLon,
		&t.DepartureTime,
		&t.EstimatedArrival,
		&t.AvailableCapacity,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan trip: %w", err)
	}
	return &t, nil
}
