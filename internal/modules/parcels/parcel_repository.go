package parcels

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

const parcelColumns = `id, sender_id, pickup_address, delivery_address,
	pickup_lat, pickup_lon, delivery_lat, delivery_lon,
	weight_kg, dimensions, estimated_value, currency, preferred_pickup_time,
	status, matched_trip_id, created_at, updated_at`

// RepositoryInterface defines the contract for the parcel repository.
// It also serves as the matching engine's parcel read surface.
type RepositoryInterface interface {
	Create(ctx context.Context, senderID string, req models.CreateParcelRequest) (*models.Parcel, error)
	FindByID(ctx context.Context, parcelID string) (*models.Parcel, error)
	ListBySender(ctx context.Context, senderID string, page, limit int) ([]*models.Parcel, int, error)
	ListMatchable(ctx context.Context) ([]*models.Parcel, error)
	Update(ctx context.Context, parcelID string, req models.UpdateParcelRequest) (*models.Parcel, error)
	Delete(ctx context.Context, parcelID string) error
	UpdateStatus(ctx context.Context, parcelID string, status models.ParcelStatus) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new parcel repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Create inserts a new parcel in pending state.
func (r *Repository) Create(ctx context.Context, senderID string, req models.CreateParcelRequest) (*models.Parcel, error) {
	query := fmt.Sprintf(`
		INSERT INTO parcels (sender_id, pickup_address, delivery_address,
			pickup_lat, pickup_lon, delivery_lat, delivery_lon,
			weight_kg, dimensions, estimated_value, currency, preferred_pickup_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending')
		RETURNING %s`, parcelColumns)

	row := r.db.QueryRow(ctx, query,
		senderID, req.PickupAddress, req.DeliveryAddress,
		req.PickupLat, req.PickupLon, req.DeliveryLat, req.DeliveryLon,
		req.WeightKg, req.Dimensions, req.EstimatedValue, strings.ToUpper(req.Currency), req.PreferredPickupTime,
	)
	parcel, err := scanParcel(row)
	if err != nil {
		return nil, fmt.Errorf("repo.CreateParcel: %w", err)
	}
	return parcel, nil
}

// FindByID retrieves a single parcel by its ID.
func (r *Repository) FindByID(ctx context.Context, parcelID string) (*models.Parcel, error) {
	query := fmt.Sprintf(`SELECT %s FROM parcels WHERE id = $1`, parcelColumns)

	parcel, err := scanParcel(r.db.QueryRow(ctx, query, parcelID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindParcelByID: %w", err)
	}
	return parcel, nil
}

// ListBySender retrieves a sender's parcels with pagination.
func (r *Repository) ListBySender(ctx context.Context, senderID string, page, limit int) ([]*models.Parcel, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM parcels
		WHERE sender_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, parcelColumns)

	rows, err := r.db.Query(ctx, query, senderID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ListBySender: %w", err)
	}
	defer rows.Close()

	var parcels []*models.Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ListBySender scan: %w", err)
		}
		parcels = append(parcels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ListBySender rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parcels WHERE sender_id = $1`, senderID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ListBySender count: %w", err)
	}
	return parcels, total, nil
}

// ListMatchable returns parcels the matching engine may pair: pending and
// not linked to any trip.
func (r *Repository) ListMatchable(ctx context.Context) ([]*models.Parcel, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM parcels
		WHERE status = 'pending' AND matched_trip_id IS NULL`, parcelColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.ListMatchable: %w", err)
	}
	defer rows.Close()

	var parcels []*models.Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListMatchable scan: %w", err)
		}
		parcels = append(parcels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListMatchable rows: %w", err)
	}
	return parcels, nil
}

// Update applies a partial edit to a parcel.
func (r *Repository) Update(ctx context.Context, parcelID string, req models.UpdateParcelRequest) (*models.Parcel, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.PickupAddress != nil {
		addSet("pickup_address", *req.PickupAddress)
	}
	if req.DeliveryAddress != nil {
		addSet("delivery_address", *req.DeliveryAddress)
	}
	if req.PickupLat != nil {
		addSet("pickup_lat", *req.PickupLat)
	}
	if req.PickupLon != nil {
		addSet("pickup_lon", *req.PickupLon)
	}
	if req.DeliveryLat != nil {
		addSet("delivery_lat", *req.DeliveryLat)
	}
	if req.DeliveryLon != nil {
		addSet("delivery_lon", *req.DeliveryLon)
	}
	if req.WeightKg != nil {
		addSet("weight_kg", *req.WeightKg)
	}
	if req.Dimensions != nil {
		addSet("dimensions", *req.Dimensions)
	}
	if req.EstimatedValue != nil {
		addSet("estimated_value", *req.EstimatedValue)
	}
	if req.Currency != nil {
		addSet("currency", strings.ToUpper(*req.Currency))
	}
	if req.PreferredPickupTime != nil {
		addSet("preferred_pickup_time", *req.PreferredPickupTime)
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, parcelID)
	}

	addSet("updated_at", time.Now())
	args = append(args, parcelID)

	query := fmt.Sprintf(`
		UPDATE parcels SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(setClauses, ", "), argIdx, parcelColumns)

	parcel, err := scanParcel(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.UpdateParcel: %w", err)
	}
	return parcel, nil
}

// Delete removes a parcel row.
func (r *Repository) Delete(ctx context.Context, parcelID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM parcels WHERE id = $1`, parcelID)
	if err != nil {
		return fmt.Errorf("repo.DeleteParcel: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateStatus sets a parcel's lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, parcelID string, status models.ParcelStatus) error {
	query := `UPDATE parcels SET status = $1, updated_at = NOW() WHERE id = $2`

	cmd, err := r.db.Exec(ctx, query, status, parcelID)
	if err != nil {
		return fmt.Errorf("repo.UpdateParcelStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// scanParcel scans one row into a Parcel model.
func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var p models.Parcel
	err := row.Scan(
		&p.ID,
		&p.SenderID,
		&p.PickupAddress,
		&p.DeliveryAddress,
		&p.PickupLat,
		&p.PickupLon,
		&p.DeliveryLat,
		&p.DeliveryLon,
		&p.WeightKg,
		&p.Dimensions,
		&p.EstimatedValue,
		&p.Currency,
		&p.PreferredPickupTime,
		&p.Status,
		&p.MatchedTripID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan parcel: %w", err)
	}
	return &p, nil
}
