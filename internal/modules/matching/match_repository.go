package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parcel-relay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `id, parcel_id, trip_id, match_score, status, matched_at,
	delivery_fee, currency, payment_status, delivery_confirmed_by_sender_at`

// MatchRepositoryInterface defines the persistence contract for Match rows.
// It owns creation, deletion, and every status transition.
type MatchRepositoryInterface interface {
	// CreateIfAbsent inserts a pending match unless one already exists for
	// the (parcel, trip) pair. Idempotent under concurrent calls via the
	// pair's uniqueness constraint; reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, parcelID, tripID string, score float64) (bool, error)
	FindByID(ctx context.Context, matchID string) (*models.Match, error)
	ListByParcel(ctx context.Context, parcelID string) ([]*models.Match, error)
	ListByTrip(ctx context.Context, tripID string) ([]*models.Match, error)
	ListAcceptedByParcel(ctx context.Context, parcelID string) ([]*models.Match, error)
	// InvalidatePending deletes all pending matches for a parcel. Stale
	// candidate scores are removed outright so a fresh run recomputes them.
	InvalidatePending(ctx context.Context, parcelID string) (int64, error)
	UpdateScore(ctx context.Context, matchID string, score float64) error
	// ExpireAndUnlink voids a degraded accepted match and clears the
	// parcel's matched_trip_id in one transaction, returning the parcel
	// to the matchable pool.
	ExpireAndUnlink(ctx context.Context, matchID, parcelID string) error
	// Accept transitions a pending match to accepted, records the agreed
	// fee, and links the parcel, atomically. Fails with
	// ErrParcelAlreadyMatched if the parcel is already linked.
	Accept(ctx context.Context, matchID string, fee float64, currency string) (*models.Match, error)
	Reject(ctx context.Context, matchID string) error
	ConfirmDelivery(ctx context.Context, matchID string, at time.Time) error
}

// MatchRepository is the PostgreSQL implementation of MatchRepositoryInterface.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *pgxpool.Pool) MatchRepositoryInterface {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) CreateIfAbsent(ctx context.Context, parcelID, tripID string, score float64) (bool, error) {
	query := `
		INSERT INTO matches (id, parcel_id, trip_id, match_score, status, matched_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		ON CONFLICT (parcel_id, trip_id) DO NOTHING`

	cmd, err := r.db.Exec(ctx, query, uuid.New().String(), parcelID, tripID, score)
	if err != nil {
		return false, fmt.Errorf("repo.CreateIfAbsent: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *MatchRepository) FindByID(ctx context.Context, matchID string) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1`, matchColumns)

	match, err := scanMatch(r.db.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindMatchByID: %w", err)
	}
	return match, nil
}

func (r *MatchRepository) ListByParcel(ctx context.Context, parcelID string) ([]*models.Match, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matches
		WHERE parcel_id = $1
		ORDER BY match_score DESC`, matchColumns)
	return r.list(ctx, query, parcelID)
}

func (r *MatchRepository) ListByTrip(ctx context.Context, tripID string) ([]*models.Match, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matches
		WHERE trip_id = $1
		ORDER BY match_score DESC`, matchColumns)
	return r.list(ctx, query, tripID)
}

func (r *MatchRepository) ListAcceptedByParcel(ctx context.Context, parcelID string) ([]*models.Match, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matches
		WHERE parcel_id = $1 AND status = 'accepted'`, matchColumns)
	return r.list(ctx, query, parcelID)
}

func (r *MatchRepository) list(ctx context.Context, query string, arg any) ([]*models.Match, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("repo.ListMatches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListMatches scan: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListMatches rows: %w", err)
	}
	return matches, nil
}

func (r *MatchRepository) InvalidatePending(ctx context.Context, parcelID string) (int64, error) {
	query := `DELETE FROM matches WHERE parcel_id = $1 AND status = 'pending'`

	cmd, err := r.db.Exec(ctx, query, parcelID)
	if err != nil {
		return 0, fmt.Errorf("repo.InvalidatePending: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *MatchRepository) UpdateScore(ctx context.Context, matchID string, score float64) error {
	query := `UPDATE matches SET match_score = $1 WHERE id = $2`

	cmd, err := r.db.Exec(ctx, query, score, matchID)
	if err != nil {
		return fmt.Errorf("repo.UpdateScore: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MatchRepository) ExpireAndUnlink(ctx context.Context, matchID, parcelID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ExpireAndUnlink begin: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE matches SET status = 'expired'
		WHERE id = $1 AND status = 'accepted'`, matchID)
	if err != nil {
		return fmt.Errorf("repo.ExpireAndUnlink match: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		// Already expired by a concurrent rescore; nothing to undo.
		return nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE parcels SET matched_trip_id = NULL, status = 'pending', updated_at = NOW()
		WHERE id = $1`, parcelID)
	if err != nil {
		return fmt.Errorf("repo.ExpireAndUnlink parcel: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ExpireAndUnlink commit: %w", err)
	}
	return nil
}

func (r *MatchRepository) Accept(ctx context.Context, matchID string, fee float64, currency string) (*models.Match, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.AcceptMatch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var parcelID, tripID string
	var status models.MatchStatus
	err = tx.QueryRow(ctx, `
		SELECT parcel_id, trip_id, status FROM matches
		WHERE id = $1 FOR UPDATE`, matchID).Scan(&parcelID, &tripID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.AcceptMatch lock: %w", err)
	}
	if status != models.MatchStatusPending {
		return nil, models.ErrMatchNotActionable
	}

	// The parcel link doubles as the one-accepted-match-per-parcel guard.
	cmd, err := tx.Exec(ctx, `
		UPDATE parcels SET matched_trip_id = $1, status = 'matched', updated_at = NOW()
		WHERE id = $2 AND matched_trip_id IS NULL AND status = 'pending'`, tripID, parcelID)
	if err != nil {
		return nil, fmt.Errorf("repo.AcceptMatch parcel: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, models.ErrParcelAlreadyMatched
	}

	query := fmt.Sprintf(`
		UPDATE matches
		SET status = 'accepted', delivery_fee = $1, currency = $2, payment_status = 'pending'
		WHERE id = $3
		RETURNING %s`, matchColumns)

	match, err := scanMatch(tx.QueryRow(ctx, query, fee, currency, matchID))
	if err != nil {
		return nil, fmt.Errorf("repo.AcceptMatch update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repo.AcceptMatch commit: %w", err)
	}
	return match, nil
}

func (r *MatchRepository) Reject(ctx context.Context, matchID string) error {
	query := `UPDATE matches SET status = 'rejected' WHERE id = $1 AND status = 'pending'`

	cmd, err := r.db.Exec(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("repo.RejectMatch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrMatchNotActionable
	}
	return nil
}

func (r *MatchRepository) ConfirmDelivery(ctx context.Context, matchID string, at time.Time) error {
	query := `
		UPDATE matches SET delivery_confirmed_by_sender_at = $1
		WHERE id = $2 AND status = 'accepted'`

	cmd, err := r.db.Exec(ctx, query, at, matchID)
	if err != nil {
		return fmt.Errorf("repo.ConfirmDelivery: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDeliveryNotConfirmable
	}
	return nil
}

// scanMatch scans one row into a Match model.
func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.ParcelID,
		&m.TripID,
		&m.MatchScore,
		&m.Status,
		&m.MatchedAt,
		&m.DeliveryFee,
		&m.Currency,
		&m.PaymentStatus,
		&m.DeliveryConfirmedBySenderAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return &m, nil
}
