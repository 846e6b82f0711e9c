package notify

import (
	"context"
	"errors"
	"fmt"

	"parcel-relay/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactDirectory resolves a user id to a deliverable email address.
// Account management itself lives in the upstream identity service; the
// matching core only ever reads contact info to address its notifications.
type ContactDirectory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// PgContactDirectory reads contact emails from the shared users table.
type PgContactDirectory struct {
	db *pgxpool.Pool
}

// NewPgContactDirectory creates a directory backed by Postgres.
func NewPgContactDirectory(db *pgxpool.Pool) *PgContactDirectory {
	return &PgContactDirectory{db: db}
}

func (d *PgContactDirectory) EmailFor(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("contacts.EmailFor: %w", err)
	}
	return email, nil
}
