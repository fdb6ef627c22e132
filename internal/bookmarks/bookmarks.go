// Package bookmarks is the core's read-only view of a user's tracked
// trade identifiers, grounded on the donor source's "bookmarks" table
// (app/models/db_models.py Bookmark) field-for-field.
package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
)

// Type is the kind of identifier a bookmark tracks.
type Type string

const (
	TypeHSCode Type = "HS_CODE"
	TypeCargo  Type = "CARGO"
)

// Bookmark is owned by another service; the core only ever reads it,
// except for the single freshness re-read the persister performs
// inside its own transaction (§4.5 step 2).
type Bookmark struct {
	ID           int64
	UserID       int64
	Type         Type
	TargetValue  string
	DisplayName  string
	EmailEnabled bool
	SMSEnabled   bool
}

// MonitoringActive mirrors the donor schema's generated column
// (sms_notification_enabled OR email_notification_enabled).
func (b Bookmark) MonitoringActive() bool {
	return b.EmailEnabled || b.SMSEnabled
}

// Repository loads bookmarks from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps a *sql.DB (or a *sql.Tx via its Queryer-compatible
// methods are not needed here: the TOCTOU re-read in the persister uses
// its own transaction directly, not this repository, since it must run
// inside that transaction's isolation).
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ActiveBookmarks loads every bookmark with monitoring_active = true
// (§6.2), the coordinator's load step.
func (r *Repository) ActiveBookmarks(ctx context.Context) ([]Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, target_value, display_name,
		       email_notification_enabled, sms_notification_enabled
		FROM bookmarks
		WHERE monitoring_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("bookmarks: load active: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		var b Bookmark
		var displayName sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &b.Type, &b.TargetValue, &displayName, &b.EmailEnabled, &b.SMSEnabled); err != nil {
			return nil, fmt.Errorf("bookmarks: scan active: %w", err)
		}
		b.DisplayName = displayName.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookmarks: iterate active: %w", err)
	}
	return out, nil
}

// ReReadActive re-reads a single bookmark's monitoring_active flag by
// primary key inside tx, closing the TOCTOU window described in I4/P4.
// Returns sql.ErrNoRows if the bookmark no longer exists.
func ReReadActive(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT monitoring_active FROM bookmarks WHERE id = $1`, id).Scan(&active)
	if err != nil {
		return false, err
	}
	return active, nil
}
