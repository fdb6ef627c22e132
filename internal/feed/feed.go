// Package feed implements the Finding Persister (C4): the transactional,
// deduplicated write of a detector-confirmed update into the
// update_feeds table, grounded on original_source's UpdateFeed model
// and the donor's (*database.DB).WithTransactionContext pattern.
package feed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tradewatch/monitor/internal/bookmarks"
	"github.com/tradewatch/monitor/internal/database"
	"github.com/tradewatch/monitor/internal/detector"
)

// Importance mirrors the donor schema's importance_level enum. The
// core always writes Medium (§4.5); Low and High exist for other
// subsystems' rows.
type Importance string

const (
	ImportanceHigh   Importance = "HIGH"
	ImportanceMedium Importance = "MEDIUM"
	ImportanceLow    Importance = "LOW"
)

// FeedType mirrors the donor schema's feed_type enum. The core only
// ever writes FeedTypePolicyUpdate.
type FeedType string

const (
	FeedTypePolicyUpdate FeedType = "POLICY_UPDATE"
)

// Finding is a persisted update_feeds row.
type Finding struct {
	ID          int64
	UserID      int64
	FeedType    FeedType
	TargetType  bookmarks.Type
	TargetValue string
	Title       string
	Content     string
	Importance  Importance
	CreatedAt   time.Time
}

// Persister writes detector results into update_feeds inside their own
// transaction, re-checking bookmark freshness and content dedup before
// committing.
type Persister struct {
	db *database.DB
}

// NewPersister wraps an existing *database.DB.
func NewPersister(db *database.DB) *Persister {
	return &Persister{db: db}
}

// Persist implements §4.5 steps 1-6. A nil Finding with a nil error is
// the soft-abort sentinel (dedup hit or bookmark deactivated since
// load); callers must not treat it as a failure.
func (p *Persister) Persist(ctx context.Context, b bookmarks.Bookmark, result detector.Result) (*Finding, error) {
	if result.Status != detector.StatusUpdateFound || result.Summary == "" {
		return nil, nil
	}

	var finding *Finding
	err := p.db.WithTransactionContext(ctx, func(tx *sql.Tx) error {
		active, err := bookmarks.ReReadActive(ctx, tx, b.ID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("feed: re-read bookmark %d: %w", b.ID, err)
		}
		if !active {
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx, `
			SELECT 1 FROM update_feeds WHERE user_id = $1 AND target_value = $2 AND content = $3 LIMIT 1
		`, b.UserID, b.TargetValue, result.Summary).Scan(&exists)
		switch {
		case err == nil:
			return nil
		case err != sql.ErrNoRows:
			return fmt.Errorf("feed: dedup check: %w", err)
		}

		title := title(b.DisplayName)
		var f Finding
		err = tx.QueryRowContext(ctx, `
			INSERT INTO update_feeds (user_id, feed_type, target_type, target_value, title, content, importance)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, b.UserID, FeedTypePolicyUpdate, b.Type, b.TargetValue, title, result.Summary, ImportanceMedium).Scan(&f.ID, &f.CreatedAt)
		if err != nil {
			return fmt.Errorf("feed: insert: %w", err)
		}
		f.UserID = b.UserID
		f.FeedType = FeedTypePolicyUpdate
		f.TargetType = b.Type
		f.TargetValue = b.TargetValue
		f.Title = title
		f.Content = result.Summary
		f.Importance = ImportanceMedium
		finding = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finding, nil
}

// title reproduces the donor system's Korean-locale notification copy
// verbatim: "'<display_name>'에 대한 새로운 업데이트".
func title(displayName string) string {
	return fmt.Sprintf("'%s'에 대한 새로운 업데이트", displayName)
}
