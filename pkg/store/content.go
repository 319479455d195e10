package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

const contentColumns = `content_queue.id, content_queue.campaign_id, content_queue.title_item_id, content_queue.status, content_queue.title, content_queue.body, content_queue.keywords, content_queue.image_url, content_queue.remote_post_id, content_queue.post_url, content_queue.error_message, content_queue.scheduled_for, content_queue.started_at, content_queue.completed_at, content_queue.created_at`

// CreateContentItem inserts a new unit of generation-to-publish work in
// pending state
func (s *Store) CreateContentItem(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error) {
	now := time.Now().UTC()
	if item.Status == "" {
		item.Status = models.ContentStatusPending
	}
	if item.ScheduledFor.IsZero() {
		item.ScheduledFor = now
	}
	item.ScheduledFor = item.ScheduledFor.UTC()
	item.CreatedAt = now

	keywords, err := marshalList(item.Keywords)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO content_queue (campaign_id, title_item_id, status, title, body, keywords, image_url, remote_post_id, post_url, error_message, scheduled_for, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		item.CampaignID,
		nullableInt64(item.TitleItemID),
		item.Status,
		item.Title,
		item.Body,
		keywords,
		item.ImageURL,
		item.RemotePostID,
		item.PostURL,
		item.ErrorMessage,
		item.ScheduledFor,
		nullableTime(item.StartedAt),
		nullableTime(item.CompletedAt),
		item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("insert content item: %w", err)
	}
	return item, nil
}

// GetContentItem fetches a content item by id
func (s *Store) GetContentItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+contentColumns+` FROM content_queue WHERE content_queue.id = ?`), id)
	item, err := scanContentItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("content item")
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return item, nil
}

// ListContentItems returns a campaign's content items, optionally filtered by
// status, newest first
func (s *Store) ListContentItems(ctx context.Context, campaignID int64, status string, limit int) ([]*models.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_queue WHERE content_queue.campaign_id = ?`
	args := []any{campaignID}
	if status != "" {
		query += ` AND content_queue.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY content_queue.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// ListUserContentItems returns content items across all of a user's
// campaigns, newest first
func (s *Store) ListUserContentItems(ctx context.Context, userID int64, limit int) ([]*models.ContentItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+contentColumns+` FROM content_queue
		JOIN campaigns ON campaigns.id = content_queue.campaign_id
		WHERE campaigns.user_id = ?
		ORDER BY content_queue.created_at DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list user content items: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// ClaimContentItem moves a pending item to in_progress and stamps the start
// time. The conditional write enforces the single-writer invariant: at most
// one pass may claim a given item.
func (s *Store) ClaimContentItem(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE content_queue SET status = ?, started_at = ? WHERE id = ? AND status = ?`),
		models.ContentStatusInProgress, now.UTC(), id, models.ContentStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim content item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetContentGenerated records the generated material on an in-flight item so
// a later failure still leaves the content inspectable
func (s *Store) SetContentGenerated(ctx context.Context, id int64, title, body string, keywords []string, imageURL string) error {
	kw, err := marshalList(keywords)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE content_queue SET title = ?, body = ?, keywords = ?, image_url = ? WHERE id = ?`),
		title, body, kw, imageURL, id,
	)
	if err != nil {
		return fmt.Errorf("set content generated: %w", err)
	}
	return nil
}

// CompleteContentItem marks an in-progress item completed and, in the same
// transaction, bumps the owning user's and campaign's publish counters.
// Counters move only here, after a confirmed publish, so retries can never
// double-count.
func (s *Store) CompleteContentItem(ctx context.Context, itemID, campaignID, userID, remotePostID int64, postURL string, now time.Time) error {
	return s.client.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			s.rebind(`UPDATE content_queue SET status = ?, remote_post_id = ?, post_url = ?, completed_at = ? WHERE id = ? AND status = ?`),
			models.ContentStatusCompleted, remotePostID, postURL, now.UTC(), itemID, models.ContentStatusInProgress,
		)
		if err != nil {
			return fmt.Errorf("complete content item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return domain.NewConflictError("content item is no longer in progress")
		}

		if _, err := tx.ExecContext(
			ctx,
			s.rebind(`UPDATE users SET posts_published_total = posts_published_total + 1, posts_published_period = posts_published_period + 1 WHERE id = ?`),
			userID,
		); err != nil {
			return fmt.Errorf("increment user counters: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			s.rebind(`UPDATE campaigns SET posts_published = posts_published + 1, updated_at = ? WHERE id = ?`),
			now.UTC(), campaignID,
		); err != nil {
			return fmt.Errorf("increment campaign counter: %w", err)
		}
		return nil
	})
}

// FailContentItem marks a non-terminal item failed with a human-readable
// reason. Terminal items are left untouched.
func (s *Store) FailContentItem(ctx context.Context, id int64, message string, now time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE content_queue SET status = ?, error_message = ?, completed_at = ? WHERE id = ? AND status IN (?, ?)`),
		models.ContentStatusFailed, message, now.UTC(), id,
		models.ContentStatusPending, models.ContentStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("fail content item: %w", err)
	}
	return nil
}

// CancelContentItem cancels a pending item. Items already claimed cannot be
// cancelled; the stuck sweep is the only recovery for those.
func (s *Store) CancelContentItem(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE content_queue SET status = ?, completed_at = ? WHERE id = ? AND status = ?`),
		models.ContentStatusCancelled, now.UTC(), id, models.ContentStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("cancel content item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecoverStuckItems forces items claimed before the cutoff back to failed.
// No item may remain claimed indefinitely; a crash mid-publish would
// otherwise leave its item in_progress forever.
func (s *Store) RecoverStuckItems(ctx context.Context, cutoff time.Time, message string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE content_queue SET status = ?, error_message = ?, completed_at = ? WHERE status = ? AND started_at < ?`),
		models.ContentStatusFailed, message, now.UTC(),
		models.ContentStatusInProgress, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("recover stuck items: %w", err)
	}
	return res.RowsAffected()
}

// CountPurgeableContent reports how many items a purge would remove, for
// dry runs
func (s *Store) CountPurgeableContent(ctx context.Context, status string, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(*) FROM content_queue WHERE status = ? AND completed_at IS NOT NULL AND completed_at < ?`),
		status, cutoff.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count purgeable content: %w", err)
	}
	return count, nil
}

// ListPurgeableContent returns terminal items older than the cutoff, oldest
// first, for archival before deletion
func (s *Store) ListPurgeableContent(ctx context.Context, status string, cutoff time.Time, limit int) ([]*models.ContentItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+contentColumns+` FROM content_queue
		WHERE content_queue.status = ? AND content_queue.completed_at IS NOT NULL AND content_queue.completed_at < ?
		ORDER BY content_queue.completed_at ASC LIMIT ?`),
		status, cutoff.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list purgeable content: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// PurgeContentItems deletes terminal items older than the cutoff and returns
// how many were removed
func (s *Store) PurgeContentItems(ctx context.Context, status string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`DELETE FROM content_queue WHERE status = ? AND completed_at IS NOT NULL AND completed_at < ?`),
		status, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge content items: %w", err)
	}
	return res.RowsAffected()
}

// ContentStats returns a count of content items grouped by status
func (s *Store) ContentStats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM content_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("content stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func collectContentItems(rows *sql.Rows) ([]*models.ContentItem, error) {
	var items []*models.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanContentItem(row scanner) (*models.ContentItem, error) {
	var (
		item        models.ContentItem
		titleItemID sql.NullInt64
		keywords    string
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.CampaignID,
		&titleItemID,
		&item.Status,
		&item.Title,
		&item.Body,
		&keywords,
		&item.ImageURL,
		&item.RemotePostID,
		&item.PostURL,
		&item.ErrorMessage,
		&item.ScheduledFor,
		&startedAt,
		&completedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.TitleItemID = int64Ptr(titleItemID)
	if item.Keywords, err = unmarshalList(keywords); err != nil {
		return nil, err
	}
	item.StartedAt = timePtr(startedAt)
	item.CompletedAt = timePtr(completedAt)
	return &item, nil
}
