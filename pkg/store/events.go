package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

const eventColumns = `id, campaign_id, run_id, level, message, created_at`

// InsertEvent records one scheduler outcome for a campaign
func (s *Store) InsertEvent(ctx context.Context, event *models.CampaignEvent) error {
	if event.Level == "" {
		event.Level = models.EventLevelInfo
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.CreatedAt = event.CreatedAt.UTC()

	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO campaign_events (campaign_id, run_id, level, message, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		event.CampaignID,
		event.RunID,
		event.Level,
		event.Message,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns a campaign's events, newest first
func (s *Store) ListEvents(ctx context.Context, campaignID int64, limit int) ([]*models.CampaignEvent, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+eventColumns+` FROM campaign_events WHERE campaign_id = ? ORDER BY created_at DESC LIMIT ?`),
		campaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.CampaignEvent
	for rows.Next() {
		var ev models.CampaignEvent
		if err := rows.Scan(&ev.ID, &ev.CampaignID, &ev.RunID, &ev.Level, &ev.Message, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// CountPurgeableEvents reports how many low-severity events a purge would
// remove, for dry runs
func (s *Store) CountPurgeableEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(*) FROM campaign_events WHERE level IN (?, ?) AND created_at < ?`),
		models.EventLevelInfo, models.EventLevelWarning, cutoff.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count purgeable events: %w", err)
	}
	return count, nil
}

// PurgeEvents deletes low-severity events older than the cutoff. Error events
// are kept as the long-term failure record.
func (s *Store) PurgeEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`DELETE FROM campaign_events WHERE level IN (?, ?) AND created_at < ?`),
		models.EventLevelInfo, models.EventLevelWarning, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	return res.RowsAffected()
}
