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

const titleColumns = `id, campaign_id, title, keywords, status, created_at, approved_at, used_at`

// CreateTitleItem inserts a single title, typically from manual user entry
func (s *Store) CreateTitleItem(ctx context.Context, item *models.TitleItem) (*models.TitleItem, error) {
	if item.Status == "" {
		item.Status = models.TitleStatusPending
	}
	item.CreatedAt = time.Now().UTC()

	keywords, err := marshalList(item.Keywords)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO title_queue (campaign_id, title, keywords, status, created_at, approved_at, used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		item.CampaignID,
		item.Title,
		keywords,
		item.Status,
		item.CreatedAt,
		nullableTime(item.ApprovedAt),
		nullableTime(item.UsedAt),
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("insert title item: %w", err)
	}
	return item, nil
}

// CreateTitleItems inserts a generated batch of pending titles in one
// transaction
func (s *Store) CreateTitleItems(ctx context.Context, campaignID int64, titles []string) ([]*models.TitleItem, error) {
	now := time.Now().UTC()
	items := make([]*models.TitleItem, 0, len(titles))

	err := s.client.WithTx(ctx, func(tx *sql.Tx) error {
		for _, title := range titles {
			item := &models.TitleItem{
				CampaignID: campaignID,
				Title:      title,
				Status:     models.TitleStatusPending,
				CreatedAt:  now,
			}
			err := tx.QueryRowContext(
				ctx,
				s.rebind(`INSERT INTO title_queue (campaign_id, title, keywords, status, created_at)
				VALUES (?, ?, ?, ?, ?) RETURNING id`),
				item.CampaignID, item.Title, "[]", item.Status, item.CreatedAt,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert title item: %w", err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetTitleItem fetches a title item by id
func (s *Store) GetTitleItem(ctx context.Context, id int64) (*models.TitleItem, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+titleColumns+` FROM title_queue WHERE id = ?`), id)
	item, err := scanTitleItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("title item")
	}
	if err != nil {
		return nil, fmt.Errorf("get title item: %w", err)
	}
	return item, nil
}

// ListTitleItems returns a campaign's title items, optionally filtered by
// status, oldest first
func (s *Store) ListTitleItems(ctx context.Context, campaignID int64, status string) ([]*models.TitleItem, error) {
	query := `SELECT ` + titleColumns + ` FROM title_queue WHERE campaign_id = ?`
	args := []any{campaignID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list title items: %w", err)
	}
	defer rows.Close()

	var items []*models.TitleItem
	for rows.Next() {
		item, err := scanTitleItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetTitleStatus moves a title between pending, approved and rejected.
// Approval stamps the approval time.
func (s *Store) SetTitleStatus(ctx context.Context, id int64, status string) error {
	var (
		res sql.Result
		err error
	)
	if status == models.TitleStatusApproved {
		res, err = s.db.ExecContext(
			ctx,
			s.rebind(`UPDATE title_queue SET status = ?, approved_at = ? WHERE id = ?`),
			status, time.Now().UTC(), id,
		)
	} else {
		res, err = s.db.ExecContext(
			ctx,
			s.rebind(`UPDATE title_queue SET status = ? WHERE id = ?`),
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("set title status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("title item")
	}
	return nil
}

// NextApprovedTitle returns the oldest approved, unused title for a campaign,
// or nil when none is available
func (s *Store) NextApprovedTitle(ctx context.Context, campaignID int64) (*models.TitleItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		s.rebind(`SELECT `+titleColumns+` FROM title_queue
		WHERE campaign_id = ? AND status = ? AND used_at IS NULL
		ORDER BY approved_at ASC LIMIT 1`),
		campaignID, models.TitleStatusApproved,
	)
	item, err := scanTitleItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next approved title: %w", err)
	}
	return item, nil
}

// MarkTitleUsed stamps the time a title was consumed by content generation
func (s *Store) MarkTitleUsed(ctx context.Context, id int64, now time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE title_queue SET used_at = ? WHERE id = ?`),
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark title used: %w", err)
	}
	return nil
}

func scanTitleItem(row scanner) (*models.TitleItem, error) {
	var (
		item       models.TitleItem
		keywords   string
		approvedAt sql.NullTime
		usedAt     sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.CampaignID,
		&item.Title,
		&keywords,
		&item.Status,
		&item.CreatedAt,
		&approvedAt,
		&usedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.Keywords, err = unmarshalList(keywords); err != nil {
		return nil, err
	}
	item.ApprovedAt = timePtr(approvedAt)
	item.UsedAt = timePtr(usedAt)
	return &item, nil
}
