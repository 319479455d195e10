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

// Fully qualified so the same list works in joined queries.
const campaignColumns = `campaigns.id, campaigns.user_id, campaigns.site_id, campaigns.name, campaigns.status, campaigns.topic, campaigns.context, campaigns.tone, campaigns.writing_style, campaigns.imperfections, campaigns.content_types, campaigns.template_vars, campaigns.interval_hours, campaigns.next_run_at, campaigns.posts_published, campaigns.created_at, campaigns.updated_at`

// CreateCampaign inserts a new campaign. The first run is scheduled one
// interval after creation unless the caller set an explicit next-run time.
func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	now := time.Now().UTC()
	if c.Status == "" {
		c.Status = models.CampaignStatusActive
	}
	c.IntervalHours = models.RoundInterval(c.IntervalHours)
	if !models.ValidInterval(c.IntervalHours) {
		return nil, domain.NewValidationError(fmt.Sprintf("interval must be between %.2f and %.2f hours", models.MinIntervalHours, models.MaxIntervalHours))
	}
	if c.NextRunAt.IsZero() {
		c.NextRunAt = now.Add(c.Interval())
	}
	c.NextRunAt = c.NextRunAt.UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	imperfections, err := marshalList(c.Imperfections)
	if err != nil {
		return nil, err
	}
	contentTypes, err := marshalList(c.ContentTypes)
	if err != nil {
		return nil, err
	}
	templateVars, err := marshalMap(c.TemplateVars)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO campaigns (user_id, site_id, name, status, topic, context, tone, writing_style, imperfections, content_types, template_vars, interval_hours, next_run_at, posts_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		c.UserID,
		nullableInt64(c.SiteID),
		c.Name,
		c.Status,
		c.Topic,
		c.Context,
		c.Tone,
		c.WritingStyle,
		imperfections,
		contentTypes,
		templateVars,
		c.IntervalHours,
		c.NextRunAt,
		c.PostsPublished,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}
	return c, nil
}

// GetCampaign fetches a campaign by id
func (s *Store) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+campaignColumns+` FROM campaigns WHERE campaigns.id = ?`), id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("campaign")
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns all campaigns owned by a user, newest first
func (s *Store) ListCampaigns(ctx context.Context, userID int64) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+campaignColumns+` FROM campaigns WHERE campaigns.user_id = ? ORDER BY campaigns.created_at DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// UpdateCampaign persists user-mutable campaign parameters
func (s *Store) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	c.IntervalHours = models.RoundInterval(c.IntervalHours)
	if !models.ValidInterval(c.IntervalHours) {
		return domain.NewValidationError(fmt.Sprintf("interval must be between %.2f and %.2f hours", models.MinIntervalHours, models.MaxIntervalHours))
	}
	c.UpdatedAt = time.Now().UTC()

	imperfections, err := marshalList(c.Imperfections)
	if err != nil {
		return err
	}
	contentTypes, err := marshalList(c.ContentTypes)
	if err != nil {
		return err
	}
	templateVars, err := marshalMap(c.TemplateVars)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE campaigns SET site_id = ?, name = ?, topic = ?, context = ?, tone = ?, writing_style = ?, imperfections = ?, content_types = ?, template_vars = ?, interval_hours = ?, updated_at = ? WHERE id = ?`),
		nullableInt64(c.SiteID),
		c.Name,
		c.Topic,
		c.Context,
		c.Tone,
		c.WritingStyle,
		imperfections,
		contentTypes,
		templateVars,
		c.IntervalHours,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("campaign")
	}
	return nil
}

// SetCampaignStatus updates the lifecycle status
func (s *Store) SetCampaignStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("campaign")
	}
	return nil
}

// DeleteCampaign removes a campaign. Queue items and events cascade.
func (s *Store) DeleteCampaign(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM campaigns WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("campaign")
	}
	return nil
}

// ListDueCampaigns returns active campaigns whose next-run time has passed and
// whose target site is active, oldest-due first, capped at limit.
func (s *Store) ListDueCampaigns(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+campaignColumns+` FROM campaigns
		JOIN sites ON sites.id = campaigns.site_id AND sites.active = ?
		WHERE campaigns.status = ? AND campaigns.next_run_at <= ?
		ORDER BY campaigns.next_run_at ASC LIMIT ?`),
		true, models.CampaignStatusActive, now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due campaigns: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// ClaimDueCampaign advances next-run only if the campaign is still active and
// still due. The conditional write is the guard that keeps a manual trigger
// and a periodic tick from both processing the same due cycle.
func (s *Store) ClaimDueCampaign(ctx context.Context, id int64, now, nextRun time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE campaigns SET next_run_at = ?, updated_at = ? WHERE id = ? AND status = ? AND next_run_at <= ?`),
		nextRun.UTC(), now.UTC(), id, models.CampaignStatusActive, now.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("claim campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RescheduleCampaign persists the next-run time computed after a processing
// attempt
func (s *Store) RescheduleCampaign(ctx context.Context, id int64, nextRun time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE campaigns SET next_run_at = ?, updated_at = ? WHERE id = ?`),
		nextRun.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("reschedule campaign: %w", err)
	}
	return nil
}

func collectCampaigns(rows *sql.Rows) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func scanCampaign(row scanner) (*models.Campaign, error) {
	var (
		c             models.Campaign
		siteID        sql.NullInt64
		imperfections string
		contentTypes  string
		templateVars  string
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&siteID,
		&c.Name,
		&c.Status,
		&c.Topic,
		&c.Context,
		&c.Tone,
		&c.WritingStyle,
		&imperfections,
		&contentTypes,
		&templateVars,
		&c.IntervalHours,
		&c.NextRunAt,
		&c.PostsPublished,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.SiteID = int64Ptr(siteID)
	if c.Imperfections, err = unmarshalList(imperfections); err != nil {
		return nil, err
	}
	if c.ContentTypes, err = unmarshalList(contentTypes); err != nil {
		return nil, err
	}
	if c.TemplateVars, err = unmarshalMap(templateVars); err != nil {
		return nil, err
	}
	return &c, nil
}
