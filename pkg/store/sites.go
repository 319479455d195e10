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

const siteColumns = `id, user_id, name, url, username, app_password, active, created_at`

// CreateSite inserts a new publish-target site. The app password must already
// be encrypted by the caller.
func (s *Store) CreateSite(ctx context.Context, site *models.Site) (*models.Site, error) {
	site.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO sites (user_id, name, url, username, app_password, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		site.UserID,
		site.Name,
		site.URL,
		site.Username,
		site.AppPassword,
		site.Active,
		site.CreatedAt,
	).Scan(&site.ID)
	if err != nil {
		return nil, fmt.Errorf("insert site: %w", err)
	}
	return site, nil
}

// GetSite fetches a site by id
func (s *Store) GetSite(ctx context.Context, id int64) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+siteColumns+` FROM sites WHERE id = ?`), id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("site")
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return site, nil
}

// ListSites returns all sites owned by a user
func (s *Store) ListSites(ctx context.Context, userID int64) ([]*models.Site, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+siteColumns+` FROM sites WHERE user_id = ? ORDER BY created_at DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SetSiteActive toggles whether the scheduler may publish to the site
func (s *Store) SetSiteActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE sites SET active = ? WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("set site active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("site")
	}
	return nil
}

// DeleteSite removes a site. The reference check and the delete run in one
// transaction so a campaign created in between cannot be orphaned.
func (s *Store) DeleteSite(ctx context.Context, id int64) error {
	return s.client.WithTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(
			ctx,
			s.rebind(`SELECT COUNT(*) FROM campaigns WHERE site_id = ?`),
			id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count site references: %w", err)
		}
		if refs > 0 {
			return domain.NewConflictError(fmt.Sprintf("site is referenced by %d campaign(s)", refs))
		}

		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM sites WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete site: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return domain.NewNotFoundError("site")
		}
		return nil
	})
}

func scanSite(row scanner) (*models.Site, error) {
	var site models.Site
	err := row.Scan(
		&site.ID,
		&site.UserID,
		&site.Name,
		&site.URL,
		&site.Username,
		&site.AppPassword,
		&site.Active,
		&site.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &site, nil
}
