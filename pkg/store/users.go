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

const userColumns = `id, email, password_hash, tier, is_admin, posts_published_total, posts_published_period, period_started_at, max_active_campaigns, created_at`

// CreateUser inserts a new user. Tier defaults to trial and the quota period
// starts at creation time.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if user.Tier == "" {
		user.Tier = models.TierTrial
	}
	if user.MaxActiveCampaigns == 0 {
		user.MaxActiveCampaigns = 10
	}
	user.PeriodStartedAt = now
	user.CreatedAt = now

	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO users (email, password_hash, tier, is_admin, posts_published_total, posts_published_period, period_started_at, max_active_campaigns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		user.Email,
		user.PasswordHash,
		user.Tier,
		user.IsAdmin,
		user.PostsPublishedTotal,
		user.PostsPublishedPeriod,
		user.PeriodStartedAt,
		user.MaxActiveCampaigns,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUser fetches a user by id
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, oldest first
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetUserTier updates a user's subscription tier
func (s *Store) SetUserTier(ctx context.Context, id int64, tier string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET tier = ? WHERE id = ?`), tier, id)
	if err != nil {
		return fmt.Errorf("set user tier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("user")
	}
	return nil
}

// CountActiveCampaigns returns how many active campaigns a user currently has
func (s *Store) CountActiveCampaigns(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(*) FROM campaigns WHERE user_id = ? AND status = ?`),
		userID, models.CampaignStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active campaigns: %w", err)
	}
	return count, nil
}

// ResetPeriodCounts zeroes the per-period publish counter for every user whose
// quota period started at or before the cutoff, and opens a new period.
func (s *Store) ResetPeriodCounts(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE users SET posts_published_period = 0, period_started_at = ? WHERE period_started_at <= ?`),
		now.UTC(), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("reset period counts: %w", err)
	}
	return res.RowsAffected()
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Tier,
		&user.IsAdmin,
		&user.PostsPublishedTotal,
		&user.PostsPublishedPeriod,
		&user.PeriodStartedAt,
		&user.MaxActiveCampaigns,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
