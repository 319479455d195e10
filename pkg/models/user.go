package models

import "time"

// Subscription tiers
const (
	TierTrial        = "trial"
	TierHobbyist     = "hobbyist"
	TierProfessional = "professional"
)

// User owns campaigns and publish-target sites. Publish counters are mutated
// only by the scheduler after a confirmed successful publish.
type User struct {
	ID                   int64     `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	Tier                 string    `json:"tier"`
	IsAdmin              bool      `json:"is_admin"`
	PostsPublishedTotal  int       `json:"posts_published_total"`
	PostsPublishedPeriod int       `json:"posts_published_period"`
	PeriodStartedAt      time.Time `json:"period_started_at"`
	MaxActiveCampaigns   int       `json:"max_active_campaigns"`
	CreatedAt            time.Time `json:"created_at"`
}
