package models

import "time"

// Title queue item statuses
const (
	TitleStatusPending  = "pending"
	TitleStatusApproved = "approved"
	TitleStatusRejected = "rejected"
)

// Content queue item statuses
const (
	ContentStatusPending    = "pending"
	ContentStatusInProgress = "in_progress"
	ContentStatusCompleted  = "completed"
	ContentStatusFailed     = "failed"
	ContentStatusCancelled  = "cancelled"
)

// TitleItem is a candidate post title awaiting approval. Only approved items
// are consumed by content generation.
type TitleItem struct {
	ID         int64      `json:"id"`
	CampaignID int64      `json:"campaign_id"`
	Title      string     `json:"title"`
	Keywords   []string   `json:"keywords"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// ContentItem is one unit of generation-to-publish work. State machine:
// pending -> in_progress -> completed | failed. Terminal states only leave
// via the retention sweeps.
type ContentItem struct {
	ID           int64      `json:"id"`
	CampaignID   int64      `json:"campaign_id"`
	TitleItemID  *int64     `json:"title_item_id,omitempty"`
	Status       string     `json:"status"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Keywords     []string   `json:"keywords"`
	ImageURL     string     `json:"image_url,omitempty"`
	RemotePostID int64      `json:"remote_post_id,omitempty"`
	PostURL      string     `json:"post_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
