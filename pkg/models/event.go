package models

import "time"

// Event severity levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// CampaignEvent records one outcome or notable condition from a scheduler
// pass over a campaign. RunID groups the events of a single pass.
type CampaignEvent struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaign_id"`
	RunID      string    `json:"run_id"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
