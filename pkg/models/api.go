package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name          string            `json:"name" validate:"required,min=2,max=120"`
	SiteID        *int64            `json:"site_id,omitempty"`
	Topic         string            `json:"topic" validate:"required,min=3,max=500"`
	Context       string            `json:"context,omitempty" validate:"max=2000"`
	Tone          string            `json:"tone,omitempty" validate:"omitempty,oneof=conversational formal humorous storytelling"`
	WritingStyle  string            `json:"writing_style,omitempty" validate:"omitempty,oneof=problem-agitate-solution attention-interest-desire-action listicle"`
	Imperfections []string          `json:"imperfections,omitempty" validate:"dive,oneof=personal_opinions occasional_typos casual_language contractions"`
	ContentTypes  []string          `json:"content_types,omitempty" validate:"max=5,dive,oneof=how_to_guide listicle case_study opinion_piece product_roundup"`
	TemplateVars  map[string]string `json:"template_vars,omitempty"`
	IntervalHours float64           `json:"interval_hours" validate:"required,gte=0.1,lte=168"`
}

// UpdateCampaignRequest represents a partial campaign update. Nil fields are
// left unchanged.
type UpdateCampaignRequest struct {
	Name          *string            `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	SiteID        *int64             `json:"site_id,omitempty"`
	Topic         *string            `json:"topic,omitempty" validate:"omitempty,min=3,max=500"`
	Context       *string            `json:"context,omitempty" validate:"omitempty,max=2000"`
	Tone          *string            `json:"tone,omitempty" validate:"omitempty,oneof=conversational formal humorous storytelling"`
	WritingStyle  *string            `json:"writing_style,omitempty" validate:"omitempty,oneof=problem-agitate-solution attention-interest-desire-action listicle"`
	Imperfections *[]string          `json:"imperfections,omitempty" validate:"omitempty,dive,oneof=personal_opinions occasional_typos casual_language contractions"`
	ContentTypes  *[]string          `json:"content_types,omitempty" validate:"omitempty,max=5,dive,oneof=how_to_guide listicle case_study opinion_piece product_roundup"`
	TemplateVars  *map[string]string `json:"template_vars,omitempty"`
	IntervalHours *float64           `json:"interval_hours,omitempty" validate:"omitempty,gte=0.1,lte=168"`
}

// CreateSiteRequest represents a request to connect a WordPress site
type CreateSiteRequest struct {
	Name                string `json:"name" validate:"required,min=2,max=120"`
	URL                 string `json:"url" validate:"required,url"`
	Username            string `json:"username" validate:"required"`
	AppPassword         string `json:"app_password" validate:"required"`
	SkipConnectionCheck bool   `json:"skip_connection_check,omitempty"`
}

// SiteResponse is a site without its credentials
type SiteResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Username  string `json:"username"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// GenerateTitlesRequest asks the provider for title candidates
type GenerateTitlesRequest struct {
	Count int `json:"count,omitempty" validate:"omitempty,min=1,max=20"`
}

// ReviewTitleRequest approves or rejects a pending title
type ReviewTitleRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// UsageResponse reports the caller's quota position
type UsageResponse struct {
	Tier                 string `json:"tier"`
	PostsPublishedTotal  int    `json:"posts_published_total"`
	PostsPublishedPeriod int    `json:"posts_published_period"`
	Limit                int    `json:"limit"`
	Unlimited            bool   `json:"unlimited"`
	Remaining            int    `json:"remaining"`
	PeriodStartedAt      string `json:"period_started_at"`
	PeriodResetsAt       string `json:"period_resets_at"`
	ActiveCampaigns      int    `json:"active_campaigns"`
	MaxActiveCampaigns   int    `json:"max_active_campaigns"`
}
