package models

import (
	"math"
	"time"
)

// Campaign lifecycle statuses
const (
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusError     = "error"
)

// Tone of voice options
const (
	ToneConversational = "conversational"
	ToneFormal         = "formal"
	ToneHumorous       = "humorous"
	ToneStorytelling   = "storytelling"
)

// Writing style options
const (
	StyleProblemAgitateSolution = "problem-agitate-solution"
	StyleAIDA                   = "attention-interest-desire-action"
	StyleListicle               = "listicle"
)

// Imperfection transformation tags, applied by the humanizer in list order
const (
	ImperfectionPersonalOpinions = "personal_opinions"
	ImperfectionOccasionalTypos  = "occasional_typos"
	ImperfectionCasualLanguage   = "casual_language"
	ImperfectionContractions     = "contractions"
)

// Content type templates
const (
	ContentTypeHowToGuide     = "how_to_guide"
	ContentTypeListicle       = "listicle"
	ContentTypeCaseStudy      = "case_study"
	ContentTypeOpinionPiece   = "opinion_piece"
	ContentTypeProductRoundup = "product_roundup"
)

// AllContentTypes is the rotation order when a campaign selects none.
var AllContentTypes = []string{
	ContentTypeHowToGuide,
	ContentTypeListicle,
	ContentTypeCaseStudy,
	ContentTypeOpinionPiece,
	ContentTypeProductRoundup,
}

// Interval bounds in hours
const (
	MinIntervalHours = 0.10
	MaxIntervalHours = 168.00
)

// Campaign is a recurring content-production configuration. The scheduler
// mutates status, next-run and counters; the owning user mutates parameters.
type Campaign struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	SiteID         *int64            `json:"site_id,omitempty"`
	Name           string            `json:"name"`
	Status         string            `json:"status"`
	Topic          string            `json:"topic"`
	Context        string            `json:"context"`
	Tone           string            `json:"tone"`
	WritingStyle   string            `json:"writing_style"`
	Imperfections  []string          `json:"imperfections"`
	ContentTypes   []string          `json:"content_types"`
	TemplateVars   map[string]string `json:"template_vars"`
	IntervalHours  float64           `json:"interval_hours"`
	NextRunAt      time.Time         `json:"next_run_at"`
	PostsPublished int               `json:"posts_published"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Interval returns the campaign's publish interval as a duration.
func (c *Campaign) Interval() time.Duration {
	return time.Duration(c.IntervalHours * float64(time.Hour))
}

// SelectedContentTypes returns the campaign's content types, or the full
// rotation when none are selected.
func (c *Campaign) SelectedContentTypes() []string {
	if len(c.ContentTypes) == 0 {
		return AllContentTypes
	}
	return c.ContentTypes
}

// RotateContentType picks the content type for the next post, rotating
// deterministically by the number of posts already published.
func (c *Campaign) RotateContentType() string {
	types := c.SelectedContentTypes()
	return types[c.PostsPublished%len(types)]
}

// RoundInterval normalizes an interval to two-decimal-hour precision.
func RoundInterval(hours float64) float64 {
	return math.Round(hours*100) / 100
}

// ValidInterval reports whether an interval falls within the allowed bounds.
func ValidInterval(hours float64) bool {
	return hours >= MinIntervalHours && hours <= MaxIntervalHours
}
