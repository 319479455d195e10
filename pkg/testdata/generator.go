// Package testdata generates realistic fixture data for local development
// and demo environments.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/secrets"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// GeneratorConfig configures fixture generation parameters
type GeneratorConfig struct {
	Users            int
	SitesPerUser     int
	CampaignsPerUser int
	ActiveChance     float64 // 0.0-1.0 (probability a campaign starts active)
	DueChance        float64 // 0.0-1.0 (probability an active campaign is already due)
}

// Topics niche blogs actually run campaigns about
var campaignTopics = []string{
	"coffee brewing",
	"home automation",
	"indoor gardening",
	"personal finance for freelancers",
	"remote work productivity",
	"sourdough baking",
	"trail running",
	"vintage synthesizers",
	"travel photography",
	"meal prep on a budget",
	"backyard beekeeping",
	"mechanical keyboards",
}

var campaignNameSuffixes = []string{
	"Series", "Pipeline", "Digest", "Stories", "Autopilot", "Weekly",
}

var tierDistribution = []struct {
	tier   string
	weight float64
}{
	{models.TierTrial, 0.60},
	{models.TierHobbyist, 0.25},
	{models.TierProfessional, 0.15},
}

// GenerateUser creates one fake user. Tiers follow the production
// distribution so quota behavior shows up in seeded environments.
func GenerateUser() *models.User {
	return &models.User{
		Email:        gofakeit.Email(),
		PasswordHash: gofakeit.Password(true, true, true, false, false, 32),
		Tier:         pickTier(),
	}
}

// GenerateSite creates one fake publish target for a user. The app password
// is plaintext; SeedAll encrypts it before insert.
func GenerateSite(userID int64) (*models.Site, string) {
	domain := strings.ToLower(gofakeit.DomainName())
	plainPassword := gofakeit.Password(true, true, true, false, false, 24)

	return &models.Site{
		UserID:   userID,
		Name:     gofakeit.Company() + " Blog",
		URL:      fmt.Sprintf("https://%s", domain),
		Username: gofakeit.Username(),
		Active:   true,
	}, plainPassword
}

// GenerateCampaign creates one fake campaign for a user. siteID may be nil
// to exercise the unconfigured-site failure path.
func GenerateCampaign(userID int64, siteID *int64, cfg GeneratorConfig) *models.Campaign {
	topic := campaignTopics[rand.Intn(len(campaignTopics))]

	status := models.CampaignStatusPaused
	nextRun := time.Now().UTC().Add(time.Duration(1+rand.Intn(48)) * time.Hour)
	if rand.Float64() < cfg.ActiveChance {
		status = models.CampaignStatusActive
		if rand.Float64() < cfg.DueChance {
			nextRun = time.Now().UTC().Add(-time.Duration(1+rand.Intn(60)) * time.Minute)
		}
	}

	tones := []string{models.ToneConversational, models.ToneFormal, models.ToneHumorous, models.ToneStorytelling}
	styles := []string{models.StyleProblemAgitateSolution, models.StyleAIDA, models.StyleListicle}

	return &models.Campaign{
		UserID:        userID,
		SiteID:        siteID,
		Name:          campaignName(topic),
		Status:        status,
		Topic:         topic,
		Context:       gofakeit.Sentence(12),
		Tone:          tones[rand.Intn(len(tones))],
		WritingStyle:  styles[rand.Intn(len(styles))],
		Imperfections: pickImperfections(),
		ContentTypes:  pickContentTypes(),
		TemplateVars: map[string]string{
			"audience": gofakeit.JobTitle(),
			"brand":    gofakeit.Company(),
		},
		IntervalHours: randomInterval(),
		NextRunAt:     nextRun,
	}
}

// SeedResult reports what SeedAll inserted
type SeedResult struct {
	Users     int
	Sites     int
	Campaigns int
}

// SeedAll inserts a full fixture set: users, their sites (credentials
// encrypted with the given cipher) and their campaigns.
func SeedAll(ctx context.Context, st *store.Store, cipher *secrets.Cipher, cfg GeneratorConfig) (*SeedResult, error) {
	result := &SeedResult{}

	for i := 0; i < cfg.Users; i++ {
		user, err := st.CreateUser(ctx, GenerateUser())
		if err != nil {
			return result, fmt.Errorf("seed user: %w", err)
		}
		result.Users++

		siteIDs := make([]int64, 0, cfg.SitesPerUser)
		for j := 0; j < cfg.SitesPerUser; j++ {
			site, plainPassword := GenerateSite(user.ID)
			site.AppPassword, err = cipher.Encrypt(plainPassword)
			if err != nil {
				return result, fmt.Errorf("seed site credentials: %w", err)
			}
			created, err := st.CreateSite(ctx, site)
			if err != nil {
				return result, fmt.Errorf("seed site: %w", err)
			}
			siteIDs = append(siteIDs, created.ID)
			result.Sites++
		}

		for j := 0; j < cfg.CampaignsPerUser; j++ {
			var siteID *int64
			if len(siteIDs) > 0 {
				siteID = &siteIDs[rand.Intn(len(siteIDs))]
			}
			if _, err := st.CreateCampaign(ctx, GenerateCampaign(user.ID, siteID, cfg)); err != nil {
				return result, fmt.Errorf("seed campaign: %w", err)
			}
			result.Campaigns++
		}
	}

	return result, nil
}

func pickTier() string {
	roll := rand.Float64()
	cumulative := 0.0
	for _, entry := range tierDistribution {
		cumulative += entry.weight
		if roll < cumulative {
			return entry.tier
		}
	}
	return models.TierTrial
}

func pickImperfections() []string {
	all := []string{
		models.ImperfectionPersonalOpinions,
		models.ImperfectionOccasionalTypos,
		models.ImperfectionCasualLanguage,
		models.ImperfectionContractions,
	}
	count := rand.Intn(len(all) + 1)
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:count]
}

func pickContentTypes() []string {
	count := 1 + rand.Intn(3)
	picked := make([]string, len(models.AllContentTypes))
	copy(picked, models.AllContentTypes)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:count]
}

// randomInterval returns an interval between 30 minutes and 72 hours, with a
// bias toward daily-ish cadences.
func randomInterval() float64 {
	switch rand.Intn(4) {
	case 0:
		return 0.5 + rand.Float64()*3.5 // sub-4h (testing quick cycles)
	case 1, 2:
		return 12 + rand.Float64()*24 // half-day to day-and-a-half
	default:
		return 48 + rand.Float64()*24 // every couple of days
	}
}

func campaignName(topic string) string {
	suffix := campaignNameSuffixes[rand.Intn(len(campaignNameSuffixes))]
	return titleWords(topic) + " " + suffix
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 3 || i == 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
