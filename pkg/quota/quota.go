package quota

import (
	"fmt"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// Publish limits per subscription tier
const (
	TrialLifetimeLimit  = 5
	HobbyistPeriodLimit = 25
)

// Decision is the tracker's verdict for one publish attempt
type Decision struct {
	Allowed bool
	Reason  string
}

// Check reports whether the user may publish another post right now. It is a
// pure function of the user's tier and counters; counter increments happen
// only in the scheduler after a confirmed publish, never here.
func Check(user *models.User) Decision {
	switch user.Tier {
	case models.TierTrial:
		if user.PostsPublishedTotal >= TrialLifetimeLimit {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf("trial plan lifetime limit reached (%d/%d)", user.PostsPublishedTotal, TrialLifetimeLimit),
			}
		}
		return Decision{Allowed: true}
	case models.TierHobbyist:
		if user.PostsPublishedPeriod >= HobbyistPeriodLimit {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf("hobbyist plan period limit reached (%d/%d)", user.PostsPublishedPeriod, HobbyistPeriodLimit),
			}
		}
		return Decision{Allowed: true}
	case models.TierProfessional:
		return Decision{Allowed: true}
	default:
		// Fail closed on tiers we do not recognize.
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown subscription tier %q", user.Tier),
		}
	}
}

// CanPublish is the boolean form of Check
func CanPublish(user *models.User) bool {
	return Check(user).Allowed
}

// LimitForTier returns the publish limit for a tier and whether the tier is
// limited at all
func LimitForTier(tier string) (int, bool) {
	switch tier {
	case models.TierTrial:
		return TrialLifetimeLimit, true
	case models.TierHobbyist:
		return HobbyistPeriodLimit, true
	case models.TierProfessional:
		return 0, false
	default:
		return 0, true
	}
}

// Remaining returns how many posts the user may still publish and whether the
// allowance is finite
func Remaining(user *models.User) (int, bool) {
	switch user.Tier {
	case models.TierTrial:
		left := TrialLifetimeLimit - user.PostsPublishedTotal
		if left < 0 {
			left = 0
		}
		return left, true
	case models.TierHobbyist:
		left := HobbyistPeriodLimit - user.PostsPublishedPeriod
		if left < 0 {
			left = 0
		}
		return left, true
	case models.TierProfessional:
		return 0, false
	default:
		return 0, true
	}
}
