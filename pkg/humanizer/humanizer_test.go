package humanizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// pickFirst pins the lead-in choice so output is reproducible.
func pickFirst(int) int { return 0 }

func TestHumanize_EmptyListNoOp(t *testing.T) {
	h := New()
	body := "However, it is done. We will do not regret it."

	assert.Equal(t, body, h.Humanize(body, nil))
	assert.Equal(t, body, h.Humanize(body, []string{}))
}

func TestHumanize_UnknownTagIgnored(t *testing.T) {
	h := New()
	body := "Plain text stays put."

	assert.Equal(t, body, h.Humanize(body, []string{"emoji_spam"}))
}

func TestHumanize_OpinionLeadIn(t *testing.T) {
	h := NewWithPick(pickFirst)
	body := "Coffee rewards patience.\n\nSecond paragraph."

	got := h.Humanize(body, []string{models.ImperfectionPersonalOpinions})

	assert.Equal(t, "Honestly? Coffee rewards patience.\n\nSecond paragraph.", got)
}

func TestHumanize_OpinionLeadIn_SkipsHeading(t *testing.T) {
	h := NewWithPick(pickFirst)
	body := "# Brew Guide\n\nCoffee rewards patience."

	got := h.Humanize(body, []string{models.ImperfectionPersonalOpinions})

	assert.Equal(t, "# Brew Guide\n\nHonestly? Coffee rewards patience.", got)
}

func TestHumanize_OpinionLeadIn_AllStructuralUnchanged(t *testing.T) {
	h := NewWithPick(pickFirst)
	body := "# Title\n\n- one\n- two\n\n1. step"

	got := h.Humanize(body, []string{models.ImperfectionPersonalOpinions})

	assert.Equal(t, body, got)
}

func TestHumanize_Typos(t *testing.T) {
	h := New()
	body := "It is really good. Still really good. Again really good. And really good."

	got := h.Humanize(body, []string{models.ImperfectionOccasionalTypos})

	assert.Equal(t, 1, strings.Count(got, "realy"), "only every fourth occurrence is misspelled")
	assert.Equal(t, 3, strings.Count(got, "really"))
}

func TestHumanize_Typos_BelowIntervalUntouched(t *testing.T) {
	h := New()
	body := "This is really, really, really good."

	got := h.Humanize(body, []string{models.ImperfectionOccasionalTypos})

	assert.Equal(t, body, got)
}

func TestHumanize_CasualConnectives(t *testing.T) {
	h := New()
	body := "However, the grind matters. Therefore, buy a burr grinder. Moreover, keep it clean."

	got := h.Humanize(body, []string{models.ImperfectionCasualLanguage})

	assert.Equal(t, "But the grind matters. So buy a burr grinder. And keep it clean.", got)
}

func TestHumanize_Contractions(t *testing.T) {
	h := New()
	body := "It is simple. You are ready. We will see. Do not rush, you cannot skip steps."

	got := h.Humanize(body, []string{models.ImperfectionContractions})

	assert.Equal(t, "It's simple. You're ready. We'll see. Don't rush, you can't skip steps.", got)
}

func TestHumanize_Contractions_NegationBeforePronounPair(t *testing.T) {
	h := New()
	body := "It will not happen."

	got := h.Humanize(body, []string{models.ImperfectionContractions})

	assert.Equal(t, "It won't happen.", got)
}

func TestHumanize_CumulativeInListOrder(t *testing.T) {
	h := NewWithPick(pickFirst)
	body := "However, it is worth it."

	got := h.Humanize(body, []string{
		models.ImperfectionPersonalOpinions,
		models.ImperfectionCasualLanguage,
		models.ImperfectionContractions,
	})

	assert.Equal(t, "Honestly? But it's worth it.", got)
}

func TestHumanize_DeterministicWithoutOpinions(t *testing.T) {
	h := New()
	body := "However, it is really good. Really really really private. Do not doubt it."
	tags := []string{
		models.ImperfectionOccasionalTypos,
		models.ImperfectionCasualLanguage,
		models.ImperfectionContractions,
	}

	assert.Equal(t, h.Humanize(body, tags), h.Humanize(body, tags))
}

func TestHumanize_PreservesParagraphBoundaries(t *testing.T) {
	h := NewWithPick(pickFirst)
	body := "# Guide\n\nHowever, it is really simple. You are close. Really really really so.\n\n- do not rush\n- keep really calm\n\nFinal words."
	tags := []string{
		models.ImperfectionPersonalOpinions,
		models.ImperfectionOccasionalTypos,
		models.ImperfectionCasualLanguage,
		models.ImperfectionContractions,
	}

	got := h.Humanize(body, tags)

	assert.Equal(t, strings.Count(body, "\n\n"), strings.Count(got, "\n\n"))
	assert.Contains(t, got, "# Guide\n\n")
	assert.Contains(t, got, "\n- ")
}
