// Package humanizer applies the "imperfection" transformations a campaign
// requests to generated post bodies, making the text read less machine-made.
// Transformations run independently and cumulatively, in list order.
package humanizer

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// opinionLeadIns all start a sentence and keep the original sentence's
// capitalization intact.
var opinionLeadIns = []string{
	"Honestly?",
	"Here's my take:",
	"I'll be upfront:",
	"From my own experience:",
	"Let me be real for a second:",
}

// Every typoInterval-th occurrence of a word gets misspelled. Rare enough to
// stay believable.
const typoInterval = 4

var typos = []struct{ word, typo string }{
	{"really", "realy"},
	{"definitely", "definately"},
	{"because", "becuase"},
	{"receive", "recieve"},
	{"separate", "seperate"},
}

var typoPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(typos))
	for i, t := range typos {
		patterns[i] = regexp.MustCompile(`\b` + t.word + `\b`)
	}
	return patterns
}()

// Sentence-leading connectives only, so replacements never land mid-word.
var connectives = []struct{ formal, casual string }{
	{"However,", "But"},
	{"Therefore,", "So"},
	{"Additionally,", "Also,"},
	{"Furthermore,", "Plus,"},
	{"Consequently,", "So"},
	{"Moreover,", "And"},
	{"Nevertheless,", "Still,"},
}

var contractions = []struct{ long, short string }{
	{"do not", "don't"},
	{"does not", "doesn't"},
	{"did not", "didn't"},
	{"cannot", "can't"},
	{"will not", "won't"},
	{"would not", "wouldn't"},
	{"should not", "shouldn't"},
	{"could not", "couldn't"},
	{"is not", "isn't"},
	{"are not", "aren't"},
	{"it is", "it's"},
	{"that is", "that's"},
	{"there is", "there's"},
	{"you are", "you're"},
	{"we are", "we're"},
	{"they are", "they're"},
	{"you will", "you'll"},
	{"we will", "we'll"},
	{"it will", "it'll"},
	{"you have", "you've"},
	{"we have", "we've"},
}

type contractionPattern struct {
	re   *regexp.Regexp
	repl string
}

// Lowercase and sentence-initial capitalized forms of every pair.
var contractionPatterns = func() []contractionPattern {
	patterns := make([]contractionPattern, 0, len(contractions)*2)
	for _, c := range contractions {
		patterns = append(patterns,
			contractionPattern{
				re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(c.long) + `\b`),
				repl: c.short,
			},
			contractionPattern{
				re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(capitalize(c.long)) + `\b`),
				repl: capitalize(c.short),
			},
		)
	}
	return patterns
}()

var listMarker = regexp.MustCompile(`^\d+[.)]\s`)

// Humanizer rewrites post bodies. The pick function chooses among the
// opinion lead-ins; everything else is deterministic for a given input.
type Humanizer struct {
	pick func(n int) int
}

// New returns a humanizer with randomized lead-in choice.
func New() *Humanizer {
	return &Humanizer{pick: rand.Intn}
}

// NewWithPick returns a humanizer with a fixed choice function, for
// reproducible output.
func NewWithPick(pick func(n int) int) *Humanizer {
	return &Humanizer{pick: pick}
}

// Humanize applies the requested transformations to the body in list order.
// Unknown tags are skipped; an empty list returns the input unchanged.
func (h *Humanizer) Humanize(body string, imperfections []string) string {
	for _, tag := range imperfections {
		switch tag {
		case models.ImperfectionPersonalOpinions:
			body = h.insertOpinionLeadIn(body)
		case models.ImperfectionOccasionalTypos:
			body = injectTypos(body)
		case models.ImperfectionCasualLanguage:
			body = casualizeConnectives(body)
		case models.ImperfectionContractions:
			body = applyContractions(body)
		}
	}
	return body
}

// insertOpinionLeadIn prefixes the first plain paragraph with a lead-in
// phrase. Headings, lists, quotes and code fences are left alone so the
// markup structure survives.
func (h *Humanizer) insertOpinionLeadIn(body string) string {
	leadIn := opinionLeadIns[h.pick(len(opinionLeadIns))]
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isStructuralLine(trimmed) {
			continue
		}
		lines[i] = leadIn + " " + line
		return strings.Join(lines, "\n")
	}
	return body
}

func injectTypos(body string) string {
	for i, t := range typos {
		count := 0
		body = typoPatterns[i].ReplaceAllStringFunc(body, func(match string) string {
			count++
			if count%typoInterval == 0 {
				return t.typo
			}
			return match
		})
	}
	return body
}

func casualizeConnectives(body string) string {
	for _, c := range connectives {
		body = strings.ReplaceAll(body, c.formal, c.casual)
	}
	return body
}

func applyContractions(body string) string {
	for _, p := range contractionPatterns {
		body = p.re.ReplaceAllString(body, p.repl)
	}
	return body
}

func isStructuralLine(s string) bool {
	switch {
	case strings.HasPrefix(s, "#"),
		strings.HasPrefix(s, "```"),
		strings.HasPrefix(s, ">"),
		strings.HasPrefix(s, "- "),
		strings.HasPrefix(s, "* "),
		strings.HasPrefix(s, "|"):
		return true
	}
	return listMarker.MatchString(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
