package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

var toneDirectives = map[string]string{
	models.ToneConversational: "Write in a relaxed, conversational tone, as if explaining to a friend",
	models.ToneFormal:         "Write in a polished, professional tone suitable for a business publication",
	models.ToneHumorous:       "Write with light humor and wit while keeping the content genuinely useful",
	models.ToneStorytelling:   "Write in a narrative style that carries the reader through a story",
}

var styleDirectives = map[string]string{
	models.StyleProblemAgitateSolution: "Structure the post as problem-agitate-solution: name the reader's problem, sharpen why it hurts, then present the solution",
	models.StyleAIDA:                   "Structure the post as attention-interest-desire-action: hook the reader, build interest, create desire, close with a call to action",
	models.StyleListicle:               "Structure the post as a numbered list with a short introduction and conclusion",
}

var contentTypeDirectives = map[string]string{
	models.ContentTypeHowToGuide:     "a step-by-step how-to guide",
	models.ContentTypeListicle:       "a listicle of concrete tips or examples",
	models.ContentTypeCaseStudy:      "a case study walking through a real-world example",
	models.ContentTypeOpinionPiece:   "an opinion piece taking a clear position",
	models.ContentTypeProductRoundup: "a product roundup comparing several options",
}

// The humanizer injects these touches after generation, so the model is told
// to keep them out of the draft.
var imperfectionAvoids = map[string]string{
	models.ImperfectionPersonalOpinions: "Do not open paragraphs with first-person opinion phrases",
	models.ImperfectionOccasionalTypos:  "Do not include intentional misspellings",
	models.ImperfectionCasualLanguage:   "Avoid casual filler words and slang",
	models.ImperfectionContractions:     "Prefer full forms over contractions",
}

// buildContentPrompt assembles the system and user messages for a full post.
// Output is stable for identical campaign parameters.
func buildContentPrompt(c *models.Campaign, opts Options) (string, string) {
	var sb strings.Builder
	sb.WriteString("You are a professional blog writer. Respond with exactly two sections, marked TITLE: and CONTENT:.\n")
	sb.WriteString("Format:\n")
	sb.WriteString("TITLE: <the post title on one line>\n")
	sb.WriteString("CONTENT:\n<the full post body in Markdown>\n")
	sb.WriteString("Rules:\n")
	if d, ok := toneDirectives[c.Tone]; ok {
		sb.WriteString(fmt.Sprintf("- %s.\n", d))
	}
	if d, ok := styleDirectives[c.WritingStyle]; ok {
		sb.WriteString(fmt.Sprintf("- %s.\n", d))
	}
	for _, tag := range c.Imperfections {
		if d, ok := imperfectionAvoids[tag]; ok {
			sb.WriteString(fmt.Sprintf("- %s.\n", d))
		}
	}
	sb.WriteString("- Do not add any explanation outside the two sections.\n")

	var ub strings.Builder
	ub.WriteString(fmt.Sprintf("Topic: %s\n", c.Topic))
	if c.Context != "" {
		ub.WriteString(fmt.Sprintf("Business context: %s\n", c.Context))
	}
	if d, ok := contentTypeDirectives[opts.ContentType]; ok {
		ub.WriteString(fmt.Sprintf("Write %s about this topic.\n", d))
	}
	writeTemplateVars(&ub, c.TemplateVars)
	if opts.Title != "" {
		ub.WriteString(fmt.Sprintf("Use this exact title: %s\n", opts.Title))
	}
	ub.WriteString("Respond in the TITLE:/CONTENT: format.")

	return sb.String(), ub.String()
}

// buildTitlesPrompt assembles the messages for a title batch request.
func buildTitlesPrompt(c *models.Campaign, count int) (string, string) {
	var sb strings.Builder
	sb.WriteString("You are a professional blog editor. Respond with a numbered list of post titles, one per line, and nothing else.\n")
	if d, ok := toneDirectives[c.Tone]; ok {
		sb.WriteString(fmt.Sprintf("- %s.\n", d))
	}

	var ub strings.Builder
	ub.WriteString(fmt.Sprintf("Topic: %s\n", c.Topic))
	if c.Context != "" {
		ub.WriteString(fmt.Sprintf("Business context: %s\n", c.Context))
	}
	ub.WriteString(fmt.Sprintf("Suggest %d blog post titles for this topic.", count))

	return sb.String(), ub.String()
}

// buildKeywordsPrompt assembles the messages for keyword extraction.
func buildKeywordsPrompt(topic, title string) (string, string) {
	system := "You are an SEO assistant. Respond with a comma-separated list of 5 to 10 lowercase keywords and nothing else."
	user := fmt.Sprintf("Topic: %s\nPost title: %s\nList the keywords.", topic, title)
	return system, user
}

// buildImagePrompt derives the featured-image prompt from the campaign and
// the chosen title. No model call involved.
func buildImagePrompt(c *models.Campaign, title string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("A clean banner illustration for a blog post titled %q", title))
	if c.Topic != "" {
		sb.WriteString(fmt.Sprintf(", themed around %s", c.Topic))
	}
	sb.WriteString(". No text in the image.")
	return sb.String()
}

// writeTemplateVars emits template variables in key order so the prompt is
// identical across calls for the same campaign.
func writeTemplateVars(b *strings.Builder, vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("Work these details in naturally:\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, vars[k]))
	}
}
