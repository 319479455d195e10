package generation

import (
	"regexp"
	"strings"
)

const (
	titleMarker   = "TITLE:"
	contentMarker = "CONTENT:"

	// syntheticTitleLength caps the title derived from the body when the
	// model ignores the requested format.
	syntheticTitleLength = 60

	// minTitleLength filters list entries too short to be real titles.
	minTitleLength = 10

	maxKeywords = 10
)

var enumMarker = regexp.MustCompile(`^\s*(?:\d+[.)]\s*|[-*•]\s+)`)

// splitTitleBody extracts the title and body from a marker-delimited
// response. When the markers are missing or malformed the whole response
// becomes the body and a title is synthesized from its opening characters.
func splitTitleBody(raw string) (string, string) {
	text := strings.TrimSpace(raw)

	ti := strings.Index(text, titleMarker)
	ci := strings.Index(text, contentMarker)
	if ti >= 0 && ci > ti {
		title := cleanTitle(text[ti+len(titleMarker) : ci])
		body := strings.TrimSpace(text[ci+len(contentMarker):])
		if title != "" && body != "" {
			return title, body
		}
	}

	return syntheticTitle(text), text
}

// syntheticTitle collapses the body into one line and truncates it at a word
// boundary.
func syntheticTitle(body string) string {
	joined := strings.Join(strings.Fields(body), " ")
	joined = strings.TrimLeft(joined, "# ")
	if len(joined) <= syntheticTitleLength {
		return joined
	}
	cut := joined[:syntheticTitleLength]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}

// parseTitleList pulls titles out of a numbered or bulleted list, stripping
// enumeration markers and discarding entries below the minimum length.
func parseTitleList(raw string, max int) []string {
	var titles []string
	for _, line := range strings.Split(raw, "\n") {
		line = enumMarker.ReplaceAllString(line, "")
		line = cleanTitle(line)
		if len(line) < minTitleLength {
			continue
		}
		titles = append(titles, line)
		if max > 0 && len(titles) == max {
			break
		}
	}
	return titles
}

// parseKeywordList splits a comma- or newline-separated keyword response,
// lowercasing and deduplicating entries.
func parseKeywordList(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")

	var keywords []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = enumMarker.ReplaceAllString(part, "")
		part = strings.ToLower(strings.TrimSpace(part))
		part = strings.Trim(part, `"'.`)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		keywords = append(keywords, part)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// fallbackKeywords derives a keyword set from the topic alone, used when the
// provider cannot be reached. The same topic always yields the same set.
func fallbackKeywords(topic string) []string {
	var keywords []string
	if t := strings.ToLower(strings.TrimSpace(topic)); t != "" {
		keywords = append(keywords, t)
	}
	return append(keywords, "blog", "article", "tips")
}

// cleanTitle strips the wrapping the model tends to add around a title.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimPrefix(s, "**")
	s = strings.TrimSuffix(s, "**")
	return strings.TrimSpace(s)
}
