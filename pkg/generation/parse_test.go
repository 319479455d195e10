package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTitleBody_Delimited(t *testing.T) {
	raw := "TITLE: Seven Ways to Brew Better Coffee\nCONTENT:\nCoffee rewards patience.\n\nStart with fresh beans."

	title, body := splitTitleBody(raw)

	assert.Equal(t, "Seven Ways to Brew Better Coffee", title)
	assert.Equal(t, "Coffee rewards patience.\n\nStart with fresh beans.", body)
}

func TestSplitTitleBody_QuotedTitle(t *testing.T) {
	raw := "TITLE: \"The Ultimate Cold Brew Guide\"\nCONTENT:\nBody text."

	title, _ := splitTitleBody(raw)

	assert.Equal(t, "The Ultimate Cold Brew Guide", title)
}

func TestSplitTitleBody_MissingMarkers(t *testing.T) {
	raw := "Cold brew is the easiest way to make coffee at home without any special equipment or barista skills."

	title, body := splitTitleBody(raw)

	assert.Equal(t, raw, body, "whole response becomes the body")
	assert.NotEmpty(t, title)
	assert.LessOrEqual(t, len(title), syntheticTitleLength)
	assert.True(t, strings.HasPrefix(raw, title), "synthetic title comes from the opening characters")
	assert.False(t, strings.HasSuffix(title, " "), "title cut at a word boundary")
}

func TestSplitTitleBody_MarkersOutOfOrder(t *testing.T) {
	raw := "CONTENT:\nsome body\nTITLE: late title"

	title, body := splitTitleBody(raw)

	assert.Equal(t, raw, body)
	assert.NotEqual(t, "late title", title)
}

func TestSplitTitleBody_EmptyTitleFallsBack(t *testing.T) {
	raw := "TITLE:\nCONTENT:\nOnly a body came back from the model this time."

	title, body := splitTitleBody(raw)

	assert.NotEmpty(t, title)
	assert.Contains(t, body, "Only a body")
}

func TestSyntheticTitle_ShortBodyKeptWhole(t *testing.T) {
	assert.Equal(t, "A short note", syntheticTitle("A short note"))
}

func TestSyntheticTitle_StripsHeadingMarker(t *testing.T) {
	title := syntheticTitle("# Heading first\nthen text")
	assert.Equal(t, "Heading first then text", title)
}

func TestParseTitleList(t *testing.T) {
	raw := strings.Join([]string{
		"1. How to Brew Better Coffee at Home",
		"2) Seven Espresso Mistakes Beginners Make",
		"- \"The Ultimate Guide to Cold Brew\"",
		"* Why Your Grinder Matters More Than Your Machine",
		"ok", // too short to be a title
		"",
	}, "\n")

	titles := parseTitleList(raw, 0)

	require.Len(t, titles, 4)
	assert.Equal(t, "How to Brew Better Coffee at Home", titles[0])
	assert.Equal(t, "Seven Espresso Mistakes Beginners Make", titles[1])
	assert.Equal(t, "The Ultimate Guide to Cold Brew", titles[2])
	assert.Equal(t, "Why Your Grinder Matters More Than Your Machine", titles[3])
}

func TestParseTitleList_CapsAtMax(t *testing.T) {
	raw := "1. First Real Title Here\n2. Second Real Title Here\n3. Third Real Title Here"

	titles := parseTitleList(raw, 2)

	assert.Len(t, titles, 2)
}

func TestParseTitleList_AllNoise(t *testing.T) {
	assert.Empty(t, parseTitleList("1. a\n2. bb\n\n- x", 0))
}

func TestParseKeywordList(t *testing.T) {
	raw := "Coffee, Espresso Machines\nBrewing, coffee, "

	keywords := parseKeywordList(raw)

	assert.Equal(t, []string{"coffee", "espresso machines", "brewing"}, keywords)
}

func TestParseKeywordList_CapsAtMax(t *testing.T) {
	raw := "a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12"

	keywords := parseKeywordList(raw)

	assert.Len(t, keywords, maxKeywords)
}

func TestFallbackKeywords_Deterministic(t *testing.T) {
	first := fallbackKeywords("Specialty Coffee")
	second := fallbackKeywords("Specialty Coffee")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"specialty coffee", "blog", "article", "tips"}, first)
}

func TestFallbackKeywords_EmptyTopic(t *testing.T) {
	assert.Equal(t, []string{"blog", "article", "tips"}, fallbackKeywords("  "))
}
