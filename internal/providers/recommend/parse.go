package recommend

import (
	"html"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
	defaultReason = "Recommended based on your preferences"
)

var (
	jsonArray   = regexp.MustCompile(`(?s)\[.*\]`)
	sectionSep  = regexp.MustCompile(`\d+\.\s|\n\n`)
	titleAuthor = regexp.MustCompile(`(?i)^\s*["'“]?(.+?)["'”]?\s+by\s+([\p{L}\p{N} \t.']+)`)
	reasonLead  = regexp.MustCompile(`^[\s:,\-–—]+`)

	strict = bluemonday.StrictPolicy()
)

// parseReply extracts recommendations from a model reply: the first JSON
// array if there is one, otherwise "Title by Author" lines. ok is false when
// nothing usable was found.
func parseReply(reply string) (recs []Recommendation, ok bool) {
	if match := jsonArray.FindString(reply); match != "" {
		if recs, ok := parseJSON(match); ok {
			return recs, true
		}
	}
	recs = parseText(reply)
	return recs, len(recs) > 0
}

func parseJSON(data string) ([]Recommendation, bool) {
	var raw []struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Reason string `json:"reason"`
	}
	if err := sonic.UnmarshalString(data, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}

	recs := make([]Recommendation, 0, min(len(raw), MaxRecommendations))
	for _, r := range raw[:min(len(raw), MaxRecommendations)] {
		recs = append(recs, Recommendation{
			Title:  orDefault(clean(r.Title), unknownTitle),
			Author: orDefault(clean(r.Author), unknownAuthor),
			Reason: orDefault(clean(r.Reason), defaultReason),
		})
	}
	return recs, true
}

func parseText(text string) []Recommendation {
	var recs []Recommendation
	for _, section := range sectionSep.Split(text, -1) {
		if len(recs) == MaxRecommendations {
			break
		}
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		loc := titleAuthor.FindStringSubmatchIndex(section)
		if loc == nil {
			continue
		}
		title := clean(strings.Trim(section[loc[2]:loc[3]], "*_ "))
		author := clean(strings.Trim(section[loc[4]:loc[5]], "*_ "))
		if title == "" || author == "" {
			continue
		}
		reason := clean(reasonLead.ReplaceAllString(section[loc[1]:], ""))

		recs = append(recs, Recommendation{
			Title:  title,
			Author: author,
			Reason: orDefault(reason, defaultReason),
		})
	}
	return recs
}

// clean strips markup from model output and returns plain text.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
