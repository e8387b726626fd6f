package books

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText converts a volume description, which Google Books sends as an
// HTML fragment, to text. Paragraphs are separated by a blank line and <br>
// becomes a line break.
func plainText(desc string) string {
	if !strings.ContainsAny(desc, "<&") {
		return collapse(desc)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return collapse(desc)
	}

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			switch goquery.NodeName(s) {
			case "#text":
				b.WriteString(s.Text())
			case "br":
				b.WriteString("\n")
			case "p", "div", "li", "blockquote":
				walk(s)
				b.WriteString("\n\n")
			case "script", "style":
			default:
				walk(s)
			}
		})
	}
	walk(doc.Find("body"))
	return collapse(b.String())
}

// collapse squeezes runs of spaces within lines and keeps at most one blank
// line between paragraphs.
func collapse(s string) string {
	var out []string
	gap := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			gap = len(out) > 0
			continue
		}
		if gap {
			out = append(out, "")
			gap = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
