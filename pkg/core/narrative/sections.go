package narrative

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"roi_advisor/pkg/core/utils"
)

// Section is one headed block of the generated analysis.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ParseSections splits markdown into sections. A heading is either an ATX/setext
// heading or a paragraph that opens with a bold run ("**Risk Factors**").
// Text before the first heading becomes a section with an empty heading.
func ParseSections(markdown string) ([]Section, string, error) {
	html, err := utils.RenderHTML(markdown)
	if err != nil {
		return nil, "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", err
	}

	var sections []Section
	var current *Section
	var body []string

	flush := func() {
		if current == nil && len(body) == 0 {
			return
		}
		if current == nil {
			current = &Section{}
		}
		current.Body = strings.Join(body, "\n\n")
		sections = append(sections, *current)
		current, body = nil, nil
	}

	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			flush()
			current = &Section{Heading: cleanHeading(sel.Text())}
		case "p":
			first := sel.Contents().First()
			if goquery.NodeName(first) == "strong" {
				flush()
				heading := first.Text()
				current = &Section{Heading: cleanHeading(heading)}
				if rest := strings.TrimSpace(strings.TrimPrefix(sel.Text(), heading)); rest != "" {
					body = append(body, strings.TrimSpace(strings.TrimPrefix(rest, ":")))
				}
				return
			}
			if text := strings.TrimSpace(sel.Text()); text != "" {
				body = append(body, text)
			}
		case "ul", "ol":
			var items []string
			sel.Find("li").Each(func(_ int, li *goquery.Selection) {
				items = append(items, "- "+strings.TrimSpace(li.Text()))
			})
			if len(items) > 0 {
				body = append(body, strings.Join(items, "\n"))
			}
		default:
			if text := strings.TrimSpace(sel.Text()); text != "" {
				body = append(body, text)
			}
		}
	})
	flush()

	return sections, html, nil
}

func cleanHeading(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":"))
}
