package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements that never hold article text.
const junkSelector = "script, style, noscript, iframe, nav, header, footer, aside, svg, button, select, template"

var (
	boilerplatePattern = regexp.MustCompile(`(?i)nav|menu|sidebar|comment|footer|advert|share|social|promo|cookie|subscribe|newsletter|breadcrumb|related|popup|banner`)
	contentPattern     = regexp.MustCompile(`(?i)and|article|body|column|content|main|shadow`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
	spacePattern       = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)
)

// Tags rendered on their own lines.
var blockTags = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// ExtractHTML reduces an HTML page to the plain text of its main content.
// The result contains no markup and never three consecutive newlines.
func ExtractHTML(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}

	doc.Find(junkSelector).Remove()

	root, unlikely := bestCandidate(doc, unlikelyNodes(doc))
	if root == nil {
		return ""
	}
	cleanCandidate(root, unlikely)

	var sb strings.Builder
	for _, n := range root.Nodes {
		renderText(&sb, n)
	}
	return normalizeText(sb.String())
}

// unlikelyNodes collects elements whose class or id reads like page chrome.
// Names that also look like content wrappers ("main-content has-sidebar")
// are kept.
func unlikelyNodes(doc *goquery.Document) map[*html.Node]bool {
	out := make(map[*html.Node]bool)
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "html", "body", "article", "main":
			return
		}
		attrs := s.AttrOr("class", "") + " " + s.AttrOr("id", "")
		if boilerplatePattern.MatchString(attrs) && !contentPattern.MatchString(attrs) {
			out[s.Nodes[0]] = true
		}
	})
	return out
}

// insideUnlikely reports whether n or one of its ancestors is unlikely.
func insideUnlikely(n *html.Node, unlikely map[*html.Node]bool) bool {
	for ; n != nil; n = n.Parent {
		if unlikely[n] {
			return true
		}
	}
	return false
}

// cleanCandidate drops chrome and forms nested in the chosen root. Unlikely
// elements never held a scored paragraph; a form goes only when it holds no
// prose. The root and its ancestors are never touched.
func cleanCandidate(root *goquery.Selection, unlikely map[*html.Node]bool) {
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		switch {
		case unlikely[s.Nodes[0]]:
			s.Remove()
		case goquery.NodeName(s) == "form" && !holdsParagraphs(s):
			s.Remove()
		}
	})
}

func holdsParagraphs(s *goquery.Selection) bool {
	found := false
	s.Find("p, pre, td").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		found = len(strings.TrimSpace(p.Text())) >= minParagraphChars
		return !found
	})
	return found
}

// minParagraphChars is the shortest text block that counts as prose.
const minParagraphChars = 25

// bestCandidate scores the parents of every paragraph by the text they hold
// and returns the highest scorer, or <body> when no paragraph qualifies.
// Paragraphs inside unlikely elements are ignored unless nothing else
// qualifies; in that case no element is treated as unlikely. The returned
// set is the one cleanCandidate may prune.
func bestCandidate(doc *goquery.Document, unlikely map[*html.Node]bool) (*goquery.Selection, map[*html.Node]bool) {
	if best := scoreCandidates(doc, unlikely); best != nil {
		return doc.FindNodes(best), unlikely
	}
	if best := scoreCandidates(doc, nil); best != nil {
		return doc.FindNodes(best), nil
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Selection, nil
	}
	return body.First(), nil
}

func scoreCandidates(doc *goquery.Document, unlikely map[*html.Node]bool) *html.Node {
	scores := make(map[*html.Node]float64)
	var order []*html.Node

	add := func(n *html.Node, v float64) {
		if n == nil || n.Type != html.ElementNode {
			return
		}
		if _, ok := scores[n]; !ok {
			order = append(order, n)
		}
		scores[n] += v
	}

	doc.Find("p, pre, td").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < minParagraphChars || insideUnlikely(s.Nodes[0], unlikely) {
			return
		}
		score := 1 + float64(strings.Count(text, ","))
		score += min(float64(len(text))/100, 3)

		parent := s.Nodes[0].Parent
		add(parent, score)
		if parent != nil {
			add(parent.Parent, score/2)
		}
	})

	var best *html.Node
	bestScore := 0.0
	for _, n := range order {
		score := scores[n] * (1 - linkDensity(doc.FindNodes(n)))
		if best == nil || score > bestScore {
			best, bestScore = n, score
		}
	}
	return best
}

func linkDensity(s *goquery.Selection) float64 {
	total := len(strings.TrimSpace(s.Text()))
	if total == 0 {
		return 0
	}
	linked := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linked += len(strings.TrimSpace(a.Text()))
	})
	return float64(linked) / float64(total)
}

func renderText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(spacePattern.ReplaceAllString(n.Data, " "))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(sb, c)
	}
	if block {
		sb.WriteString("\n")
	}
}

// normalizeText trims every line and folds runs of blank lines into one.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
