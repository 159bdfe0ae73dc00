package douban

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	reNumbers     = regexp.MustCompile(`\d+`)
	reWhitespaces = regexp.MustCompile(`\s+`)
)

// info indexes the labelled fields of the #info block. Labels are stored
// without their trailing colon.
type info struct {
	labels map[string]*goquery.Selection
}

func newInfo(doc *goquery.Document) info {
	in := info{labels: make(map[string]*goquery.Selection)}
	doc.Find("#info span.pl").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s.Text()), ":："))
		if _, seen := in.labels[label]; !seen && label != "" {
			in.labels[label] = s
		}
	})
	return in
}

// text returns the text following a label up to the next line break.
func (in info) text(label string) string {
	s, ok := in.labels[label]
	if !ok {
		return ""
	}
	var b strings.Builder
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "br" {
			break
		}
		if n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "pl") {
			break
		}
		b.WriteString(nodeText(n))
	}
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(b.String()), ":："))
}

// links returns the anchor texts following a label up to the next line
// break. It covers both the flat and the nested author markup.
func (in info) links(label string) []string {
	s, ok := in.labels[label]
	if !ok {
		return nil
	}
	var out []string
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "br" {
			break
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if t := reWhitespaces.ReplaceAllString(strings.TrimSpace(nodeText(n)), " "); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
			return true
		}
	}
	return false
}

// parsePubDate reads year and month out of free-form dates such as
// "2012-8-1", "2012年8月" or "8/2012". Out of range parts are dropped.
func parsePubDate(s string) (year, month int) {
	nums := reNumbers.FindAllString(s, -1)
	switch len(nums) {
	case 1:
		year, _ = strconv.Atoi(nums[0])
	case 2, 3:
		year, _ = strconv.Atoi(nums[0])
		month, _ = strconv.Atoi(nums[1])
	}
	if year > 0 && month > 0 && year < month {
		year, month = month, year
	}
	if year < 0 || year >= 3000 {
		year = 0
	}
	if month < 1 || month > 12 {
		month = 0
	}
	return year, month
}

func parsePages(s string) int {
	m := reNumbers.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > 999999 {
		return 0
	}
	return n
}
