package webaccess

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// strippedElements never contribute readable text.
var strippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"aside":  true,
}

// contentClasses mark a div as the page's main content container.
var contentClasses = map[string]bool{
	"content": true,
	"main":    true,
	"article": true,
	"post":    true,
}

// extractText converts an HTML document to plain text. Scripts, styles
// and page chrome are dropped; if the document has a main, article or
// content-classed container, only its text is taken, otherwise the
// whole body. Whitespace is collapsed. On parse failure the raw input
// is returned truncated, so a badly broken page still yields something
// the filters can inspect.
func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return truncate(htmlContent, 1000)
	}

	root := findMainContent(doc)
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	collectText(root, &sb)

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sb.String(), " "))
}

// findMainContent locates the preferred content container: the first
// main or article element, then a div with a recognized content class,
// then the body.
func findMainContent(doc *html.Node) *html.Node {
	if n := findElement(doc, func(n *html.Node) bool {
		return n.Data == "main" || n.Data == "article"
	}); n != nil {
		return n
	}
	if n := findElement(doc, func(n *html.Node) bool {
		if n.Data != "div" {
			return false
		}
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, class := range strings.Fields(attr.Val) {
				if contentClasses[strings.ToLower(class)] {
					return true
				}
			}
		}
		return false
	}); n != nil {
		return n
	}
	return findElement(doc, func(n *html.Node) bool { return n.Data == "body" })
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && strippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// sequence the way a byte slice would.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
