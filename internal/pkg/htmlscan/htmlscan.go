// Package htmlscan extracts image references from HTML fragments. Inline
// body images are kept out of gallery fields everywhere, so the scan lives
// in one place.
package htmlscan

import (
	"strings"

	"golang.org/x/net/html"
)

// InlineImageURLs returns the src of every <img> in an HTML fragment.
// A fragment that fails to parse yields no URLs; exclusion is best effort.
func InlineImageURLs(fragment string) []string {
	if !strings.Contains(fragment, "<img") {
		return nil
	}

	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var urls []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "src" && attr.Val != "" {
					urls = append(urls, attr.Val)
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return urls
}
