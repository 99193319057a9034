package docload

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLText extracts the readable text from an HTML document, skipping script
// and style subtrees and collapsing runs of whitespace.
func HTMLText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", &DegradedError{Kind: KindHTML, Err: err}
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.TrimRight(sb.String(), "\n"), nil
}
