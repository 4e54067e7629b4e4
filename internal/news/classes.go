// file: internal/news/classes.go
package news

import (
	"strings"

	"golang.org/x/net/html"
)

// classPredicate decides whether a single class token matches.
type classPredicate func(token string) bool

// tokenContains matches tokens containing any of subs, ignoring case.
func tokenContains(subs ...string) classPredicate {
	return func(token string) bool {
		lower := strings.ToLower(token)
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
		return false
	}
}

var (
	isArticleClass = tokenContains("post", "article")
	isTitleClass   = tokenContains("title")
)

// classTokens splits the class attribute of n into whitespace-separated tokens.
func classTokens(n *html.Node) []string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}

// hasClass reports whether any class token of n satisfies pred.
func hasClass(n *html.Node, pred classPredicate) bool {
	for _, tok := range classTokens(n) {
		if pred(tok) {
			return true
		}
	}
	return false
}
