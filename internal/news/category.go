// file: internal/news/category.go
package news

import "strings"

// CategoryLatest is the front page and the fallback for unknown categories.
const CategoryLatest = "latest"

// categories lists the accepted categories in display order.
var categories = []string{"ai", "startup", "security", "venture", CategoryLatest}

// Categories returns the accepted category names.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// NormalizeCategory lowercases raw and maps anything outside the accepted set
// to CategoryLatest. ok is false when raw was replaced.
func NormalizeCategory(raw string) (category string, ok bool) {
	lower := strings.ToLower(raw)
	for _, c := range categories {
		if c == lower {
			return c, true
		}
	}
	return CategoryLatest, false
}

// CategoryURL builds the page URL for a normalized category.
func CategoryURL(baseURL, category string) string {
	base := strings.TrimRight(baseURL, "/")
	if category == CategoryLatest {
		return base + "/"
	}
	return base + "/tag/" + category + "/"
}
