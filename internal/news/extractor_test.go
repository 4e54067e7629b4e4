// file: internal/news/extractor_test.go
package news

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func success(body string) FetchOutcome {
	return Success{StatusCode: 200, Body: []byte(body)}
}

func TestExtract_FailureSentences(t *testing.T) {
	e := NewExtractor("TechCrunch")

	testCases := []struct {
		name    string
		outcome FetchOutcome
		want    string
	}{
		{"http error", HTTPError{StatusCode: 503}, "Failed to fetch news from TechCrunch. HTTP Status: 503"},
		{"timeout", Timeout{}, "Error: Request timeout while fetching TechCrunch news"},
		{"network error", NetworkError{Detail: "connection refused"}, "Error fetching TechCrunch news: connection refused"},
		{"unexpected error", UnexpectedError{Detail: "bad url"}, "Unexpected error while fetching news: bad url"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Extract(tc.outcome, "ai"))
		})
	}
}

func TestExtract_Headlines(t *testing.T) {
	page := `<html><body>
		<article class="post-block">
			<header><h2 class="post-block__title"><a href="/a">OpenAI ships a <em>new</em> model</a></h2></header>
		</article>
		<div class="Article-Card">
			<h3 class="card-TITLE">  Startup raises big seed round  </h3>
		</div>
		<div class="post"><h2 class="title">Too short</h2></div>
		<div class="sidebar"><h2 class="title">Not inside an article container</h2></div>
	</body></html>`

	got := NewExtractor("TechCrunch").Extract(success(page), "ai")

	want := "Latest TechCrunch ai news:\n\n" +
		"• OpenAI ships anewmodel\n" +
		"• Startup raises big seed round"
	assert.Equal(t, want, got)
}

func TestExtract_Headlines_FirstFiveContainersOnly(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&sb, `<article class="post"><h2 class="entry-title">Headline number %d here</h2></article>`, i)
	}
	sb.WriteString("</body></html>")

	got := NewExtractor("TechCrunch").Extract(success(sb.String()), "latest")

	assert.Contains(t, got, "Headline number 5 here")
	assert.NotContains(t, got, "Headline number 6 here")
	assert.Equal(t, 5, strings.Count(got, "• "))
}

func TestExtract_Headlines_NestedContainersBothCount(t *testing.T) {
	page := `<div class="post-list"><article class="article"><h2 class="title">Nested headline text</h2></article></div>`

	got := NewExtractor("TechCrunch").Extract(success(page), "security")

	assert.Equal(t, "Latest TechCrunch security news:\n\n• Nested headline text\n• Nested headline text", got)
}

func TestExtract_Headlines_Truncated(t *testing.T) {
	long := strings.Repeat("é", 600)
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&sb, `<article class="post"><h1 class="title">%s</h1></article>`, long)
	}

	got := NewExtractor("TechCrunch").Extract(success(sb.String()), "ai")

	assert.True(t, strings.HasPrefix(got, "Latest TechCrunch ai news:"))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 2003, utf8.RuneCountInString(got))
}

func TestExtract_VisibleTextFallback(t *testing.T) {
	page := `<html><head><title>Tech</title><style>body{color:red}</style>
		<script>var x = "hidden";</script></head>
		<body><!-- a comment --><p> Hello   </p><div>brave <b>new</b> world</div>
		<noscript>enable js</noscript><template><p>tpl</p></template></body></html>`

	got := NewExtractor("TechCrunch").Extract(success(page), "venture")

	assert.Equal(t, "TechCrunch venture news content:\nTech Hello brave new world", got)
}

func TestExtract_VisibleTextFallback_Truncated(t *testing.T) {
	page := "<p>" + strings.Repeat("word ", 1000) + "</p>"

	got := NewExtractor("TechCrunch").Extract(success(page), "latest")

	assert.True(t, strings.HasPrefix(got, "TechCrunch latest news content:\n"))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 1003)
}

func TestExtract_RawFallback_When_ParserFails(t *testing.T) {
	failing := func(io.Reader) (*html.Node, error) {
		return nil, fmt.Errorf("parser unavailable")
	}
	e := NewExtractor("TechCrunch", WithParser(failing))

	assert.Equal(t, "TechCrunch ai content:\n<p>raw</p>", e.Extract(success("<p>raw</p>"), "ai"))

	got := e.Extract(success(strings.Repeat("x", 5000)), "ai")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 1003, utf8.RuneCountInString(got))
}

func TestExtract_EmptyBody(t *testing.T) {
	got := NewExtractor("TechCrunch").Extract(success(""), "ai")
	assert.Equal(t, "TechCrunch ai news content:\n", got)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "ab...", truncateRunes("abc", 2))
	assert.Equal(t, "日本...", truncateRunes("日本語", 2))
}

func TestClassPredicates(t *testing.T) {
	assert.True(t, isArticleClass("Post-Block"))
	assert.True(t, isArticleClass("wp-ARTICLE"))
	assert.False(t, isArticleClass("sidebar"))
	assert.True(t, isTitleClass("entry-Title"))
	assert.False(t, isTitleClass("heading"))
}
