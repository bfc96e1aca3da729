package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Protein timing</title><style>body { color: red; }</style><script>var x = "<p>nope</p>";</script></head>
<body>
  <nav class="top-nav"><a href="/">Home</a> <a href="/blog">Blog</a></nav>
  <header><h1>Site header</h1></header>
  <div class="sidebar"><p>Subscribe to our newsletter for more tips, tricks, and deals every week.</p></div>
  <article>
    <h2>Why protein timing matters</h2>
    <p>Most beginners think protein timing is everything, but total daily intake matters far more for muscle growth.</p>


    <p>Spread intake across three or four meals, aim for 20 to 40 grams each, and keep it consistent week after week.</p>
    <ul><li>Eggs</li><li>Greek yogurt</li></ul>
  </article>
  <div id="comments"><p>Great post, thanks a lot for sharing this with everyone here!</p></div>
  <footer><p>Copyright 2024, all rights reserved, do not copy anything.</p></footer>
</body>
</html>`

func TestExtractHTMLKeepsArticleText(t *testing.T) {
	text := ExtractHTML(articlePage)

	assert.Contains(t, text, "Why protein timing matters")
	assert.Contains(t, text, "total daily intake matters far more")
	assert.Contains(t, text, "Greek yogurt")

	assert.NotContains(t, text, "Subscribe to our newsletter")
	assert.NotContains(t, text, "Great post")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "Site header")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "nope")
}

func TestExtractHTMLArticleInsideChromeNamedWrappers(t *testing.T) {
	const body = "Index funds win over long horizons because fees compound just like returns do."

	tests := []struct {
		name string
		page string
	}{
		{
			name: "content wrapper mentioning sidebar",
			page: `<html><body><div class="main-content has-sidebar"><article><p>` + body + `</p></article></div></body></html>`,
		},
		{
			name: "webforms page wrapped in a form",
			page: `<html><body><form id="form1" method="post"><div id="main"><p>` + body + `</p></div></form></body></html>`,
		},
		{
			name: "post body with share widgets enabled",
			page: `<html><body><div class="post-body social-share-enabled"><p>` + body + `</p></div></body></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, body, ExtractHTML(tt.page))
		})
	}
}

func TestExtractHTMLPrunesChromeInsideArticle(t *testing.T) {
	page := `<html><body><article>
		<p>Dollar cost averaging smooths out the price you pay, month after month.</p>
		<div class="share-buttons"><a href="#">Tweet</a> <a href="#">Share</a></div>
		<form class="signup"><label>Email</label><input name="email"></form>
		<p>It removes the temptation to time the market, which rarely works for anyone.</p>
	</article></body></html>`

	text := ExtractHTML(page)
	assert.Contains(t, text, "Dollar cost averaging")
	assert.Contains(t, text, "time the market")
	assert.NotContains(t, text, "Tweet")
	assert.NotContains(t, text, "Email")
}

func TestExtractHTMLNoMarkupNoBlankRuns(t *testing.T) {
	pages := []string{
		articlePage,
		"<p>one</p>\n\n\n\n<p>two</p><br><br><br><br><p>three</p>",
		"plain text\n\n\n\n\nwith gaps",
		"<div><div><div></div></div></div>",
		"",
	}
	for _, page := range pages {
		text := ExtractHTML(page)
		assert.NotContains(t, text, "<")
		assert.NotContains(t, text, ">")
		assert.NotContains(t, text, "\n\n\n")
		assert.Equal(t, strings.TrimSpace(text), text)
	}
}

func TestExtractHTMLFallsBackToBody(t *testing.T) {
	text := ExtractHTML("<html><body><span>short</span> <b>bits</b></body></html>")
	assert.Equal(t, "short bits", text)
}

func TestExtractFromServer(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(articlePage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	x := New()

	text := x.Extract(context.Background(), srv.URL+"/article")
	assert.Contains(t, text, "total daily intake")
	assert.Equal(t, "Mozilla/5.0", gotUA)

	assert.Equal(t, "", x.Extract(context.Background(), srv.URL+"/missing"))
}

func TestExtractFailuresReturnEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := srv.URL
	srv.Close()

	x := New()
	for _, u := range []string{"", "not a url", "ftp://example.com/file", closedURL + "/article"} {
		assert.Equal(t, "", x.Extract(context.Background(), u), u)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<p>An error page with enough words to be scored as content here.</p>"))
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/post", false},
		{"http://example.com", false},
		{"ftp://example.com", true},
		{"example.com/post", true},
		{"https://", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
		} else {
			assert.NoError(t, err, tt.url)
		}
	}
}
