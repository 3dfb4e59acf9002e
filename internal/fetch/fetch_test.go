package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `
<html>
	<head>
		<title>Careers | Acme</title>
		<meta property="og:title" content="Senior Go Engineer">
		<meta property="og:site_name" content="Acme">
	</head>
	<body>
		<nav>Navigation</nav>
		<div class="sidebar">Sidebar junk</div>
		<div class="job-description">
			<h2>Requirements</h2>
			<ul><li>5 years experience in Go</li><li>PostgreSQL</li></ul>
		</div>
		<form id="application-form">Upload your CV</form>
		<footer>Footer</footer>
	</body>
</html>`

func TestFetcher_URL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := New(server.Client(), nil).URL(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestFetcher_URL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/job", "/relative/path"} {
		t.Run(raw, func(t *testing.T) {
			_, err := New(nil, nil).URL(context.Background(), raw)
			require.Error(t, err)

			var fetchErr *Error
			assert.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, err.Error(), "invalid URL")
		})
	}
}

func TestFetcher_URL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := New(server.Client(), nil).URL(context.Background(), server.URL)
	require.Error(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestFetcher_URL_LimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer server.Close()

	result, err := New(server.Client(), &Options{MaxBytes: 100}).URL(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, result.HTML, 100)
}

func TestFetcher_JobPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer server.Close()

	page, err := New(server.Client(), nil).JobPage(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Senior Go Engineer", page.Title)
	assert.Equal(t, "Acme", page.Company)
	assert.Equal(t, PlatformUnknown, page.Platform)
	assert.Contains(t, page.Text, "5 years experience in Go")
	assert.Contains(t, page.Text, "PostgreSQL")
	assert.NotContains(t, page.Text, "Sidebar junk")
	assert.NotContains(t, page.Text, "Upload your CV")
	assert.NotContains(t, page.Text, "Navigation")
}

func TestFetcher_JobPage_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>render()</script></body></html>"))
	}))
	defer server.Close()

	_, err := New(server.Client(), nil).JobPage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no readable text")
}

func TestParseJobPage_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"h1", `<html><head><title>Tab</title></head><body><h1>  Data   Engineer </h1></body></html>`, "Data Engineer"},
		{"title tag", `<html><head><title>Platform Engineer</title></head><body><p>x</p></body></html>`, "Platform Engineer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParseJobPage("https://example.com/jobs/1", tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Title)
		})
	}
}

func TestExtractMainText_WithMainElement(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the important text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html, JobPostingSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Main Content")
	assert.Contains(t, text, "important text")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><span>Some content here.</span></body></html>`, JobPostingSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Some content here.", text)
}
