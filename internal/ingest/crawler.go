package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Crawler retrieves documentation pages for a package.
type Crawler interface {
	Crawl(ctx context.Context, packageName, repositoryURL string) ([]Page, error)
}

// maxPageBytes bounds how much of one page is kept for extraction.
const maxPageBytes = 512 * 1024

// HTTPCrawler fetches documentation over plain HTTP: the repository page
// itself plus, for GitHub repositories, the raw README. It deliberately
// stays shallow; the deep per-page crawl belongs to an external crawler
// service wired in behind the same interface.
type HTTPCrawler struct {
	Client *http.Client
}

// NewHTTPCrawler builds a crawler with a bounded default client.
func NewHTTPCrawler() *HTTPCrawler {
	return &HTTPCrawler{Client: &http.Client{Timeout: 20 * time.Second}}
}

// Crawl implements Crawler.
func (c *HTTPCrawler) Crawl(ctx context.Context, packageName, repositoryURL string) ([]Page, error) {
	urls := candidateURLs(packageName, repositoryURL)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no documentation URLs for %s", packageName)
	}

	var pages []Page
	for title, url := range urls {
		content, err := c.fetch(ctx, url)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, Page{Title: title, URL: url, Content: content})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no documentation pages reachable for %s", packageName)
	}
	return pages, nil
}

func (c *HTTPCrawler) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	content := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		content = stripTags(content)
	}
	return content, nil
}

// candidateURLs maps page titles to fetchable URLs.
func candidateURLs(packageName, repositoryURL string) map[string]string {
	urls := make(map[string]string)
	repo := strings.TrimSuffix(strings.TrimSpace(repositoryURL), "/")
	if repo != "" {
		urls["Repository"] = repo
		if owner, name, ok := splitGitHub(repo); ok {
			urls["README"] = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/HEAD/README.md", owner, name)
		}
	}
	if packageName != "" {
		urls["PyPI"] = "https://pypi.org/project/" + packageName + "/"
	}
	return urls
}

func splitGitHub(repo string) (owner, name string, ok bool) {
	const prefix = "https://github.com/"
	if !strings.HasPrefix(repo, prefix) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(repo, prefix), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// stripTags reduces an HTML page to its visible text. Crude, but the
// extractor only needs signatures and prose, not layout.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
