package input

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/resumeforge/internal/model"
)

// MaxPostingLen caps the description text kept from a fetched page.
const MaxPostingLen = 15000

const userAgent = "Mozilla/5.0 (compatible; resumeforge/1.0)"

// JobPosting is the readable content of a job page.
type JobPosting struct {
	URL         string
	Title       string
	Description string
}

// FetchJobPosting downloads url and extracts the job description. A JSON-LD
// JobPosting block is preferred; otherwise the page body text is used with
// navigation chrome removed.
func FetchJobPosting(ctx context.Context, client *http.Client, url string) (JobPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobPosting{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return JobPosting{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobPosting{}, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch %s: unexpected status", url),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return JobPosting{}, fmt.Errorf("parse %s: %w", url, err)
	}

	posting := JobPosting{URL: url}
	posting.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if posting.Title == "" {
		posting.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if title, desc, ok := jsonLDPosting(doc); ok {
		posting.Description = desc
		if title != "" {
			posting.Title = title
		}
	} else {
		doc.Find("script, style, noscript, nav, header, footer").Remove()
		posting.Description = doc.Find("body").Text()
	}

	posting.Description = truncate(collapse(posting.Description), MaxPostingLen)
	if posting.Description == "" {
		return JobPosting{}, fmt.Errorf("fetch %s: page has no text content", url)
	}
	return posting, nil
}

// jsonLDPosting returns the title and plain-text description of the first
// JobPosting found in the page's structured data.
func jsonLDPosting(doc *goquery.Document) (title, desc string, ok bool) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var ld struct {
			Type        any    `json:"@type"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &ld); err != nil {
			return true
		}
		if !isJobPosting(ld.Type) || strings.TrimSpace(ld.Description) == "" {
			return true
		}
		title, desc, ok = ld.Title, htmlText(ld.Description), true
		return false
	})
	return title, desc, ok
}

// isJobPosting accepts "@type" as a string or a list of strings.
func isJobPosting(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, e := range v {
			if e == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// htmlText converts an HTML, or HTML-escaped, fragment to text.
func htmlText(fragment string) string {
	unescaped := html.UnescapeString(fragment)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return unescaped
	}
	return doc.Text()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
