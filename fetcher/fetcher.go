// Package fetcher loads pages for editing, from disk, over plain HTTP, or
// through headless Chrome when the page builds its fields with JavaScript.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// FetchResult contains the fetched HTML and metadata.
type FetchResult struct {
	HTML        string
	FinalURL    string // URL after following redirects
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	ChromePath string // empty = auto-detect
	UseBrowser bool   // always render with Chrome
	Language   string // Accept-Language for browser fetches
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent: "typewise/1.0",
		Timeout:   30 * time.Second,
		Language:  "fr",
	}
}

// Fetcher loads pages.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New creates a fetcher. Zero fields in o keep their defaults.
func New(o Options) *Fetcher {
	opts := DefaultOptions()
	if o.UserAgent != "" {
		opts.UserAgent = o.UserAgent
	}
	if o.Timeout > 0 {
		opts.Timeout = o.Timeout
	}
	if o.Language != "" {
		opts.Language = o.Language
	}
	opts.ChromePath = o.ChromePath
	opts.UseBrowser = o.UseBrowser

	return &Fetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// IsURL reports whether target is an http(s) URL rather than a file path.
func IsURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads target from disk or the network. URLs use plain HTTP unless
// UseBrowser is set; a page whose fields are all script-generated is
// fetched again through the browser.
func (f *Fetcher) Load(ctx context.Context, target string) (*FetchResult, error) {
	if !IsURL(target) {
		return File(target)
	}
	if f.opts.UseBrowser {
		return f.WithBrowser(ctx, target)
	}

	result, err := f.Simple(ctx, target)
	if err != nil {
		return nil, err
	}
	if !needsBrowser(result.HTML) {
		return result, nil
	}
	if rendered, err := f.WithBrowser(ctx, target); err == nil {
		return rendered, nil
	}
	// No usable Chrome; keep what plain HTTP gave us.
	return result, nil
}

// File reads a local HTML file.
func File(path string) (*FetchResult, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &FetchResult{
		HTML:      string(data),
		FinalURL:  (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		FetchTime: time.Since(start),
	}, nil
}

// Simple fetches a URL using standard HTTP.
func (f *Fetcher) Simple(ctx context.Context, target string) (*FetchResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: HTTP %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &FetchResult{
		HTML:      string(body),
		FinalURL:  resp.Request.URL.String(),
		FetchTime: time.Since(start),
	}, nil
}

// WithBrowser fetches a URL using headless Chrome so that scripts can
// build the page before it is captured.
func (f *Fetcher) WithBrowser(ctx context.Context, target string) (*FetchResult, error) {
	start := time.Now()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1280, 1024),
	)
	if f.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	// Browser fetches need more time than plain HTTP.
	ctx, cancel := context.WithTimeout(allocCtx, f.opts.Timeout+15*time.Second)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var html, finalURL string
	err := chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]any{
			"Accept-Language": f.opts.Language,
		})),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	return &FetchResult{
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}

// needsBrowser reports whether a page has scripts but no editable field in
// its static HTML.
func needsBrowser(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	if doc.Find("input, textarea, [contenteditable]").Length() > 0 {
		return false
	}
	return doc.Find("script").Length() > 0
}
