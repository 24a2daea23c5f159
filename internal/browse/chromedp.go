package browse

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/tuanvm/tripagent/config"
)

// ChromedpBrowser renders pages with an in-process headless Chrome and
// extracts readable content. It needs a Chrome binary on the host, so the MCP
// backend is the default.
type ChromedpBrowser struct {
	timeout  time.Duration
	maxChars int
}

// NewChromedpBrowser builds a headless-Chrome browser from configuration.
func NewChromedpBrowser(cfg config.BrowseConfig) *ChromedpBrowser {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChromedpBrowser{timeout: timeout, maxChars: cfg.MaxChars}
}

// Browse renders one page and extracts its article content. Instructions are
// accepted for interface parity but a local browser cannot act on them.
func (b *ChromedpBrowser) Browse(ctx context.Context, pageURL, _ string) (Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return Result{}, errors.New("browse: invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	html, err := fetchHTML(ctx, pageURL)
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}, nil
	}

	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}, nil
	}
	text := strings.TrimSpace(article.TextContent)
	if b.maxChars > 0 {
		text = clip(text, b.maxChars)
	}

	res := Result{Status: StatusOK, Text: text}
	if title := strings.TrimSpace(article.Title); title != "" {
		res.Titles = []string{title}
	}
	res.Raw = map[string]interface{}{
		"url":    pageURL,
		"title":  article.Title,
		"byline": article.Byline,
		"text":   text,
	}
	return res, nil
}

func fetchHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("TripAgent/1.0 (+contact@example.com)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
