package tracks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	snippetDeadline = 10 * time.Second
	snippetPoll     = time.Second
	maxSnippets     = 5
)

// ChromeSnippets fetches search result snippets with a headless Chrome driven
// over the DevTools protocol. The browser allocator is created lazily on the
// first query; when no Chrome binary is installed the first fetch fails and
// callers fall back to metadata-only prompts.
type ChromeSnippets struct {
	once     sync.Once
	allocCtx context.Context
	cancel   context.CancelFunc
	initErr  error
}

func NewChromeSnippets() *ChromeSnippets {
	return &ChromeSnippets{}
}

func (c *ChromeSnippets) bootstrap() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	c.allocCtx, c.cancel = chromedp.NewExecAllocator(context.Background(), opts...)

	// Probe for a usable browser so later fetches can fail fast.
	probeCtx, probeCancel := chromedp.NewContext(c.allocCtx)
	defer probeCancel()
	timed, timedCancel := context.WithTimeout(probeCtx, 15*time.Second)
	defer timedCancel()
	if err := chromedp.Run(timed); err != nil {
		c.initErr = fmt.Errorf("headless browser unavailable: %w", err)
		slog.With("component", "tracks").Warn("Headless browser could not be provisioned, web snippets disabled", "error", c.initErr)
	}
}

// Close releases the browser allocator.
func (c *ChromeSnippets) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Fetch submits the query to a public search engine and polls for result
// snippets, collecting up to five texts within the per-query deadline.
func (c *ChromeSnippets) Fetch(ctx context.Context, query string) ([]string, error) {
	c.once.Do(c.bootstrap)
	if c.initErr != nil {
		return nil, c.initErr
	}

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx)
	defer tabCancel()
	timed, timedCancel := context.WithTimeout(tabCtx, snippetDeadline)
	defer timedCancel()

	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	if err := chromedp.Run(timed, chromedp.Navigate(searchURL)); err != nil {
		return nil, fmt.Errorf("navigate search: %w", err)
	}

	extract := fmt.Sprintf(
		`Array.from(document.querySelectorAll('.result__snippet')).slice(0, %d).map(e => e.textContent.trim())`,
		maxSnippets)

	for {
		var snippets []string
		if err := chromedp.Run(timed, chromedp.Evaluate(extract, &snippets)); err != nil {
			return nil, fmt.Errorf("extract snippets: %w", err)
		}
		if len(snippets) > 0 {
			return snippets, nil
		}
		select {
		case <-timed.Done():
			return nil, nil // deadline reached with no results, not an error
		case <-time.After(snippetPoll):
		}
	}
}
