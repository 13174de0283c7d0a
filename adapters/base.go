package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wing-sales-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// BaseAdapter provides the browser plumbing shared by portal adapters.
// Pages are rendered by the browser and parsed with goquery afterwards.
type BaseAdapter struct {
	config  *types.Config // Timeouts, portal URL, settle delay
	logger  types.Logger  // Structured logging interface
	browser types.Browser // Live browser session, owned by the caller
}

// NewBaseAdapter creates a base adapter on top of an already launched browser
func NewBaseAdapter(config *types.Config, logger types.Logger, browser types.Browser) *BaseAdapter {
	return &BaseAdapter{
		config:  config,
		logger:  logger,
		browser: browser,
	}
}

// GetPageContent navigates to url, lets client-side rendering settle for
// the configured delay and returns the resulting HTML.
func (b *BaseAdapter) GetPageContent(ctx context.Context, url string) (string, error) {
	if err := b.browser.Navigate(url); err != nil {
		return "", err
	}
	if err := sleep(ctx, b.config.SettleDelay); err != nil {
		return "", err
	}
	return b.browser.PageHTML()
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractText extracts the trimmed text of the first element matching selector
func (b *BaseAdapter) ExtractText(doc *goquery.Document, selector string) (string, error) {
	return extractText(doc.Selection, selector)
}

// Config returns the config field of the BaseAdapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}

func extractText(sel *goquery.Selection, selector string) (string, error) {
	element := sel.Find(selector).First()
	if element.Length() == 0 {
		return "", fmt.Errorf("element not found with selector: %s", selector)
	}
	return strings.TrimSpace(element.Text()), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
