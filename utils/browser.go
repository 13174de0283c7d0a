package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"wing-sales-extractor/internal/types"
)

// ErrElementNotFound is returned when an element to interact with never shows up
var ErrElementNotFound = errors.New("element not found")

// BrowserClient owns one headless Chrome process and its single tab.
// It implements types.Browser.
type BrowserClient struct {
	config *types.Config
	logger types.Logger

	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// NewBrowserClient launches a headless browser bound to ctx.
// The caller must Close it on every path.
func NewBrowserClient(ctx context.Context, config *types.Config, logger types.Logger) (*BrowserClient, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(config.UserAgent),
	)
	if config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(config.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Debugf),
	)

	// An empty Run starts the process, so a missing binary surfaces here
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug("Browser launched")
	return &BrowserClient{
		config:        config,
		logger:        logger,
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (b *BrowserClient) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url in the browser tab
func (b *BrowserClient) Navigate(url string) error {
	if err := b.run(b.config.Timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	b.logger.Debugf("Navigated to %s", url)
	return nil
}

// WaitReady waits for selector to be present in the DOM
func (b *BrowserClient) WaitReady(selector string, timeout time.Duration) error {
	if err := b.run(timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to wait for element %s: %w", selector, err)
	}
	return nil
}

// SendKeys types value into the element matching selector
func (b *BrowserClient) SendKeys(selector, value string) error {
	err := b.run(b.config.ElementTimeout, chromedp.SendKeys(selector, value, chromedp.ByQuery))
	return b.elementError(selector, err)
}

// Click clicks the element matching selector
func (b *BrowserClient) Click(selector string) error {
	err := b.run(b.config.ElementTimeout, chromedp.Click(selector, chromedp.ByQuery))
	return b.elementError(selector, err)
}

// PageHTML returns the rendered HTML of the current page
func (b *BrowserClient) PageHTML() (string, error) {
	var html string
	if err := b.run(b.config.Timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	b.logger.Debugf("Retrieved page content (%d bytes)", len(html))
	return html, nil
}

// Close shuts the browser down once; later calls return the first result
func (b *BrowserClient) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancelBrowser()
		b.cancelAlloc()
		b.logger.Debug("Browser closed")
	})
	return b.closeErr
}

func (b *BrowserClient) elementError(selector string, err error) error {
	if err == nil {
		return nil
	}
	// chromedp waits for the node until the deadline when it is absent
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return fmt.Errorf("failed to interact with %s: %w", selector, err)
}
