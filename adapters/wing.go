package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"wing-sales-extractor/internal/types"
	"wing-sales-extractor/utils"
)

// Selectors on the portal login flow
const (
	UsernameSelector  = "input#username"
	PasswordSelector  = "input#password"
	SubmitSelector    = "input#kc-login"
	SideMenuSelector  = "nav#wing-side-menu"
	vendorItemSummary = "/tenants/business-insight/sales-analysis/vendor-item-summary"
)

// WingAdapter drives the Coupang Wing seller portal
type WingAdapter struct {
	*BaseAdapter
	rules  []FieldRule
	onMiss func(key string)
}

// NewWingAdapter creates a Wing adapter using the default metric rules
func NewWingAdapter(config *types.Config, logger types.Logger, browser types.Browser) *WingAdapter {
	return &WingAdapter{
		BaseAdapter: NewBaseAdapter(config, logger, browser),
		rules:       DefaultFieldRules(),
	}
}

// GetStoreName returns the portal name
func (w *WingAdapter) GetStoreName() string {
	return "wing.coupang.com"
}

// Login signs in with username and password. On failure the returned error
// is a *LoginError; the browser is left for the caller to close.
func (w *WingAdapter) Login(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	startTime := time.Now()
	landing := strings.TrimRight(w.config.PortalURL, "/") + "/"
	w.logger.Infof("Logging in to %s as %s", landing, username)

	if err := w.browser.Navigate(landing); err != nil {
		return classifyLoginError("open landing page", LoginNavigation, err)
	}
	if err := w.browser.WaitReady(UsernameSelector, w.config.LoginTimeout); err != nil {
		return classifyLoginError("wait for login form", LoginTimeout, err)
	}
	if err := w.browser.SendKeys(UsernameSelector, username); err != nil {
		return classifyLoginError("enter username", LoginElementNotFound, err)
	}
	if err := w.browser.SendKeys(PasswordSelector, password); err != nil {
		return classifyLoginError("enter password", LoginElementNotFound, err)
	}
	if err := w.browser.Click(SubmitSelector); err != nil {
		return classifyLoginError("submit login form", LoginElementNotFound, err)
	}
	if err := w.browser.WaitReady(SideMenuSelector, w.config.LoginTimeout); err != nil {
		return classifyLoginError("wait for side menu", LoginTimeout, err)
	}

	w.logger.Infof("Logged in after %v", time.Since(startTime))
	return nil
}

// OnMetricMiss registers fn to be called for every metric left empty by ScrapeDay
func (w *WingAdapter) OnMetricMiss(fn func(key string)) {
	w.onMiss = fn
}

// ReportURL builds the single-day vendor item summary URL for date.
// Both ends of the window are the date's midnight in epoch milliseconds.
func ReportURL(portalURL, optionID string, date time.Time) string {
	ts := utils.Midnight(date).UnixMilli()
	return fmt.Sprintf("%s%s?vendorItemId=%s&startDate=%d&endDate=%d",
		strings.TrimRight(portalURL, "/"), vendorItemSummary, url.QueryEscape(optionID), ts, ts)
}

// ScrapeDay loads the report for one date and extracts its metrics.
// Missing metrics are left empty; only navigation or page failures are errors.
func (w *WingAdapter) ScrapeDay(ctx context.Context, date time.Time, optionID string) (types.MetricRecord, error) {
	date = date.In(w.config.Location)
	reportURL := ReportURL(w.config.PortalURL, optionID, date)
	w.logger.Debugf("Fetching report: %s", reportURL)

	html, err := w.GetPageContent(ctx, reportURL)
	if err != nil {
		return types.MetricRecord{}, fmt.Errorf("failed to load report for %s: %w", date.Format(utils.DateLayout), err)
	}

	record, misses, err := w.ParseReport(html)
	if err != nil {
		return types.MetricRecord{}, fmt.Errorf("failed to parse report for %s: %w", date.Format(utils.DateLayout), err)
	}
	record.Date = date.Format(utils.DateLayout)

	if len(misses) > 0 {
		w.logger.Debugf("Metrics not found on %s: %v", record.Date, misses)
	}
	if w.onMiss != nil {
		for _, key := range misses {
			w.onMiss(key)
		}
	}
	return record, nil
}

// ParseReport runs the adapter's field rules over a rendered report page
func (w *WingAdapter) ParseReport(html string) (types.MetricRecord, []string, error) {
	doc, err := w.ParseHTML(html)
	if err != nil {
		return types.MetricRecord{}, nil, err
	}
	record, misses := ExtractMetrics(doc, w.rules)
	return record, misses, nil
}
