package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wing-sales-extractor/internal/types"
	"wing-sales-extractor/utils"
)

const reportHTML = `<html><body>
<div class="summary">
  <div class="metric visitor-card"><span>1,234</span><span>visitors</span></div>
  <div class="metric page-view-card"><p>label</p><span>5,678</span></div>
  <div class="metric conversion-card"><div><span>3.5%</span></div></div>
  <div class="metric add-to-cart-card"><span> 42 </span></div>
  <div class="metric order-card"><span>17</span></div>
  <div class="metric unit-sold-card"><span>20</span></div>
  <div class="metric gmv-card"><span>1,250,000</span></div>
</div>
</body></html>`

// fakeBrowser records actions and fails on the configured selectors
type fakeBrowser struct {
	html       string
	failOn     map[string]error
	navigated  []string
	keys       map[string]string
	clicked    []string
	waited     []string
	closeCalls int
}

func newFakeBrowser(html string) *fakeBrowser {
	return &fakeBrowser{html: html, failOn: map[string]error{}, keys: map[string]string{}}
}

func (f *fakeBrowser) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	return f.failOn["navigate"]
}

func (f *fakeBrowser) WaitReady(selector string, timeout time.Duration) error {
	f.waited = append(f.waited, selector)
	return f.failOn[selector]
}

func (f *fakeBrowser) SendKeys(selector, value string) error {
	if err := f.failOn[selector]; err != nil {
		return err
	}
	f.keys[selector] = value
	return nil
}

func (f *fakeBrowser) Click(selector string) error {
	if err := f.failOn[selector]; err != nil {
		return err
	}
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeBrowser) PageHTML() (string, error) {
	if err := f.failOn["html"]; err != nil {
		return "", err
	}
	return f.html, nil
}

func (f *fakeBrowser) Close() error {
	f.closeCalls++
	return nil
}

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.PortalURL = "https://wing.example.test"
	config.SettleDelay = 0
	config.Location = time.UTC
	return config
}

func TestLogin_Success(t *testing.T) {
	browser := newFakeBrowser("")
	adapter := NewWingAdapter(testConfig(), logrus.New(), browser)

	err := adapter.Login(context.Background(), "seller", "secret")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://wing.example.test/"}, browser.navigated)
	assert.Equal(t, "seller", browser.keys[UsernameSelector])
	assert.Equal(t, "secret", browser.keys[PasswordSelector])
	assert.Equal(t, []string{SubmitSelector}, browser.clicked)
	assert.Equal(t, []string{UsernameSelector, SideMenuSelector}, browser.waited)
}

func TestLogin_FailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		failOn   string
		err      error
		wantKind LoginErrorKind
		wantStep string
	}{
		{"landing page unreachable", "navigate", errors.New("net::ERR_NAME_NOT_RESOLVED"), LoginNavigation, "open landing page"},
		{"login form never shows", UsernameSelector, fmt.Errorf("wait: %w", context.DeadlineExceeded), LoginTimeout, "wait for login form"},
		{"password field missing", PasswordSelector, fmt.Errorf("%w: %s", utils.ErrElementNotFound, PasswordSelector), LoginElementNotFound, "enter password"},
		{"submit missing", SubmitSelector, fmt.Errorf("%w: %s", utils.ErrElementNotFound, SubmitSelector), LoginElementNotFound, "submit login form"},
		{"side menu never shows", SideMenuSelector, fmt.Errorf("wait: %w", context.DeadlineExceeded), LoginTimeout, "wait for side menu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := newFakeBrowser("")
			browser.failOn[tt.failOn] = tt.err
			adapter := NewWingAdapter(testConfig(), logrus.New(), browser)

			err := adapter.Login(context.Background(), "seller", "secret")

			var loginErr *LoginError
			require.ErrorAs(t, err, &loginErr)
			assert.Equal(t, tt.wantKind, loginErr.Kind)
			assert.Equal(t, tt.wantStep, loginErr.Step)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantKind.String(), LoginErrorLabel(err))
		})
	}
}

func TestLoginErrorLabel_Other(t *testing.T) {
	assert.Equal(t, "other", LoginErrorLabel(errors.New("boom")))
}

func TestReportURL(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	date := time.Date(2024, 3, 5, 15, 4, 0, 0, loc)

	got := ReportURL("https://wing.coupang.com/", "123456", date)

	midnight := time.Date(2024, 3, 5, 0, 0, 0, 0, loc).UnixMilli()
	want := fmt.Sprintf("https://wing.coupang.com/tenants/business-insight/sales-analysis/vendor-item-summary?vendorItemId=123456&startDate=%d&endDate=%d", midnight, midnight)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(1709564400000), midnight)
}

func TestScrapeDay_AllMetrics(t *testing.T) {
	browser := newFakeBrowser(reportHTML)
	adapter := NewWingAdapter(testConfig(), logrus.New(), browser)
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	record, err := adapter.ScrapeDay(context.Background(), date, "987")

	require.NoError(t, err)
	assert.Equal(t, types.MetricRecord{
		Date:       "2024-03-05",
		Visitors:   "1,234",
		PageViews:  "5,678",
		Conversion: "3.5%",
		CartAdds:   "42",
		Orders:     "17",
		UnitsSold:  "20",
		GMV:        "1,250,000",
	}, record)
	require.Len(t, browser.navigated, 1)
	assert.Equal(t, ReportURL("https://wing.example.test", "987", date), browser.navigated[0])
}

func TestScrapeDay_MissingMetricIsIsolated(t *testing.T) {
	html := `<html><body>
<div class="visitor"><span>10</span></div>
<div class="order"><span>3</span></div>
<div class="gmv"></div>
</body></html>`
	browser := newFakeBrowser(html)
	adapter := NewWingAdapter(testConfig(), logrus.New(), browser)
	var missed []string
	adapter.OnMetricMiss(func(key string) { missed = append(missed, key) })

	record, err := adapter.ScrapeDay(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "1")

	require.NoError(t, err)
	assert.Equal(t, "10", record.Visitors)
	assert.Equal(t, "3", record.Orders)
	assert.Empty(t, record.PageViews)
	assert.Empty(t, record.GMV)
	assert.ElementsMatch(t, []string{
		types.ColPageViews, types.ColConversion, types.ColCartAdds, types.ColUnitsSold, types.ColGMV,
	}, missed)
}

func TestScrapeDay_NavigationError(t *testing.T) {
	browser := newFakeBrowser(reportHTML)
	browser.failOn["navigate"] = errors.New("connection reset")
	adapter := NewWingAdapter(testConfig(), logrus.New(), browser)

	_, err := adapter.ScrapeDay(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2024-01-01")
}

func TestScrapeDay_ContextCancelledDuringSettle(t *testing.T) {
	config := testConfig()
	config.SettleDelay = time.Minute
	adapter := NewWingAdapter(config, logrus.New(), newFakeBrowser(reportHTML))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.ScrapeDay(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "1")

	assert.ErrorIs(t, err, context.Canceled)
}

type panickyExtractor struct{}

func (panickyExtractor) Extract(doc *goquery.Document) (string, error) {
	panic("bad rule")
}

func TestExtractMetrics_RuleFailuresAreIndependent(t *testing.T) {
	adapter := NewBaseAdapter(testConfig(), logrus.New(), newFakeBrowser(""))
	doc, err := adapter.ParseHTML(reportHTML)
	require.NoError(t, err)

	rules := []FieldRule{
		{Key: types.ColVisitors, Extractor: ClassTokenExtractor{Token: "visitor"}},
		{Key: types.ColOrders, Extractor: panickyExtractor{}},
		{Key: types.ColGMV, Extractor: ClassTokenExtractor{Token: "no-such-token"}},
		{Key: types.ColUnitsSold, Extractor: ClassTokenExtractor{Token: "unit-sold"}},
	}

	record, misses := ExtractMetrics(doc, rules)

	assert.Equal(t, "1,234", record.Visitors)
	assert.Equal(t, "20", record.UnitsSold)
	assert.Empty(t, record.Orders)
	assert.Empty(t, record.GMV)
	assert.Equal(t, []string{types.ColOrders, types.ColGMV}, misses)
}

func TestClassTokenExtractor_SkipsMatchingDivWithoutSpan(t *testing.T) {
	// "order" also matches layout classes such as border-b
	html := `<div class="border-b header"><p>Orders overview</p></div><div class="metric order-card"><span>17</span></div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	value, err := ClassTokenExtractor{Token: "order"}.Extract(doc)

	require.NoError(t, err)
	assert.Equal(t, "17", value)
}

func TestClassTokenExtractor_NoSpanAnywhere(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="order"><p>none</p></div>`))
	require.NoError(t, err)

	_, err = ClassTokenExtractor{Token: "order"}.Extract(doc)

	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	adapter := NewBaseAdapter(testConfig(), logrus.New(), newFakeBrowser(""))
	doc, err := adapter.ParseHTML(reportHTML)
	require.NoError(t, err)

	text, err := adapter.ExtractText(doc, ".add-to-cart-card span")
	require.NoError(t, err)
	assert.Equal(t, "42", text)

	_, err = adapter.ExtractText(doc, ".missing")
	assert.Error(t, err)
}
