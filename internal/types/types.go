package types

import (
	"fmt"
	"net/url"
	"time"
)

// Credentials holds the portal login stored in the local config file
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MetricRecord holds the raw metric strings scraped for a single day.
// A metric whose element could not be found is left empty.
type MetricRecord struct {
	Date       string `json:"date"`
	Visitors   string `json:"visitors"`
	PageViews  string `json:"page_views"`
	Conversion string `json:"conversion"`
	CartAdds   string `json:"cart_adds"`
	Orders     string `json:"orders"`
	UnitsSold  string `json:"units_sold"`
	GMV        string `json:"gmv"`
}

// Column describes one fixed column of a ResultTable
type Column struct {
	Key   string
	Label string
	// Token is the class-name fragment identifying the metric on the report page.
	// Empty for the date column.
	Token string
}

// Column keys
const (
	ColDate       = "date"
	ColVisitors   = "visitors"
	ColPageViews  = "page_views"
	ColConversion = "conversion"
	ColCartAdds   = "cart_adds"
	ColOrders     = "orders"
	ColUnitsSold  = "units_sold"
	ColGMV        = "gmv"
)

// Columns is the fixed column order of every result table
var Columns = []Column{
	{Key: ColDate, Label: "날짜"},
	{Key: ColVisitors, Label: "방문자", Token: "visitor"},
	{Key: ColPageViews, Label: "조회", Token: "page-view"},
	{Key: ColConversion, Label: "구매전환율", Token: "conversion"},
	{Key: ColCartAdds, Label: "장바구니", Token: "add-to-cart"},
	{Key: ColOrders, Label: "주문", Token: "order"},
	{Key: ColUnitsSold, Label: "판매량", Token: "unit-sold"},
	{Key: ColGMV, Label: "매출(원)", Token: "gmv"},
}

// MetricColumns returns every column except the date
func MetricColumns() []Column {
	return Columns[1:]
}

// ColumnLabels returns the header labels in column order
func ColumnLabels() []string {
	labels := make([]string, len(Columns))
	for i, c := range Columns {
		labels[i] = c.Label
	}
	return labels
}

// Get returns the value stored under a column key
func (r *MetricRecord) Get(key string) string {
	if p := r.field(key); p != nil {
		return *p
	}
	return ""
}

// Set stores a value under a column key. Unknown keys are ignored.
func (r *MetricRecord) Set(key, value string) {
	if p := r.field(key); p != nil {
		*p = value
	}
}

// Values returns the record's cells in column order
func (r *MetricRecord) Values() []string {
	values := make([]string, len(Columns))
	for i, c := range Columns {
		values[i] = r.Get(c.Key)
	}
	return values
}

func (r *MetricRecord) field(key string) *string {
	switch key {
	case ColDate:
		return &r.Date
	case ColVisitors:
		return &r.Visitors
	case ColPageViews:
		return &r.PageViews
	case ColConversion:
		return &r.Conversion
	case ColCartAdds:
		return &r.CartAdds
	case ColOrders:
		return &r.Orders
	case ColUnitsSold:
		return &r.UnitsSold
	case ColGMV:
		return &r.GMV
	}
	return nil
}

// ResultTable is the ordered list of scraped days, one row per date
type ResultTable struct {
	Rows []MetricRecord `json:"rows"`
}

// Column returns every row's value for a column key
func (t *ResultTable) Column(key string) []string {
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Rows[i].Get(key)
	}
	return values
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Config holds the configuration for the extractor
type Config struct {
	PortalURL      string
	ConfigFile     string
	LoginTimeout   time.Duration
	ElementTimeout time.Duration
	Timeout        time.Duration
	SettleDelay    time.Duration
	Headless       bool
	ChromePath     string
	UserAgent      string
	Location       *time.Location
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PortalURL:      "https://wing.coupang.com",
		ConfigFile:     "config.json",
		LoginTimeout:   20 * time.Second,
		ElementTimeout: 5 * time.Second,
		Timeout:        30 * time.Second,
		SettleDelay:    2 * time.Second,
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Location:       time.Local,
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.PortalURL)
	if err != nil {
		return fmt.Errorf("invalid portal URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("portal URL must include a host")
	}
	if c.ConfigFile == "" {
		return fmt.Errorf("config file cannot be empty")
	}
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login timeout must be positive")
	}
	if c.ElementTimeout <= 0 {
		return fmt.Errorf("element timeout must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.Location == nil {
		return fmt.Errorf("location cannot be nil")
	}
	return nil
}

// Browser is a single headless browser session driven one action at a time
type Browser interface {
	// Navigate loads a URL in the session's tab
	Navigate(url string) error

	// WaitReady blocks until an element matching selector is present in the
	// DOM or timeout elapses. Hidden elements count as present.
	WaitReady(selector string, timeout time.Duration) error

	// SendKeys types value into the element matching selector
	SendKeys(selector, value string) error

	// Click clicks the element matching selector
	Click(selector string) error

	// PageHTML returns the outer HTML of the current document
	PageHTML() (string, error)

	// Close tears the browser process down. Safe to call more than once.
	Close() error
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
