package extractor

import (
	"context"
	"fmt"
	"time"

	"wing-sales-extractor/adapters"
	"wing-sales-extractor/internal/types"
	"wing-sales-extractor/report"
	"wing-sales-extractor/utils"
)

// BrowserFactory launches the browser session for one run
type BrowserFactory func(ctx context.Context, config *types.Config, logger types.Logger) (types.Browser, error)

// ChromeBrowser launches headless Chrome through chromedp
func ChromeBrowser(ctx context.Context, config *types.Config, logger types.Logger) (types.Browser, error) {
	browser, err := utils.NewBrowserClient(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	return browser, nil
}

// Request describes one scrape run
type Request struct {
	Credentials types.Credentials
	OptionID    string
	Range       types.DateRange
}

// SalesExtractor runs login plus one report scrape per day
type SalesExtractor struct {
	config     *types.Config
	logger     types.Logger
	newBrowser BrowserFactory
	metrics    *Metrics
}

// NewSalesExtractor creates an extractor that launches headless Chrome
func NewSalesExtractor(config *types.Config, logger types.Logger, metrics *Metrics) *SalesExtractor {
	return NewSalesExtractorWithBrowser(config, logger, metrics, ChromeBrowser)
}

// NewSalesExtractorWithBrowser creates an extractor using factory for the browser
func NewSalesExtractorWithBrowser(config *types.Config, logger types.Logger, metrics *Metrics, factory BrowserFactory) *SalesExtractor {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &SalesExtractor{
		config:     config,
		logger:     logger,
		newBrowser: factory,
		metrics:    metrics,
	}
}

// ExtractAll logs in and scrapes every day of the request's range in order.
// The browser is closed exactly once whatever the outcome.
func (e *SalesExtractor) ExtractAll(ctx context.Context, req Request) (types.ResultTable, error) {
	startTime := time.Now()
	e.logger.Infof("Starting extraction for option %s at %v", req.OptionID, startTime.Format("15:04:05.000"))

	table, err := e.extract(ctx, req)

	e.metrics.RunDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		e.metrics.RunsTotal.WithLabelValues("error").Inc()
		return types.ResultTable{}, err
	}
	e.metrics.RunsTotal.WithLabelValues("success").Inc()

	e.logger.Infof("Extraction completed in %v", time.Since(startTime))
	e.logger.Infof("Collected %d days for option %s", len(table.Rows), req.OptionID)
	return table, nil
}

func (e *SalesExtractor) extract(ctx context.Context, req Request) (types.ResultTable, error) {
	loc := e.config.Location
	dates := utils.ExpandDates(req.Range.Start.In(loc), req.Range.End.In(loc))

	browser, err := e.newBrowser(ctx, e.config, e.logger)
	if err != nil {
		return types.ResultTable{}, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			e.logger.Warnf("Failed to close browser: %v", err)
		}
	}()

	adapter := adapters.NewWingAdapter(e.config, e.logger, browser)
	adapter.OnMetricMiss(func(key string) {
		e.metrics.MetricMisses.WithLabelValues(key).Inc()
	})

	if err := adapter.Login(ctx, req.Credentials.Username, req.Credentials.Password); err != nil {
		e.metrics.LoginFailures.WithLabelValues(adapters.LoginErrorLabel(err)).Inc()
		return types.ResultTable{}, err
	}

	table := types.ResultTable{Rows: make([]types.MetricRecord, 0, len(dates))}
	for i, date := range dates {
		e.logger.Debugf("Scraping day %d/%d: %s", i+1, len(dates), date.Format(utils.DateLayout))
		record, err := adapter.ScrapeDay(ctx, date, req.OptionID)
		if err != nil {
			return types.ResultTable{}, err
		}
		e.metrics.PagesScraped.Inc()
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// ExtractAnnotated runs ExtractAll and annotates day-over-day changes
func (e *SalesExtractor) ExtractAnnotated(ctx context.Context, req Request) (types.ResultTable, error) {
	table, err := e.ExtractAll(ctx, req)
	if err != nil {
		return types.ResultTable{}, err
	}
	return report.Annotate(table), nil
}

// ExtractToXLSX extracts, annotates and saves the workbook to filename
func (e *SalesExtractor) ExtractToXLSX(ctx context.Context, req Request, filename string) (types.ResultTable, error) {
	table, err := e.ExtractAnnotated(ctx, req)
	if err != nil {
		return types.ResultTable{}, err
	}

	if err := report.SaveXLSX(filename, table); err != nil {
		return types.ResultTable{}, fmt.Errorf("failed to write results to file: %w", err)
	}

	e.logger.Infof("Results saved to %s", filename)
	return table, nil
}

// Metrics returns the extractor's collectors
func (e *SalesExtractor) Metrics() *Metrics {
	return e.metrics
}
