package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"wing-sales-extractor/config"
	"wing-sales-extractor/extractor"
	"wing-sales-extractor/internal/types"
	"wing-sales-extractor/report"
	"wing-sales-extractor/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	defaults := types.DefaultConfig()
	today := time.Now()

	// Parse command line flags
	var (
		configFlag   = flag.String("config", defaults.ConfigFile, "Credentials file, rewritten on every run")
		usernameFlag = flag.String("username", "", "Wing login id (default: stored credentials)")
		passwordFlag = flag.String("password", "", "Wing password (default: stored credentials)")
		optionFlag   = flag.String("option", "", "Vendor item (option) id to analyse")
		startFlag    = flag.String("start", today.AddDate(0, 0, -7).Format(utils.DateLayout), "First day, YYYY-MM-DD")
		endFlag      = flag.String("end", today.Format(utils.DateLayout), "Last day, YYYY-MM-DD")
		outputFlag   = flag.String("output", "", "Output directory or .xlsx path (default: sales_<start>_<end>.xlsx)")
		timeout      = flag.Duration("timeout", defaults.Timeout, "Page load timeout")
		loginTimeout = flag.Duration("login-timeout", defaults.LoginTimeout, "Wait for login elements")
		settle       = flag.Duration("settle", defaults.SettleDelay, "Pause after each report navigation")
		chromePath   = flag.String("chrome", "", "Chrome/Chromium binary (default: auto-detect)")
		headful      = flag.Bool("headful", false, "Show the browser window")
		tzFlag       = flag.String("tz", "Local", "Time zone for day boundaries, e.g. Asia/Seoul")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	loc, err := time.LoadLocation(*tzFlag)
	if err != nil {
		logger.Fatalf("Invalid time zone %q: %v", *tzFlag, err)
	}

	// Create configuration
	cfg := types.DefaultConfig()
	cfg.ConfigFile = *configFlag
	cfg.Timeout = *timeout
	cfg.LoginTimeout = *loginTimeout
	cfg.SettleDelay = *settle
	cfg.ChromePath = *chromePath
	cfg.Headless = !*headful
	cfg.Location = loc
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	if *optionFlag == "" {
		logger.Fatal("--option flag is required")
	}

	start, err := utils.ParseDate(*startFlag, loc)
	if err != nil {
		logger.Fatalf("Invalid --start: %v", err)
	}
	end, err := utils.ParseDate(*endFlag, loc)
	if err != nil {
		logger.Fatalf("Invalid --end: %v", err)
	}

	// Stored credentials fill whatever was not given on the command line
	creds := config.LoadOrEmpty(cfg.ConfigFile, logger)
	creds = mergeCredentials(creds, os.Getenv("WING_USERNAME"), os.Getenv("WING_PASSWORD"))
	creds = mergeCredentials(creds, *usernameFlag, *passwordFlag)
	if creds.Username == "" || creds.Password == "" {
		logger.Fatal("Username and password are required (flags, WING_USERNAME/WING_PASSWORD or config file)")
	}
	if err := config.Save(cfg.ConfigFile, creds); err != nil {
		logger.Fatalf("Failed to save credentials: %v", err)
	}

	output := outputPath(*outputFlag, start, end)

	// Interrupt stops the run between browser actions
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	salesExtractor := extractor.NewSalesExtractor(cfg, logger, nil)
	table, err := salesExtractor.ExtractToXLSX(ctx, extractor.Request{
		Credentials: creds,
		OptionID:    *optionFlag,
		Range:       types.DateRange{Start: start, End: end},
	}, output)
	if err != nil {
		logger.Fatalf("Extraction failed: %v", err)
	}

	logger.Info("Data collection complete")
	report.Render(os.Stdout, table)
}

func mergeCredentials(creds types.Credentials, username, password string) types.Credentials {
	if username != "" {
		creds.Username = username
	}
	if password != "" {
		creds.Password = password
	}
	return creds
}

func outputPath(output string, start, end time.Time) string {
	name := report.XLSXFilename(start, end)
	if output == "" {
		return name
	}
	if filepath.Ext(output) == ".xlsx" {
		return output
	}
	return filepath.Join(output, name)
}
