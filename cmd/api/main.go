package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"wing-sales-extractor/config"
	"wing-sales-extractor/extractor"
	"wing-sales-extractor/internal/types"
	"wing-sales-extractor/report"
	"wing-sales-extractor/utils"
)

// APIRequest represents the request body for the API
type APIRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OptionID string `json:"option_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Format   string `json:"format,omitempty"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool               `json:"success"`
	Columns []string           `json:"columns,omitempty"`
	Data    *types.ResultTable `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Server holds the API server configuration
type Server struct {
	logger    *logrus.Logger
	config    *types.Config
	extractor *extractor.SalesExtractor
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Coupang Wing 판매정보 크롤러</title></head>
<body>
<h1>Coupang Wing 판매정보 크롤러</h1>
<form method="POST" action="/extract">
  <label>아이디 <input name="username" value="{{.Username}}"></label>
  <label>비밀번호 <input name="password" type="password" value="{{.Password}}"></label>
  <label>옵션 ID <input name="option_id" value="{{.OptionID}}"></label>
  <label>분석 시작일 <input name="start" type="date" value="{{.Start}}"></label>
  <label>분석 종료일 <input name="end" type="date" value="{{.End}}"></label>
  <select name="format">
    <option value="html">표</option>
    <option value="xlsx">엑셀 다운로드</option>
  </select>
  <button type="submit">데이터 크롤링 시작</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Rows}}
<p>데이터 수집 완료!</p>
<table border="1">
  <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
  {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</table>
{{end}}
</body>
</html>`))

type pageData struct {
	APIRequest
	Error   string
	Columns []string
	Rows    [][]string
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg := types.DefaultConfig()
	if path := os.Getenv("WING_CONFIG_FILE"); path != "" {
		cfg.ConfigFile = path
	}
	if chrome := os.Getenv("CHROME_PATH"); chrome != "" {
		cfg.ChromePath = chrome
	}

	return newServer(logger, cfg, extractor.ChromeBrowser)
}

func newServer(logger *logrus.Logger, cfg *types.Config, factory extractor.BrowserFactory) *Server {
	return &Server{
		logger:    logger,
		config:    cfg,
		extractor: extractor.NewSalesExtractorWithBrowser(cfg, logger, extractor.NewMetrics(), factory),
	}
}

// handleIndex renders the input form prefilled with stored credentials
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	creds := config.LoadOrEmpty(s.config.ConfigFile, s.logger)
	today := time.Now().In(s.config.Location)
	s.renderPage(w, http.StatusOK, pageData{APIRequest: APIRequest{
		Username: creds.Username,
		Password: creds.Password,
		Start:    today.AddDate(0, 0, -7).Format(utils.DateLayout),
		End:      today.Format(utils.DateLayout),
	}})
}

// handleExtract handles the extraction endpoint for both the form and JSON clients
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Only allow POST requests
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseRequest(r)
	fail := func(message string, status int) {
		if req.Format == "html" {
			s.renderPage(w, status, pageData{APIRequest: req, Error: message})
			return
		}
		s.sendError(w, message, status)
	}
	if err != nil {
		fail("Invalid request body", http.StatusBadRequest)
		return
	}

	start, end, err := s.parseRange(req)
	if err != nil {
		fail(err.Error(), http.StatusBadRequest)
		return
	}
	if req.OptionID == "" {
		fail("option_id is required", http.StatusBadRequest)
		return
	}

	creds := types.Credentials{Username: req.Username, Password: req.Password}
	if err := config.Save(s.config.ConfigFile, creds); err != nil {
		s.logger.Warnf("Failed to save credentials: %v", err)
	}

	s.logger.Infof("Extraction requested for option %s (%s..%s)", req.OptionID, req.Start, req.End)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	table, err := s.extractor.ExtractAnnotated(ctx, extractor.Request{
		Credentials: creds,
		OptionID:    req.OptionID,
		Range:       types.DateRange{Start: start, End: end},
	})
	if err != nil {
		s.logger.Errorf("Extraction failed: %v", err)
		fail(err.Error(), http.StatusBadGateway)
		return
	}

	switch req.Format {
	case "xlsx":
		data, err := report.XLSXBytes(table)
		if err != nil {
			s.sendError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", report.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.XLSXFilename(start, end)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			s.logger.Errorf("Failed to write workbook: %v", err)
		}
	case "html":
		rows := make([][]string, len(table.Rows))
		for i := range table.Rows {
			rows[i] = table.Rows[i].Values()
		}
		s.renderPage(w, http.StatusOK, pageData{APIRequest: req, Columns: types.ColumnLabels(), Rows: rows})
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		response := APIResponse{Success: true, Columns: types.ColumnLabels(), Data: &table}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			s.logger.Errorf("Failed to encode response: %v", err)
		}
	}
}

// parseRequest reads a JSON body or a submitted form. Forms default to the
// HTML grid, JSON bodies to a JSON response.
func parseRequest(r *http.Request) (APIRequest, error) {
	var req APIRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		if req.Format == "" {
			req.Format = "json"
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		req.Format = "html"
		return req, err
	}
	req = APIRequest{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
		OptionID: strings.TrimSpace(r.PostForm.Get("option_id")),
		Start:    r.PostForm.Get("start"),
		End:      r.PostForm.Get("end"),
		Format:   r.PostForm.Get("format"),
	}
	if req.Format == "" {
		req.Format = "html"
	}
	return req, nil
}

func (s *Server) parseRange(req APIRequest) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(req.Start, s.config.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", req.Start)
	}
	end, err := utils.ParseDate(req.End, s.config.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", req.End)
	}
	return start, end, nil
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Errorf("Failed to render page: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.extractor.Metrics().Registry, promhttp.HandlerOpts{}))
	return mux
}

// Start starts the API server
func (s *Server) Start(port string) error {
	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  GET  /        - Input form")
	s.logger.Info("  POST /extract - Scrape daily sales for an option (html, json or xlsx)")
	s.logger.Info("  GET  /health  - Health check")
	s.logger.Info("  GET  /metrics - Prometheus metrics")

	return http.ListenAndServe(":"+port, s.Handler())
}

func main() {
	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
		fmt.Printf("Using port from environment variable API_PORT: %s\n", serverPort)
	} else {
		fmt.Printf("No API_PORT environment variable found, using default: %s\n", serverPort)
	}

	server := NewServer()

	log.Printf("Starting API server on port %s", serverPort)
	log.Fatal(server.Start(serverPort))
}
