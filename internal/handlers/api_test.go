package handlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insight-dashboard/internal/config"
	"insight-dashboard/internal/services"
)

const salesCSV = `Region,Product,Sales,Date
North,Widget,10,2024-01-03
South,Gadget,20,2024-01-01
North,Widget,30,2024-01-02
South,Widget,5,2024-01-01
North,Gadget,15,2024-01-03
`

var testUploadConfig = config.UploadConfig{
	MaxFileBytes:      1 << 20,
	MaxRows:           5000,
	AllowedExtensions: []string{".csv", ".xlsx", ".xls"},
	MaxFilenameLength: 255,
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// createTestAnalytics returns a service holding one uploaded dataset and its id.
func createTestAnalytics(t *testing.T) (*services.Analytics, string) {
	t.Helper()
	a := services.NewAnalytics(services.Options{Logger: testLogger()})
	t.Cleanup(func() { a.Close() })

	session, err := a.Upload(context.Background(), "sales.csv", strings.NewReader(salesCSV))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return a, session.ID
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, w.Body.String())
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics, _ := createTestAnalytics(t)
	logger := testLogger()
	handlers := NewAPIHandlers(analytics, logger, testUploadConfig)

	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleUpload(t *testing.T) {
	analytics := services.NewAnalytics(services.Options{Logger: testLogger()})
	defer analytics.Close()
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	body, contentType := multipartBody(t, "file", "../quarterly sales!.csv", salesCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	env := decode(t, w)
	var session struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
		RowCount int    `json:"rowCount"`
		Analysis struct {
			KPIs   []map[string]any `json:"kpis"`
			Charts []map[string]any `json:"charts"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatal(err)
	}

	if session.FileName != "quarterly sales.csv" {
		t.Errorf("fileName = %q, want sanitized name", session.FileName)
	}
	if session.RowCount != 5 {
		t.Errorf("rowCount = %d, want 5", session.RowCount)
	}
	if len(session.Analysis.KPIs) != 3 || len(session.Analysis.Charts) != 3 {
		t.Errorf("got %d kpis and %d charts, want 3 and 3", len(session.Analysis.KPIs), len(session.Analysis.Charts))
	}
	if session.Analysis.KPIs[0]["value"] != "5" {
		t.Errorf("total_count value = %v, want \"5\"", session.Analysis.KPIs[0]["value"])
	}

	if _, err := analytics.Get(session.ID); err != nil {
		t.Errorf("uploaded session not stored: %v", err)
	}
}

func TestAPIHandlers_HandleUpload_Compressed(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	analytics := services.NewAnalytics(services.Options{Logger: testLogger()})
	defer analytics.Close()
	handlers := NewAPIHandlers(analytics, testLogger(), cfg.Upload)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	io.WriteString(zw, salesCSV)
	zw.Close()

	body, contentType := multipartBody(t, "file", "sales.csv.gz", gz.String())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var session struct {
		RowCount int `json:"rowCount"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &session); err != nil {
		t.Fatal(err)
	}
	if session.RowCount != 5 {
		t.Errorf("rowCount = %d, want 5", session.RowCount)
	}
}

func TestAPIHandlers_HandleUpload_Errors(t *testing.T) {
	small := testUploadConfig
	small.MaxFileBytes = 16

	tests := []struct {
		name     string
		cfg      config.UploadConfig
		field    string
		filename string
		content  string
		status   int
		code     string
	}{
		{"wrong extension", testUploadConfig, "file", "notes.txt", "a\n1\n", http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"missing file field", testUploadConfig, "other", "sales.csv", salesCSV, http.StatusBadRequest, "BAD_REQUEST"},
		{"empty file", testUploadConfig, "file", "empty.csv", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"too large", small, "file", "sales.csv", salesCSV, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analytics := services.NewAnalytics(services.Options{Logger: testLogger()})
			defer analytics.Close()
			handlers := NewAPIHandlers(analytics, testLogger(), tt.cfg)

			body, contentType := multipartBody(t, tt.field, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			handlers.HandleUpload(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			env := decode(t, w)
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("response = %s, want error code %s", w.Body.String(), tt.code)
			}
		})
	}
}

func TestAPIHandlers_HandleUpload_NotMultipart(t *testing.T) {
	analytics, _ := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAPIHandlers_HandleAnalysis(t *testing.T) {
	analytics, id := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/analysis", nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()

	handlers.HandleAnalysis(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "private, max-age=300" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var result struct {
		Columns struct {
			Numeric []string `json:"numeric"`
			Date    []string `json:"date"`
		} `json:"columns"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Columns.Numeric) != 1 || result.Columns.Numeric[0] != "Sales" {
		t.Errorf("numeric columns = %v, want [Sales]", result.Columns.Numeric)
	}
}

func TestAPIHandlers_NotFound(t *testing.T) {
	analytics := services.NewAnalytics(services.Options{Logger: testLogger()})
	defer analytics.Close()
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"analysis", handlers.HandleAnalysis},
		{"summary", handlers.HandleSummary},
		{"latest", handlers.HandleLatest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/datasets/nope", nil)
			req.SetPathValue("id", "nope")
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", w.Code)
			}
			if env := decode(t, w); env.Error == nil || env.Error.Code != "NOT_FOUND" {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	analytics, id := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/summary", nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()

	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var summary struct {
		RowCount    int              `json:"rowCount"`
		ColumnCount int              `json:"columnCount"`
		Columns     []map[string]any `json:"columns"`
		Preview     []map[string]any `json:"preview"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.RowCount != 5 || summary.ColumnCount != 4 || len(summary.Columns) != 4 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestAPIHandlers_HandleLatest(t *testing.T) {
	analytics, id := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	w := httptest.NewRecorder()
	handlers.HandleLatest(w, httptest.NewRequest(http.MethodGet, "/api/datasets/latest", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var session struct {
		ID string `json:"id"`
	}
	json.Unmarshal(decode(t, w).Data, &session)
	if session.ID != id {
		t.Errorf("latest id = %q, want %q", session.ID, id)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	analytics, _ := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("health should not be cached, got %q", cc)
	}

	var data map[string]string
	json.Unmarshal(decode(t, w).Data, &data)
	if data["status"] != "healthy" || data["version"] != Version {
		t.Errorf("health data = %v", data)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	analytics, id := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats services.Stats
	if err := json.Unmarshal(decode(t, w).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Sessions != 1 || stats.Uploads != 1 || stats.LatestID != id {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAPIHandlers_ResponseFormat(t *testing.T) {
	analytics, _ := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger(), testUploadConfig)

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	if _, ok := response["data"]; !ok {
		t.Error("response should have 'data' field")
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}
}
