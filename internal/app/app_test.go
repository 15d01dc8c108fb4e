package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bidops-platform/api/internal/auth"
	"github.com/bidops-platform/api/internal/config"
	"github.com/bidops-platform/api/internal/export"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/metrics"
	"github.com/bidops-platform/api/internal/store/memory"
)

type testEnv struct {
	store  *memory.Store
	router http.Handler
}

func testConfig() config.Config {
	return config.Config{
		Addr:                   ":0",
		DatabaseURL:            "memory://",
		Env:                    "test",
		CORSAllowedOrigins:     []string{"http://localhost:3000"},
		APIMaxBodyMB:           1,
		ImportMaxFileMB:        5,
		ImportMaxRows:          50,
		ImportProbeConcurrency: 4,
		ImportMapWorkers:       2,
		RateLimitMaxIPs:        100,
	}
}

func setupTestEnv(t *testing.T, mutate ...func(*config.Config)) testEnv {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, err := NewRouter(cfg, store, metrics.New(), logger)
	require.NoError(t, err)
	return testEnv{store: store, router: router}
}

func jobRows(keys ...string) []byte {
	rows := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, map[string]any{
			"Contract Number": key,
			"Requestor":       "Avery",
			"Owner":           "PennDOT",
			"Letting Date":    45848,
			"Status":          "bid",
		})
	}
	body, _ := json.Marshal(map[string]any{"rows": rows})
	return body
}

func decodeResult(t *testing.T, body []byte) importer.Result {
	t.Helper()
	var res importer.Result
	require.NoError(t, json.Unmarshal(body, &res), string(body))
	return res
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	assert.NotEmpty(t, envelope.RequestID)
	return envelope.Error.Code
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestImportJSONIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1", "JOB-2"))
	require.Equal(t, http.StatusOK, status, string(body))
	first := decodeResult(t, body)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 2, first.NewCount)
	assert.Empty(t, first.Errors)
	require.Len(t, first.Data, 2)
	require.NotNil(t, first.Data[0].DueDate)
	assert.Equal(t, "2025-07-08", first.Data[0].DueDate.String())

	status, body = request(t, env.router, http.MethodPost, "/api/imports/available_jobs", jobRows("JOB-1", "JOB-2"))
	require.Equal(t, http.StatusOK, status, string(body))
	second := decodeResult(t, body)
	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 2, second.UpdatedCount)

	entries := env.store.AuditLog()
	require.Len(t, entries, 2)
	assert.Equal(t, "import.completed", entries[1].Action)
	assert.Equal(t, "available_jobs", entries[1].EntityType)
	assert.Contains(t, string(entries[1].Metadata), `"updatedCount":2`)
}

func TestImportReportsRowFailures(t *testing.T) {
	env := setupTestEnv(t)

	body := []byte(`{"rows":[{"Contract #":"B-1","Estimator":"Dana","Owner":"SEPTA","Posts":-2},"junk",{"Estimator":"Dana"}]}`)
	status, resBody := request(t, env.router, http.MethodPost, "/api/imports/active-bids", body)
	require.Equal(t, http.StatusOK, status, string(resBody))

	res := decodeResult(t, resBody)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, res.NewCount)
	assert.Equal(t, 1, res.FailedCount)
	require.Len(t, res.Errors, 4)
	assert.Equal(t, "Row 1: invalid value for posts, using 0 instead", res.Errors[0])
	assert.Equal(t, "Row 2: row is not a record", res.Errors[1])
	assert.Equal(t, "Row 3: owner missing, defaulting to Unknown", res.Errors[2])
	assert.True(t, strings.HasPrefix(res.Errors[3], "Row 3: contract number missing, generated TEMP-"), res.Errors[3])
}

func TestImportBatchErrors(t *testing.T) {
	env := setupTestEnv(t, func(cfg *config.Config) { cfg.ImportMaxRows = 2 })

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown kind", "/api/imports/estimates", `{"rows":[{"a":1}]}`, http.StatusNotFound, "unknown_kind"},
		{"empty batch", "/api/imports/active-bids", `{"rows":[]}`, http.StatusBadRequest, "empty_batch"},
		{"missing rows", "/api/imports/active-bids", `{}`, http.StatusBadRequest, "validation_error"},
		{"too many rows", "/api/imports/active-bids", `{"rows":[{},{},{}]}`, http.StatusBadRequest, "too_many_rows"},
		{"malformed", "/api/imports/active-bids", `{"rows":[`, http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := request(t, env.router, http.MethodPost, tc.path, []byte(tc.body))
			assert.Equal(t, tc.status, status, string(body))
			assert.Equal(t, tc.code, errorCode(t, body))
		})
	}
	assert.Empty(t, env.store.AuditLog())
}

func TestImportRequiresAPIKeyWhenConfigured(t *testing.T) {
	key, err := auth.GenerateAPIKey()
	require.NoError(t, err)
	hash, err := auth.HashAPIKey(key)
	require.NoError(t, err)
	env := setupTestEnv(t, func(cfg *config.Config) { cfg.ImportAPIKeyHash = hash })

	status, body := request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(t, body))

	status, _ = request(t, env.router, http.MethodGet, "/api/exports/available-jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1"), map[string]string{"X-API-Key": key})
	assert.Equal(t, http.StatusOK, status, string(body))
	entries := env.store.AuditLog()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Actor)
	assert.Equal(t, auth.KeyID(key), *entries[0].Actor)

	status, _ = request(t, env.router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestImportRateLimited(t *testing.T) {
	env := setupTestEnv(t, func(cfg *config.Config) { cfg.ImportRateLimitPerMinute = 1 })

	status, _ := request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1"))
	assert.Equal(t, http.StatusOK, status)

	status, body := request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", errorCode(t, body))

	status, _ = request(t, env.router, http.MethodGet, "/api/exports/available-jobs", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUploadThenExport(t *testing.T) {
	env := setupTestEnv(t)

	csvBody := "Contract Number,Requestor,Owner,Status,No Bid Reason,Letting Date\n" +
		"JOB-1,Avery,PennDOT,Bid,,2025-07-10\n" +
		"JOB-2,Avery,Turnpike,No Bid,Too far,2025-07-11\n"
	payload, contentType := multipartFile(t, "jobs.csv", []byte(csvBody))

	status, body := request(t, env.router, http.MethodPost, "/api/imports/available-jobs/upload", payload, map[string]string{"Content-Type": contentType})
	require.Equal(t, http.StatusOK, status, string(body))
	res := decodeResult(t, body)
	assert.Equal(t, 2, res.NewCount)
	assert.Empty(t, res.Errors)

	req := httptest.NewRequest(http.MethodGet, "/api/exports/available-jobs", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="available-jobs-`)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Available Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "JOB-2", rows[2][0])

	entries := env.store.AuditLog()
	require.Len(t, entries, 2)
	assert.Equal(t, "import.completed", entries[0].Action)
	assert.Contains(t, string(entries[0].Metadata), `"filename":"jobs.csv"`)
	assert.Equal(t, "export.download", entries[1].Action)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	env := setupTestEnv(t)

	payload, contentType := multipartFile(t, "jobs.pdf", []byte("%PDF-1.4"))
	status, body := request(t, env.router, http.MethodPost, "/api/imports/available-jobs/upload", payload, map[string]string{"Content-Type": contentType})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unsupported_file_type", errorCode(t, body))
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	status, _ := request(t, env.router, http.MethodPost, "/api/imports/available-jobs", jobRows("JOB-1"))
	require.Equal(t, http.StatusOK, status)

	status, body := request(t, env.router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `bidops_imports_total{kind="available_jobs"} 1`)
	assert.Contains(t, string(body), `bidops_import_rows_total{kind="available_jobs",outcome="new"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/imports/active-bids", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func multipartFile(t *testing.T, filename string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func request(t *testing.T, router http.Handler, method, path string, body []byte, extraHeaders ...map[string]string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, headers := range extraHeaders {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read response for %s %s: %v", method, path, err)
	}
	return rec.Code, resBody
}
