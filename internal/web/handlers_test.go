package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"xlsxdiff/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: time.Second,
			RequestTimeout:  time.Minute,
		},
		Upload: config.UploadConfig{MaxFileSize: 10 << 20},
		Workspace: config.WorkspaceConfig{
			TTL:           time.Hour,
			SweepInterval: time.Hour,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func testServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	cfg.Workspace.Dir = t.TempDir()
	workspace, err := NewWorkspace(cfg.Workspace)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	t.Cleanup(func() { workspace.Close() })
	return NewServer(cfg, workspace)
}

// workbookBytes builds an in-memory xlsx with one sheet.
func workbookBytes(t *testing.T, sheet string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()
	return buf.Bytes()
}

// uploadWorkbook posts a workbook through the upload endpoint and
// returns the response payload.
func uploadWorkbook(t *testing.T, s *Server, prefix, name string, content []byte) uploadResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, prefix+"/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

func TestHandleUpload(t *testing.T) {
	s := testServer(t, testConfig())

	resp := uploadWorkbook(t, s, "", "people.xlsx", workbookBytes(t, "Staff", [][]string{
		{"id", "name"},
		{"1", "Ann"},
	}))

	if resp.FileID == "" {
		t.Error("empty file_id")
	}
	if resp.OriginalName != "people.xlsx" {
		t.Errorf("original_name = %q", resp.OriginalName)
	}
	if len(resp.Sheets) != 1 || resp.Sheets[0].Name != "Staff" {
		t.Fatalf("sheets = %+v", resp.Sheets)
	}
	if len(resp.Sheets[0].Columns) != 2 {
		t.Errorf("columns = %v", resp.Sheets[0].Columns)
	}
}

func TestHandleUploadRejectsNonWorkbook(t *testing.T) {
	s := testServer(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	fw.Write([]byte("plain text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUploadNoFile(t *testing.T) {
	s := testServer(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func compareFlow(t *testing.T, s *Server, prefix string) compareResponse {
	t.Helper()
	up1 := uploadWorkbook(t, s, prefix, "a.xlsx", workbookBytes(t, "Sheet1", [][]string{
		{"id", "name"},
		{"1", "Ann"},
		{"2", "Bob"},
	}))
	up2 := uploadWorkbook(t, s, prefix, "b.xlsx", workbookBytes(t, "Sheet1", [][]string{
		{"id", "name"},
		{"1", "Anne"},
		{"3", "Cid"},
	}))

	payload, _ := json.Marshal(compareRequest{
		File1ID: up1.FileID,
		File2ID: up2.FileID,
		Sheet1:  "Sheet1",
		Sheet2:  "Sheet1",
		Keys:    []string{"id"},
	})
	req := httptest.NewRequest(http.MethodPost, prefix+"/api/compare", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("compare status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp compareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode compare response: %v", err)
	}
	return resp
}

func TestHandleCompare(t *testing.T) {
	s := testServer(t, testConfig())
	resp := compareFlow(t, s, "")

	if resp.ResultID == "" {
		t.Error("empty result_id")
	}
	if !resp.HasMarkedFiles {
		t.Error("expected annotated files")
	}
	for _, want := range []string{
		"only in file 1: 1",
		"only in file 2: 1",
		"column [name]: file 1='Ann' vs file 2='Anne'",
	} {
		if !strings.Contains(resp.Report, want) {
			t.Errorf("report missing %q:\n%s", want, resp.Report)
		}
	}
}

func TestHandleCompareValidation(t *testing.T) {
	s := testServer(t, testConfig())

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing keys", `{"file1_id":"a","file2_id":"b","sheet1":"S","sheet2":"S"}`},
		{"unknown file id", `{"file1_id":"nope","file2_id":"nope","sheet1":"S","sheet2":"S","keys":["id"]}`},
		{"unknown field", `{"bogus":true}`},
		{"not json", `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleCompareMissingKeyColumn(t *testing.T) {
	s := testServer(t, testConfig())
	up1 := uploadWorkbook(t, s, "", "a.xlsx", workbookBytes(t, "Sheet1", [][]string{
		{"id"}, {"1"},
	}))
	up2 := uploadWorkbook(t, s, "", "b.xlsx", workbookBytes(t, "Sheet1", [][]string{
		{"id"}, {"1"},
	}))

	payload, _ := json.Marshal(compareRequest{
		File1ID: up1.FileID, File2ID: up2.FileID,
		Sheet1: "Sheet1", Sheet2: "Sheet1",
		Keys: []string{"dept"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/compare", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dept") {
		t.Errorf("error should name the missing column: %s", rec.Body.String())
	}
}

func TestDownloadEndpoints(t *testing.T) {
	s := testServer(t, testConfig())
	resp := compareFlow(t, s, "")

	req := httptest.NewRequest(http.MethodGet, "/api/download/"+resp.ResultID, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report download status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Worksheet comparison result") {
		t.Error("report body missing header")
	}

	for n := 1; n <= 2; n++ {
		url := fmt.Sprintf("/api/download/%s/marked/%d", resp.ResultID, n)
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("marked %d download status = %d", n, rec.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/download/"+resp.ResultID+"/marked/3", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("marked 3 status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/download/unknown", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown result status = %d, want 404", rec.Code)
	}
}

func TestPrefixMounting(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Prefix = "excel-compare"
	s := testServer(t, cfg)

	// The whole app answers under the prefix...
	resp := compareFlow(t, s, "/excel-compare")
	if resp.ResultID == "" {
		t.Error("compare under prefix failed")
	}

	// ...and not at the root.
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("root route status = %d, want 404", rec.Code)
	}
}

func TestIndexServed(t *testing.T) {
	s := testServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := testServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request within window should be limited")
	}
	// A different IP has its own bucket.
	if !rl.allow("5.6.7.8") {
		t.Error("other IP should not be limited")
	}
}
