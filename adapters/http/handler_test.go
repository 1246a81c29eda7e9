package exporthttp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-flexcell/export"
	"github.com/xuri/excelize/v2"
)

const teamsBody = `{
	"filename": "teams",
	"layout": {
		"sheet": "Teams",
		"mapping": {"team": "Team", "name": "Name", "age": "Age"},
		"merge_rows_on": ["team"],
		"formatters": {"name": "upper"}
	},
	"data": [
		{"team": "red", "name": "ann", "age": 30},
		{"team": "red", "name": "bob", "age": 41},
		{"team": "blue", "name": "cy", "age": 25}
	]
}`

func TestHandler_DownloadsWorkbook(t *testing.T) {
	handler := NewHandler(Config{})
	req := httptest.NewRequest(http.MethodPost, "/sheets", strings.NewReader(teamsBody))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != export.ContentType() {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="teams.xlsx"` {
		t.Fatalf("unexpected disposition %q", got)
	}

	file, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer file.Close()

	name, _ := file.GetCellValue("Teams", "B2")
	if name != "ANN" {
		t.Fatalf("expected formatted name, got %q", name)
	}
	age, _ := file.GetCellValue("Teams", "C3")
	if age != "41" {
		t.Fatalf("expected integer age, got %q", age)
	}
	merges, err := file.GetMergeCells("Teams")
	if err != nil {
		t.Fatalf("merges: %v", err)
	}
	if len(merges) != 1 || merges[0].GetStartAxis() != "A2" || merges[0].GetEndAxis() != "A3" {
		t.Fatalf("unexpected merges %v", merges)
	}
}

func TestHandler_Preview(t *testing.T) {
	handler := NewHandler(Config{BasePath: "/api/sheets/"})
	req := httptest.NewRequest(http.MethodPost, "/api/sheets/preview", strings.NewReader(teamsBody))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.HeaderRow != 1 || len(payload.Rows) != 4 {
		t.Fatalf("unexpected preview %+v", payload)
	}
	if payload.Rows[0][0] != "Team" || payload.Rows[1][1] != "ANN" {
		t.Fatalf("unexpected rows %v", payload.Rows)
	}
	if len(payload.Merges) != 1 || payload.Merges[0] != "A2:A3" {
		t.Fatalf("unexpected merges %v", payload.Merges)
	}
}

func TestHandler_Describe(t *testing.T) {
	handler := NewHandler(Config{})
	req := httptest.NewRequest(http.MethodPost, "/sheets/describe", strings.NewReader(teamsBody))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var info export.LayoutInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.SheetName != "Teams" || len(info.Columns) != 3 || info.Columns[1].Label != "Name" {
		t.Fatalf("unexpected layout %+v", info)
	}
	if len(info.RowMergeColumns) != 1 || info.RowMergeColumns[0] != "A" {
		t.Fatalf("unexpected row merges %v", info.RowMergeColumns)
	}
}

func TestHandler_Errors(t *testing.T) {
	handler := NewHandler(Config{MaxBodyBytes: 1 << 10})
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "method", method: http.MethodGet, path: "/sheets", status: http.StatusMethodNotAllowed, code: "method_not_allowed"},
		{name: "route", method: http.MethodPost, path: "/other", body: "{}", status: http.StatusNotFound, code: "not_found"},
		{name: "json", method: http.MethodPost, path: "/sheets", body: "{", status: http.StatusBadRequest, code: "validation"},
		{name: "xls", method: http.MethodPost, path: "/sheets", body: `{"filename":"a.xls","data":[{"a":1}]}`, status: http.StatusBadRequest, code: "validation"},
		{name: "merge", method: http.MethodPost, path: "/sheets", body: `{"layout":{"mapping":{"a":"A"},"column_merges":[{"start":"A","end":"C"}]}}`, status: http.StatusBadRequest, code: "validation"},
		{name: "size", method: http.MethodPost, path: "/sheets", body: `{"data":"` + strings.Repeat("x", 2<<10) + `"}`, status: http.StatusBadRequest, code: "validation"},
	}
	for _, tc := range cases {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, body))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		var payload errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if payload.Error.Code != tc.code {
			t.Fatalf("%s: expected code %s, got %s", tc.name, tc.code, payload.Error.Code)
		}
	}
}

func TestHandler_LegacyFormatNamesXLSX(t *testing.T) {
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"filename":"a.xls","data":[{"a":1}]}`)
	NewHandler(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sheets", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Message != export.LegacyFormatMessage {
		t.Fatalf("expected %q, got %q", export.LegacyFormatMessage, payload.Error.Message)
	}
}

func TestHandler_FiberMount(t *testing.T) {
	app := fiber.New()
	NewHandler(Config{}).RegisterRoutes(app)

	req := httptest.NewRequest(http.MethodPost, "/sheets", strings.NewReader(teamsBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("fiber test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != export.ContentType() {
		t.Fatalf("unexpected content type %q", got)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(content)); err != nil {
		t.Fatalf("expected workbook body: %v", err)
	}
}

func TestHandler_ServeMux(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(Config{}).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sheets/preview", strings.NewReader(`{"data":[{"a":1}]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDownloadName(t *testing.T) {
	cases := map[string]string{"": "sheet.xlsx", "report": "report.xlsx", "../x/report.XLSX": "report.XLSX", "a.csv": "a.csv.xlsx"}
	for in, want := range cases {
		got, err := downloadName(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q (%v)", in, want, got, err)
		}
	}
}
