package command

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gcmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/layout"
)

func textCode(t *testing.T, err error) string {
	t.Helper()
	var ge *goerrors.Error
	if !stderrors.As(err, &ge) {
		t.Fatalf("expected go-errors error, got %T: %v", err, err)
	}
	return ge.TextCode
}

func TestExportSheet_ValidateLegacyFormatMessage(t *testing.T) {
	err := ExportSheet{Filename: "out.xls", Layout: namesLayout()}.Validate()
	var ge *goerrors.Error
	if !stderrors.As(err, &ge) {
		t.Fatalf("expected go-errors error, got %v", err)
	}
	if ge.Message != export.LegacyFormatMessage {
		t.Fatalf("expected %q, got %q", export.LegacyFormatMessage, ge.Message)
	}
}

func namesLayout() layout.Config {
	cfg := layout.Defaults()
	cfg.Mapping = layout.Mapping{{Key: "name", Label: "Name"}, {Key: "team", Label: "Team"}}
	cfg.MergeRowsOn = []string{"team"}
	return cfg
}

func TestExportSheet_Validate(t *testing.T) {
	cases := map[string]struct {
		msg  ExportSheet
		code string
	}{
		"filename": {msg: ExportSheet{Layout: namesLayout()}, code: "FILENAME_REQUIRED"},
		"xls":      {msg: ExportSheet{Filename: "out.XLS", Layout: namesLayout()}, code: "FORMAT_UNSUPPORTED"},
		"layout":   {msg: ExportSheet{Filename: "out.xlsx", Layout: layout.Config{}}, code: "LAYOUT_INVALID"},
	}
	for name, tc := range cases {
		if got := textCode(t, tc.msg.Validate()); got != tc.code {
			t.Fatalf("%s: expected %s, got %s", name, tc.code, got)
		}
	}
	if err := (ExportSheet{Filename: "out.xlsx", Layout: namesLayout()}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestExportSheetHandler_StoresResults(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "teams.xlsx")
	handler := NewExportSheetHandler(export.NopLogger{})

	var got export.Result
	result := gcmd.NewResult[export.Result]()
	ctx := gcmd.ContextWithResult(context.Background(), result)

	err := handler.Execute(ctx, ExportSheet{
		Filename: filename,
		Layout:   namesLayout(),
		Data: []export.Row{
			{"name": "Ann", "team": "red"},
			{"name": "Bob", "team": "red"},
		},
		Result: &got,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !got.Valid || got.State.RowsWritten != 2 {
		t.Fatalf("unexpected result %+v", got)
	}
	stored, ok := result.Load()
	if !ok {
		t.Fatalf("expected context result")
	}
	if stored.Filename != filename {
		t.Fatalf("expected context result for %s, got %s", filename, stored.Filename)
	}
	if _, err := os.Stat(filename); err != nil {
		t.Fatalf("expected file: %v", err)
	}
}

func TestExportSheetHandler_InvalidWriteIsReported(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "missing", "teams.xlsx")
	var got export.Result
	err := NewExportSheetHandler(nil).Execute(context.Background(), ExportSheet{
		Filename: filename,
		Layout:   namesLayout(),
		Result:   &got,
	})
	if code := textCode(t, err); code != "EXPORT_INVALID" {
		t.Fatalf("expected EXPORT_INVALID, got %s", code)
	}
	if got.Valid || got.ValidationErr == nil {
		t.Fatalf("expected invalid result, got %+v", got)
	}
}

func TestExportSheetHandler_MapsEngineErrors(t *testing.T) {
	err := NewExportSheetHandler(nil).Execute(context.Background(), ExportSheet{
		Filename: filepath.Join(t.TempDir(), "bad.xlsx"),
		Layout:   namesLayout(),
		Data:     42,
	})
	if code := textCode(t, err); code != "validation" {
		t.Fatalf("expected validation, got %s", code)
	}
}

func TestPreviewSheetHandler_StoresGrid(t *testing.T) {
	result := gcmd.NewResult[*export.Grid]()
	ctx := gcmd.ContextWithResult(context.Background(), result)

	err := NewPreviewSheetHandler(NewExportSheetHandler(nil)).Execute(ctx, PreviewSheet{
		Layout: namesLayout(),
		Data:   []export.Row{{"name": "Ann", "team": "red"}, {"name": "Bob", "team": "red"}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	grid, ok := result.Load()
	if !ok || grid == nil {
		t.Fatalf("expected grid result")
	}
	if merges := grid.Merges(); len(merges) != 1 {
		t.Fatalf("expected one team merge, got %v", merges)
	}
}

func TestBatchCommand_RunsFileRequests(t *testing.T) {
	dir := t.TempDir()
	layoutPath := filepath.Join(dir, "layout.yaml")
	dataPath := filepath.Join(dir, "data.json")
	batchPath := filepath.Join(dir, "batch.json")

	writeFile(t, layoutPath, "mapping:\n  name: Name\n  team: Team\nmerge_rows_on: [team]\n")
	writeFile(t, dataPath, `[{"name":"Ann","team":"red","age":30},{"name":"Bob","team":"red"}]`)
	writeFile(t, batchPath, `[
		{"filename":"`+filepath.ToSlash(filepath.Join(dir, "a.xlsx"))+`","layout":"`+filepath.ToSlash(layoutPath)+`","data":"`+filepath.ToSlash(dataPath)+`"},
		{"filename":"`+filepath.ToSlash(filepath.Join(dir, "b.xlsx"))+`","layout":"`+filepath.ToSlash(layoutPath)+`","data":"`+filepath.ToSlash(dataPath)+`"}
	]`)

	cmd := NewBatchCommand(NewExportSheetHandler(nil), nil, WithBatchLimits(BatchLimits{MaxRequests: 1, MinInterval: time.Millisecond}))
	slept := 0
	cmd.sleep = func(time.Duration) { slept++ }

	count, err := cmd.Run(context.Background(), batchPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 || slept != 1 {
		t.Fatalf("expected 1 request and 1 pause, got %d and %d", count, slept)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.xlsx")); err != nil {
		t.Fatalf("expected first workbook: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.xlsx")); !os.IsNotExist(err) {
		t.Fatalf("expected limit to stop second workbook")
	}
}

func TestBatchCommand_RequiresLoader(t *testing.T) {
	_, err := NewBatchCommand(NewExportSheetHandler(nil), nil).Run(context.Background(), "")
	if code := textCode(t, err); code != "LOADER_REQUIRED" {
		t.Fatalf("expected LOADER_REQUIRED, got %s", code)
	}
	_, err = NewBatchCommand(nil, nil).Run(context.Background(), "")
	if code := textCode(t, err); code != "HANDLER_REQUIRED" {
		t.Fatalf("expected HANDLER_REQUIRED, got %s", code)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
