package exporthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-flexcell/command"
	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/layout"
	"github.com/goliatone/go-flexcell/query"
)

const (
	defaultBasePath     = "/sheets"
	defaultFilename     = "sheet.xlsx"
	defaultMaxBodyBytes = 32 << 20
)

// Config configures the HTTP adapter.
type Config struct {
	BasePath     string
	Logger       export.Logger
	MaxBodyBytes int64
}

// Handler exposes sheet export endpoints:
//
//	POST {base}          renders the request to an XLSX download
//	POST {base}/preview  renders the request to a JSON grid
//	POST {base}/describe reports the resolved layout as JSON
type Handler struct {
	basePath string
	logger   export.Logger
	maxBody  int64
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		basePath: strings.TrimRight(strings.TrimSpace(cfg.BasePath), "/"),
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBodyBytes,
	}
	if h.basePath == "" {
		h.basePath = defaultBasePath
	}
	if h.logger == nil {
		h.logger = export.NopLogger{}
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBodyBytes
	}
	return h
}

// RegisterRoutes registers handlers on a compatible router.
func (h *Handler) RegisterRoutes(router any) {
	switch r := router.(type) {
	case fiber.Router:
		h.RegisterFiber(r)
	case interface{ Handle(string, http.Handler) }:
		r.Handle(h.basePath, h)
		r.Handle(h.basePath+"/", h)
	case interface {
		HandleFunc(string, func(http.ResponseWriter, *http.Request))
	}:
		r.HandleFunc(h.basePath, h.ServeHTTP)
		r.HandleFunc(h.basePath+"/", h.ServeHTTP)
	}
}

// RegisterFiber mounts the endpoints on a fiber router.
func (h *Handler) RegisterFiber(r fiber.Router) {
	handler := adaptor.HTTPHandler(h)
	r.Post(h.basePath, handler)
	r.Post(h.basePath+"/preview", handler)
	r.Post(h.basePath+"/describe", handler)
}

// ServeHTTP routes sheet endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil || r == nil {
		return
	}
	if h == nil {
		writeError(w, export.NewError(export.KindInternal, "handler is nil", nil))
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	switch path {
	case h.basePath, h.basePath + "/preview", h.basePath + "/describe":
	default:
		writeError(w, export.NewError(export.KindNotFound, "route not found", nil))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: errorBody{Message: "method not allowed", Code: "method_not_allowed"}})
		return
	}

	req, err := h.decode(r)
	if err != nil {
		writeError(w, err)
		return
	}
	switch path {
	case h.basePath + "/preview":
		h.preview(r.Context(), w, req)
	case h.basePath + "/describe":
		h.describe(r.Context(), w, req)
	default:
		h.download(r.Context(), w, req)
	}
}

func (h *Handler) download(ctx context.Context, w http.ResponseWriter, req sheetRequest) {
	filename, err := downloadName(req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	buf := &bytes.Buffer{}
	state, n, err := h.exporter(req).ExportTo(ctx, buf)
	if err != nil {
		h.logger.Errorf("sheet export failed: %v", err)
		writeError(w, err)
		return
	}
	h.logger.Infof("served %s: %d rows, %d bytes", filename, state.RowsWritten, n)

	w.Header().Set("Content-Type", export.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", n))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, buf)
}

func (h *Handler) preview(ctx context.Context, w http.ResponseWriter, req sheetRequest) {
	grid := export.NewGrid()
	state, err := h.exporter(req).ExportSheet(ctx, grid)
	if err != nil {
		writeError(w, err)
		return
	}
	merges := grid.Merges()
	refs := make([]string, len(merges))
	for i, m := range merges {
		refs[i] = m.String()
	}
	writeJSON(w, http.StatusOK, previewResponse{
		HeaderRow: state.HeaderRowIndex,
		Rows:      grid.Rows(),
		Merges:    refs,
	})
}

func (h *Handler) describe(ctx context.Context, w http.ResponseWriter, req sheetRequest) {
	info, err := query.NewDescribeLayoutHandler(nil).Query(ctx, query.DescribeLayout{Layout: req.Layout, Sample: req.Data})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) exporter(req sheetRequest) *export.Exporter {
	return req.Layout.Apply(export.New().SetLogger(h.logger)).SetData(req.Data)
}

type sheetRequest struct {
	Filename string          `json:"filename"`
	Layout   layout.Config   `json:"layout"`
	RawData  json.RawMessage `json:"data"`
	Data     []any           `json:"-"`
}

func (h *Handler) decode(r *http.Request) (sheetRequest, error) {
	req := sheetRequest{Layout: layout.Defaults()}
	if r.Body == nil {
		return req, export.NewError(export.KindValidation, "request body is required", nil)
	}
	body := io.LimitReader(r.Body, h.maxBody+1)
	content, err := io.ReadAll(body)
	if err != nil {
		return req, export.NewError(export.KindInternal, "read request body", err)
	}
	if int64(len(content)) > h.maxBody {
		return req, export.NewError(export.KindValidation, "request body too large", nil)
	}
	if err := json.Unmarshal(content, &req); err != nil {
		return req, export.NewError(export.KindValidation, "invalid request body", err)
	}
	if err := req.Layout.Validate(); err != nil {
		return req, err
	}
	if len(req.RawData) > 0 {
		items, err := command.DecodeData(bytes.NewReader(req.RawData))
		if err != nil {
			return req, export.NewError(export.KindValidation, "invalid data", err)
		}
		req.Data = items
	}
	return req, nil
}

func downloadName(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return defaultFilename, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return name, nil
	case ".xls":
		return "", export.NewError(export.KindValidation, export.LegacyFormatMessage, nil)
	default:
		return name + ".xlsx", nil
	}
}
