package exporthttp

import (
	"encoding/json"
	"net/http"

	errorslib "github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexcell/export"
)

type previewResponse struct {
	HeaderRow int      `json:"header_row"`
	Rows      [][]any  `json:"rows"`
	Merges    []string `json:"merges"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	ge := export.AsGoError(err)
	writeJSON(w, statusForError(ge), errorResponse{Error: errorBody{Message: ge.Message, Code: ge.TextCode}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.TextCode == "not_implemented" {
		return http.StatusNotImplemented
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
