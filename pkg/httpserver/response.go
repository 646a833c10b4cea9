package httpserver

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/logging"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
)

// ColumnInfo represents column metadata of a statement result.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResponse represents a query response. Columns and Rows are set for
// SELECT only.
type QueryResponse struct {
	Command            string          `json:"command"`
	Columns            []ColumnInfo    `json:"columns,omitempty"`
	Rows               [][]interface{} `json:"rows,omitempty"`
	RowCount           int             `json:"rowCount"`
	RowsAffected       int64           `json:"rowsAffected"`
	ExecutionTimeMicro int64           `json:"executionTimeMicro"`
}

// ExecuteResult represents a single statement of a batch.
type ExecuteResult struct {
	Command      string       `json:"command,omitempty"`
	RowCount     int          `json:"rowCount"`
	RowsAffected int64        `json:"rowsAffected"`
	Error        *ErrorDetail `json:"error,omitempty"`
}

// ExecuteResponse represents a batch execution response.
type ExecuteResponse struct {
	Results       []ExecuteResult `json:"results"`
	ExecutionTime string          `json:"executionTime"`
}

// CursorResponse is returned when a cursor is opened.
type CursorResponse struct {
	Cursor   int                 `json:"cursor"`
	Columns  []driver.ColumnInfo `json:"columns"`
	RowCount int                 `json:"rowCount"`
}

// FetchResponse carries one fetched row. Done is set once the cursor moved
// past either end of its rows.
type FetchResponse struct {
	Row  []interface{} `json:"row"`
	Done bool          `json:"done"`
}

// TableResponse describes one table.
type TableResponse struct {
	Name    string              `json:"name"`
	Columns []driver.ColumnInfo `json:"columns"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with custom fields.
type HTTPError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
}

func (e *HTTPError) Error() string {
	return e.Message
}

var kindErrors = map[sqlerr.Kind]struct {
	status int
	code   string
}{
	sqlerr.Syntax:              {http.StatusBadRequest, "SYNTAX_ERROR"},
	sqlerr.DuplicateColumn:     {http.StatusConflict, "DUPLICATE_COLUMN"},
	sqlerr.ColumnNotFound:      {http.StatusBadRequest, "COLUMN_NOT_FOUND"},
	sqlerr.TableNotFound:       {http.StatusNotFound, "TABLE_NOT_FOUND"},
	sqlerr.TableAlreadyExists:  {http.StatusConflict, "TABLE_EXISTS"},
	sqlerr.PermissionDenied:    {http.StatusForbidden, "PERMISSION_DENIED"},
	sqlerr.TypeMismatch:        {http.StatusBadRequest, "TYPE_MISMATCH"},
	sqlerr.InvalidOperandType:  {http.StatusBadRequest, "INVALID_OPERAND_TYPE"},
	sqlerr.NonBooleanCondition: {http.StatusBadRequest, "NON_BOOLEAN_CONDITION"},
	sqlerr.OrderColumnNotFound: {http.StatusBadRequest, "ORDER_COLUMN_NOT_FOUND"},
	sqlerr.DivisionByZero:      {http.StatusBadRequest, "DIVISION_BY_ZERO"},
	sqlerr.CursorNotFound:      {http.StatusNotFound, "CURSOR_NOT_FOUND"},
}

// toHTTPError maps an engine error onto a status and error code.
func toHTTPError(err error) *HTTPError {
	if h, ok := err.(*HTTPError); ok {
		return h
	}
	kind := sqlerr.KindOf(err)
	e := &HTTPError{
		Code:    "EXECUTION_ERROR",
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
		Details: map[string]interface{}{"kind": kind.String()},
	}
	if m, ok := kindErrors[kind]; ok {
		e.Status, e.Code = m.status, m.code
	}
	return e
}

func (e *HTTPError) detail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}, pretty bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	encoder.Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	if status >= 500 {
		logging.WithComponent("http").Error("server error", "status", status, "code", code, "message", message)
	}

	writeJSON(w, status, resp, false)
}

func writeHTTPError(w http.ResponseWriter, err error) {
	h := toHTTPError(err)
	writeError(w, h.Status, h.Code, h.Message, h.Details)
}
