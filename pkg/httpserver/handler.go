package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// QueryRequest represents a single statement request.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// ExecuteRequest represents a batch execution request.
type ExecuteRequest struct {
	Statements      []QueryRequest `json:"statements"`
	ContinueOnError bool           `json:"continueOnError"`
}

// FetchRequest moves a cursor. An empty position is "next".
type FetchRequest struct {
	Position string `json:"position"`
}

func (s *Server) execute(sql string) (*executor.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.drv.Execute(sql)
	atomic.AddInt64(&s.stats.QueriesExecuted, 1)
	if err != nil {
		atomic.AddInt64(&s.stats.QueriesError, 1)
		return nil, err
	}
	atomic.AddInt64(&s.stats.QueriesSuccess, 1)
	return result, nil
}

// handleQuery handles POST /query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed", nil)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", nil)
		return
	}

	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SQL", "SQL query is required", nil)
		return
	}

	pretty := r.URL.Query().Get("pretty") == "true"

	start := time.Now()
	result, err := s.execute(req.SQL)
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	resp := &QueryResponse{
		Command:            result.CommandTag,
		RowCount:           result.RowCount,
		RowsAffected:       result.RowsAffected,
		ExecutionTimeMicro: time.Since(start).Microseconds(),
	}
	if result.Cursor != nil {
		resp.Columns = make([]ColumnInfo, len(result.Columns))
		for i, col := range result.Columns {
			resp.Columns[i] = ColumnInfo{Name: col, Type: result.GetColumnType(i)}
		}
		resp.Rows = result.NativeRows()
	}

	writeJSON(w, http.StatusOK, resp, pretty)
}

// handleExecute handles POST /execute for batch operations. Statements run
// in order; the batch stops at the first failure unless continueOnError is
// set. Nothing is rolled back.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed", nil)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", nil)
		return
	}

	if len(req.Statements) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_STATEMENTS", "At least one statement is required", nil)
		return
	}

	start := time.Now()
	resp := ExecuteResponse{Results: make([]ExecuteResult, 0, len(req.Statements))}
	status := http.StatusOK

	for i, stmt := range req.Statements {
		result, err := s.execute(stmt.SQL)
		if err != nil {
			h := toHTTPError(err)
			if h.Details == nil {
				h.Details = map[string]interface{}{}
			}
			h.Details["statement"] = i
			resp.Results = append(resp.Results, ExecuteResult{Error: h.detail()})
			if !req.ContinueOnError {
				status = h.Status
				break
			}
			continue
		}
		resp.Results = append(resp.Results, ExecuteResult{
			Command:      result.CommandTag,
			RowCount:     result.RowCount,
			RowsAffected: result.RowsAffected,
		})
	}

	resp.ExecutionTime = time.Since(start).String()
	writeJSON(w, status, resp, false)
}

// handleCursorOpen handles POST /cursor
func (s *Server) handleCursorOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed", nil)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", nil)
		return
	}

	s.mu.Lock()
	tok, cols, err := s.drv.OpenSelectCursor(req.SQL)
	var count int
	if err == nil {
		count, err = s.drv.RowCount(tok)
	}
	s.mu.Unlock()
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CursorResponse{Cursor: int(tok), Columns: cols, RowCount: count}, false)
}

// handleCursorFetch handles POST /cursor/{id}/fetch
func (s *Server) handleCursorFetch(w http.ResponseWriter, r *http.Request) {
	tok, ok := cursorToken(w, r)
	if !ok {
		return
	}

	var req FetchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", nil)
			return
		}
	}

	pos, err := executor.ParsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_POSITION", err.Error(), nil)
		return
	}

	s.mu.Lock()
	vals, found, err := s.drv.Fetch(tok, pos)
	s.mu.Unlock()
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	resp := FetchResponse{Done: !found}
	if found {
		resp.Row = make([]interface{}, len(vals))
		for i, v := range vals {
			resp.Row[i] = value.Native(v)
		}
	}
	writeJSON(w, http.StatusOK, resp, false)
}

// handleCursorClose handles DELETE /cursor/{id}
func (s *Server) handleCursorClose(w http.ResponseWriter, r *http.Request) {
	tok, ok := cursorToken(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	err := s.drv.CloseCursor(tok)
	s.mu.Unlock()
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func cursorToken(w http.ResponseWriter, r *http.Request) (driver.Token, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", fmt.Sprintf("invalid cursor id %q", r.PathValue("id")), nil)
		return 0, false
	}
	return driver.Token(id), true
}

// handleSchemaTables handles GET /schema/tables
func (s *Server) handleSchemaTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed", nil)
		return
	}

	s.mu.Lock()
	tables := s.drv.ListTables()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": tables,
	}, r.URL.Query().Get("pretty") == "true")
}

// handleSchemaTable handles GET /schema/tables/:name
func (s *Server) handleSchemaTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed", nil)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/schema/tables/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TABLE", "Table name is required", nil)
		return
	}

	s.mu.Lock()
	cols, err := s.drv.DescribeTable(name)
	s.mu.Unlock()
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TableResponse{Name: name, Columns: cols}, r.URL.Query().Get("pretty") == "true")
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.stats.StartTime).String(),
	}, false)
}

// handleStats handles GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed", nil)
		return
	}

	s.mu.Lock()
	tables := len(s.drv.ListTables())
	cursors := s.drv.OpenCursors()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"queriesExecuted": atomic.LoadInt64(&s.stats.QueriesExecuted),
		"queriesSuccess":  atomic.LoadInt64(&s.stats.QueriesSuccess),
		"queriesError":    atomic.LoadInt64(&s.stats.QueriesError),
		"tables":          tables,
		"openCursors":     cursors,
		"uptime":          time.Since(s.stats.StartTime).String(),
	}, false)
}
