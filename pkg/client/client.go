// Package client talks to a dbfsql HTTP server.
package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/httpserver"
)

// Client represents a connection to a dbfsql server
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Row represents a single row keyed by column name
type Row map[string]interface{}

// Error is an error reported by the server.
type Error struct {
	Status int
	httpserver.ErrorDetail
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Connect creates a new client for the server at uri, e.g. http://localhost:8080
func Connect(uri string, apiKey string) (*Client, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URI %q: scheme and host are required", uri)
	}

	return &Client{
		baseURL: fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		apiKey:  apiKey,
		client:  &http.Client{},
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// SQL executes a SELECT and returns the results as a slice of rows
func (c *Client) SQL(query string) ([]Row, error) {
	resp, err := c.Query(query)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(resp.Rows))
	for i, vals := range resp.Rows {
		row := make(Row, len(resp.Columns))
		for j, col := range resp.Columns {
			if j < len(vals) {
				row[col.Name] = vals[j]
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// Query executes one statement.
func (c *Client) Query(sql string) (*httpserver.QueryResponse, error) {
	var resp httpserver.QueryResponse
	if err := c.do(http.MethodPost, "/query", httpserver.QueryRequest{SQL: sql}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Exec executes statements in order. Per-statement errors are reported in
// the results when continueOnError is set.
func (c *Client) Exec(continueOnError bool, statements ...string) (*httpserver.ExecuteResponse, error) {
	req := httpserver.ExecuteRequest{ContinueOnError: continueOnError}
	for _, s := range statements {
		req.Statements = append(req.Statements, httpserver.QueryRequest{SQL: s})
	}

	var resp httpserver.ExecuteResponse
	if err := c.do(http.MethodPost, "/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tables lists the tables of the database.
func (c *Client) Tables() ([]string, error) {
	var resp struct {
		Tables []string `json:"tables"`
	}
	if err := c.do(http.MethodGet, "/schema/tables", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// Describe describes the columns of a table.
func (c *Client) Describe(table string) ([]driver.ColumnInfo, error) {
	var resp httpserver.TableResponse
	if err := c.do(http.MethodGet, "/schema/tables/"+url.PathEscape(table), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

// Cursor is a server-side select cursor.
type Cursor struct {
	c        *Client
	ID       int
	Columns  []driver.ColumnInfo
	RowCount int
}

// Open opens a cursor for a SELECT statement.
func (c *Client) Open(sql string) (*Cursor, error) {
	var resp httpserver.CursorResponse
	if err := c.do(http.MethodPost, "/cursor", httpserver.QueryRequest{SQL: sql}, &resp); err != nil {
		return nil, err
	}
	return &Cursor{c: c, ID: resp.Cursor, Columns: resp.Columns, RowCount: resp.RowCount}, nil
}

// Fetch moves the cursor to position ("next", "previous", "first", "last"
// or "current") and returns the row there. ok is false past either end.
func (cur *Cursor) Fetch(position string) (row []interface{}, ok bool, err error) {
	var resp httpserver.FetchResponse
	path := fmt.Sprintf("/cursor/%d/fetch", cur.ID)
	if err := cur.c.do(http.MethodPost, path, httpserver.FetchRequest{Position: position}, &resp); err != nil {
		return nil, false, err
	}
	return resp.Row, !resp.Done, nil
}

// Close releases the cursor on the server.
func (cur *Cursor) Close() error {
	return cur.c.do(http.MethodDelete, fmt.Sprintf("/cursor/%d", cur.ID), nil, nil)
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e httpserver.ErrorResponse
		if err := json.Unmarshal(respBody, &e); err != nil || e.Error.Code == "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return &Error{Status: resp.StatusCode, ErrorDetail: e.Error}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
