// Package csvexport writes query results as CSV.
package csvexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Source opens and reads select cursors. *driver.Driver implements it.
type Source interface {
	OpenSelectCursor(sql string) (driver.Token, []driver.ColumnInfo, error)
	Fetch(tok driver.Token, pos executor.Position) ([]value.Value, bool, error)
	CloseCursor(tok driver.Token) error
	ListTables() []string
}

// ExportOptions configures CSV export behavior
type ExportOptions struct {
	Table         string // Table to export; ignored when Query is set
	Query         string // SELECT statement to export instead of a whole table
	IncludeHeader bool   // Include column names as first row (default: true)
	NullValue     string // String representation of NULL (default: "")
	Delimiter     rune   // CSV delimiter (default: ',')
}

// DefaultExportOptions returns sensible defaults
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeHeader: true,
		NullValue:     "",
		Delimiter:     ',',
	}
}

// ExportTable writes one record per row fetched by the export's cursor.
func ExportTable(w io.Writer, src Source, opts ExportOptions) error {
	sql := opts.Query
	if sql == "" {
		if opts.Table == "" {
			return fmt.Errorf("table name is required for CSV export")
		}
		sql = "SELECT * FROM " + parser.QuoteIdent(opts.Table)
	}

	tok, cols, err := src.OpenSelectCursor(sql)
	if err != nil {
		return fmt.Errorf("failed to open cursor for %q: %w", sql, err)
	}
	defer src.CloseCursor(tok)

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}
	defer csvWriter.Flush()

	if opts.IncludeHeader {
		header := make([]string, len(cols))
		for i, col := range cols {
			header[i] = col.Name
		}
		if err := csvWriter.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for {
		vals, ok, err := src.Fetch(tok, executor.Next)
		if err != nil {
			return fmt.Errorf("failed to fetch row: %w", err)
		}
		if !ok {
			break
		}
		record := make([]string, len(vals))
		for i, v := range vals {
			record[i] = formatValue(v, opts.NullValue)
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportTableToBytes exports a single table and returns bytes
func ExportTableToBytes(src Source, opts ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := ExportTable(&buf, src, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportMultipleTables exports multiple tables as a map of table name to CSV bytes
func ExportMultipleTables(src Source, tables []string, opts ExportOptions) (map[string][]byte, error) {
	if len(tables) == 0 {
		tables = src.ListTables()
		sort.Strings(tables)
	}

	result := make(map[string][]byte)
	for _, tableName := range tables {
		tableOpts := opts
		tableOpts.Table = tableName
		tableOpts.Query = ""
		data, err := ExportTableToBytes(src, tableOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to export table %s: %w", tableName, err)
		}
		result[tableName] = data
	}

	return result, nil
}

// formatValue converts a value to its CSV string representation
func formatValue(v value.Value, nullValue string) string {
	switch x := v.(type) {
	case nil, value.Null:
		return nullValue
	case value.Double:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	default:
		return v.String()
	}
}
