package executor

import (
	"fmt"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/value"
)

// Result represents the result of executing a SQL statement.
type Result struct {
	Columns      []string        // Column names
	ColumnTypes  []string        // Column storage types
	Rows         [][]value.Value // Row data
	RowCount     int             // Number of affected/returned rows
	RowsAffected int64           // Number of rows affected (for INSERT/UPDATE/DELETE)
	CommandTag   string          // Command type (SELECT, INSERT, UPDATE, DELETE, etc.)

	// Cursor is the open cursor of a SELECT, already read to the end
	// when Rows was filled.
	Cursor *Cursor
}

// NewResult creates a new empty result.
func NewResult(tag string) *Result {
	return &Result{
		CommandTag: tag,
		Rows:       make([][]value.Value, 0),
	}
}

// AddColumnWithType adds a column with its type to the result.
func (r *Result) AddColumnWithType(name, colType string) {
	r.Columns = append(r.Columns, name)
	r.ColumnTypes = append(r.ColumnTypes, colType)
}

// AddRow adds a row to the result.
func (r *Result) AddRow(values ...value.Value) {
	r.Rows = append(r.Rows, values)
	r.RowCount = len(r.Rows)
}

// SetRowCount sets the row count (for non-SELECT queries).
func (r *Result) SetRowCount(count int) {
	r.RowCount = count
	r.RowsAffected = int64(count)
}

// GetColumnType returns the type for a column index.
func (r *Result) GetColumnType(idx int) string {
	if idx < len(r.ColumnTypes) {
		return r.ColumnTypes[idx]
	}
	return ""
}

// String returns a string representation of the result.
func (r *Result) String() string {
	var sb strings.Builder

	if len(r.Columns) > 0 {
		widths := make([]int, len(r.Columns))
		for i, col := range r.Columns {
			widths[i] = len(col)
		}
		for _, row := range r.Rows {
			for i, val := range row {
				if i < len(widths) && len(val.String()) > widths[i] {
					widths[i] = len(val.String())
				}
			}
		}

		for i, col := range r.Columns {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(padRight(col, widths[i]))
		}
		sb.WriteString("\n")

		for i, w := range widths {
			if i > 0 {
				sb.WriteString("-+-")
			}
			sb.WriteString(strings.Repeat("-", w))
		}
		sb.WriteString("\n")

		for _, row := range r.Rows {
			for i, val := range row {
				if i > 0 {
					sb.WriteString(" | ")
				}
				if i < len(widths) {
					sb.WriteString(padRight(val.String(), widths[i]))
				}
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(fmt.Sprintf("(%d row", r.RowCount))
	if r.RowCount != 1 {
		sb.WriteString("s")
	}
	sb.WriteString(")\n")

	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// ToMaps converts the result to a slice of maps of native Go values.
func (r *Result) ToMaps() []map[string]any {
	result := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			if j < len(row) {
				m[col] = value.Native(row[j])
			}
		}
		result[i] = m
	}
	return result
}

// NativeRows converts every row to native Go values.
func (r *Result) NativeRows() [][]any {
	rows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = make([]any, len(row))
		for j, v := range row {
			rows[i][j] = value.Native(v)
		}
	}
	return rows
}
