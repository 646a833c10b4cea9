// Package sqlexport dumps tables as SQL statements that recreate them.
package sqlexport

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Source describes tables and reads them through cursors.
// *driver.Driver implements it.
type Source interface {
	ListTables() []string
	DescribeTable(name string) ([]driver.ColumnInfo, error)
	OpenSelectCursor(sql string) (driver.Token, []driver.ColumnInfo, error)
	Fetch(tok driver.Token, pos executor.Position) ([]value.Value, bool, error)
	CloseCursor(tok driver.Token) error
}

// ExportOptions configures export behavior.
type ExportOptions struct {
	Tables      []string // Specific tables to export (empty = all tables)
	IncludeData bool     // Include INSERT statements (default: true)
	DropTables  bool     // Add DROP TABLE before CREATE
	Database    string   // Name written in the header comment
}

// DefaultExportOptions returns sensible defaults.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Tables:      nil,
		IncludeData: true,
		DropTables:  false,
	}
}

// ExportDatabase exports an entire database to SQL text.
func ExportDatabase(src Source, opts ExportOptions) (string, error) {
	var sb strings.Builder

	sb.WriteString("-- DBF SQL Export\n")
	if opts.Database != "" {
		sb.WriteString(fmt.Sprintf("-- Database: %s\n", opts.Database))
	}
	sb.WriteString(fmt.Sprintf("-- Date: %s\n", time.Now().UTC().Format(time.RFC3339)))
	sb.WriteString("\n")

	tables := opts.Tables
	if len(tables) == 0 {
		tables = src.ListTables()
	}

	// Sort tables for consistent output
	sort.Strings(tables)

	for i, tableName := range tables {
		tableSQL, err := ExportTable(src, tableName, opts)
		if err != nil {
			return "", fmt.Errorf("failed to export table %s: %w", tableName, err)
		}

		sb.WriteString(tableSQL)

		if i < len(tables)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// ExportTable exports a single table to SQL text.
func ExportTable(src Source, tableName string, opts ExportOptions) (string, error) {
	var sb strings.Builder

	columns, err := src.DescribeTable(tableName)
	if err != nil {
		return "", fmt.Errorf("failed to describe table %s: %w", tableName, err)
	}

	if opts.DropTables {
		sb.WriteString(fmt.Sprintf("DROP TABLE %s;\n", parser.QuoteIdent(tableName)))
	}

	sb.WriteString(generateCreateTable(tableName, columns))
	sb.WriteString("\n")

	if opts.IncludeData {
		inserts, err := generateInserts(src, tableName, columns)
		if err != nil {
			return "", fmt.Errorf("failed to select data from table %s: %w", tableName, err)
		}

		if inserts != "" {
			sb.WriteString("\n")
			sb.WriteString(inserts)
		}
	}

	return sb.String(), nil
}

// generateCreateTable generates a CREATE TABLE statement.
func generateCreateTable(tableName string, columns []driver.ColumnInfo) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", parser.QuoteIdent(tableName)))

	for i, col := range columns {
		sb.WriteString("    ")
		sb.WriteString(parser.QuoteIdent(col.Name))
		sb.WriteString(" ")
		sb.WriteString(sqlType(col))

		if i < len(columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(");")

	return sb.String()
}

// sqlType maps a described column back onto a CREATE TABLE type.
func sqlType(col driver.ColumnInfo) string {
	switch col.SQLType {
	case driver.TypeCharacter:
		return fmt.Sprintf("VARCHAR(%d)", col.Length)
	default:
		return col.SQLType
	}
}

// generateInserts generates one INSERT statement per live row.
func generateInserts(src Source, tableName string, columns []driver.ColumnInfo) (string, error) {
	tok, _, err := src.OpenSelectCursor("SELECT * FROM " + parser.QuoteIdent(tableName))
	if err != nil {
		return "", err
	}
	defer src.CloseCursor(tok)

	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = parser.QuoteIdent(col.Name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", parser.QuoteIdent(tableName), strings.Join(names, ", "))

	var sb strings.Builder
	for {
		vals, ok, err := src.Fetch(tok, executor.Next)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}

		sb.WriteString(prefix)
		for i, v := range vals {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatValue(v))
		}
		sb.WriteString(");\n")
	}

	return sb.String(), nil
}

// formatValue formats a value as a SQL literal.
func formatValue(v value.Value) string {
	if value.IsNull(v) {
		return "NULL"
	}
	return parser.FormatLiteral(v)
}
