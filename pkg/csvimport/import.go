// Package csvimport loads CSV records into a table as INSERT statements.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/storage"
)

// Target runs statements against a database. *driver.Driver implements it.
type Target interface {
	Execute(sql string) (*executor.Result, error)
	DescribeTable(name string) ([]driver.ColumnInfo, error)
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	TableName    string            // Target table name (required)
	HasHeader    bool              // First row is header (default: true)
	CreateTable  bool              // Create table if not exists
	IgnoreErrors bool              // Continue on row errors
	NullValue    string            // String that represents NULL (default: "")
	Delimiter    rune              // CSV delimiter (default: ',')
	ColumnTypes  map[string]string // Explicit column types for table creation
}

// DefaultImportOptions returns sensible defaults
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		HasHeader:   true,
		NullValue:   "",
		Delimiter:   ',',
		ColumnTypes: make(map[string]string),
	}
}

// ImportResult contains import statistics
type ImportResult struct {
	RowsImported int64    `json:"rowsImported"`
	RowsSkipped  int64    `json:"rowsSkipped"`
	TableCreated bool     `json:"tableCreated"`
	Errors       []string `json:"errors,omitempty"`
}

// ImportCSV imports CSV data into a table
func ImportCSV(r io.Reader, target Target, opts ImportOptions) (*ImportResult, error) {
	if opts.TableName == "" {
		return nil, fmt.Errorf("table name is required for CSV import")
	}

	result := &ImportResult{}

	csvReader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		csvReader.Comma = opts.Delimiter
	}
	csvReader.FieldsPerRecord = -1 // Allow variable field count

	records, err := csvReader.ReadAll()
	if err != nil {
		return result, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) == 0 {
		return result, nil
	}

	var columnNames []string
	startRow := 0

	if opts.HasHeader {
		for _, name := range records[0] {
			columnNames = append(columnNames, strings.TrimSpace(name))
		}
		startRow = 1
	} else {
		for i := range records[0] {
			columnNames = append(columnNames, fmt.Sprintf("column%d", i+1))
		}
	}

	columns, err := target.DescribeTable(opts.TableName)
	if err != nil {
		if !opts.CreateTable {
			return result, fmt.Errorf("table %s does not exist (use CreateTable option to auto-create): %w", opts.TableName, err)
		}

		create := createTableSQL(opts.TableName, columnNames, records[startRow:], opts.ColumnTypes)
		if _, err := target.Execute(create); err != nil {
			return result, fmt.Errorf("failed to create table %s: %w", opts.TableName, err)
		}
		result.TableCreated = true

		if columns, err = target.DescribeTable(opts.TableName); err != nil {
			return result, err
		}
	}

	// Map each CSV column onto its table column.
	types := make([]string, len(columnNames))
	for i, name := range columnNames {
		found := false
		for _, col := range columns {
			if strings.EqualFold(col.Name, name) {
				types[i] = col.SQLType
				found = true
				break
			}
		}
		if !found {
			return result, fmt.Errorf("column %s not found in table %s", name, opts.TableName)
		}
	}

	quoted := make([]string, len(columnNames))
	for i, name := range columnNames {
		quoted[i] = parser.QuoteIdent(name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", parser.QuoteIdent(opts.TableName), strings.Join(quoted, ", "))

	for i := startRow; i < len(records); i++ {
		record := records[i]
		literals := make([]string, len(columnNames))

		var rowErr error
		for j := range columnNames {
			if j >= len(record) || record[j] == opts.NullValue {
				literals[j] = "NULL"
				continue
			}
			lit, err := literal(record[j], types[j])
			if err != nil {
				rowErr = fmt.Errorf("row %d, column %s: %w", i+1, columnNames[j], err)
				break
			}
			literals[j] = lit
		}

		if rowErr == nil {
			_, rowErr = target.Execute(prefix + strings.Join(literals, ", ") + ")")
			if rowErr != nil {
				rowErr = fmt.Errorf("failed to insert row %d: %w", i+1, rowErr)
			}
		}

		if rowErr != nil {
			if !opts.IgnoreErrors {
				return result, rowErr
			}
			result.Errors = append(result.Errors, rowErr.Error())
			result.RowsSkipped++
			continue
		}
		result.RowsImported++
	}

	return result, nil
}

// createTableSQL builds a CREATE TABLE statement with types inferred from
// sample data.
func createTableSQL(tableName string, columnNames []string, sampleData [][]string, explicitTypes map[string]string) string {
	defs := make([]string, len(columnNames))

	for i, name := range columnNames {
		colType, ok := explicitTypes[name]
		if !ok {
			colType = inferColumnType(sampleData, i)
		}
		defs[i] = parser.QuoteIdent(name) + " " + colType
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", parser.QuoteIdent(tableName), strings.Join(defs, ", "))
}

// inferColumnType infers the column type from sample data
func inferColumnType(sampleData [][]string, colIndex int) string {
	allInts := true
	allFloats := true
	hasData := false
	width := 1

	for _, row := range sampleData {
		if colIndex >= len(row) {
			continue
		}

		width = max(width, len(row[colIndex]))

		value := strings.TrimSpace(row[colIndex])
		if value == "" {
			continue // Skip empty values for type inference
		}

		hasData = true

		if _, err := strconv.ParseInt(value, 10, 32); err != nil {
			allInts = false
		}

		if _, err := strconv.ParseFloat(value, 64); err != nil {
			allFloats = false
		}
	}

	switch {
	case hasData && allInts:
		return "INTEGER"
	case hasData && allFloats:
		return "DOUBLE PRECISION"
	}
	return fmt.Sprintf("VARCHAR(%d)", min(width, storage.MaxFieldWidth))
}

// literal renders a CSV field as a SQL literal for a column of sqlType.
func literal(field string, sqlType string) (string, error) {
	switch sqlType {
	case driver.TypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer value: %s", field)
		}
		return strconv.FormatInt(i, 10), nil

	case driver.TypeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", fmt.Errorf("invalid float value: %s", field)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil

	default:
		return parser.QuoteString(field), nil
	}
}
