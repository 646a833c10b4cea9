// Package sqlimport runs SQL scripts statement by statement.
package sqlimport

import (
	"fmt"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/parser"
)

// Target executes single statements. *driver.Driver implements it.
type Target interface {
	Execute(sql string) (*executor.Result, error)
}

// ImportOptions configures import behavior.
type ImportOptions struct {
	ContinueOnError bool // Continue on individual statement errors
}

// DefaultImportOptions returns sensible defaults.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		ContinueOnError: false,
	}
}

// ImportResult contains the results of an import operation.
type ImportResult struct {
	StatementsExecuted int      `json:"statementsExecuted"`
	TablesCreated      []string `json:"tablesCreated"`
	TablesDropped      []string `json:"tablesDropped"`
	RowsInserted       int64    `json:"rowsInserted"`
	Errors             []string `json:"errors,omitempty"`
}

// ImportSQL executes SQL statements from text in order.
func ImportSQL(target Target, sql string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		TablesCreated: []string{},
		TablesDropped: []string{},
		Errors:        []string{},
	}

	for _, stmtSQL := range splitStatements(sql) {
		err := executeStatement(target, stmtSQL, result)
		if err != nil {
			errMsg := fmt.Sprintf("Error executing statement: %s - %v", truncateSQL(stmtSQL), err)
			result.Errors = append(result.Errors, errMsg)

			if !opts.ContinueOnError {
				return result, fmt.Errorf("import failed: %w", err)
			}
		} else {
			result.StatementsExecuted++
		}
	}

	return result, nil
}

// executeStatement executes a single SQL statement and records its effect.
func executeStatement(target Target, sql string, result *ImportResult) error {
	stmt, err := parser.ParseSQL(sql)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	execResult, err := target.Execute(sql)
	if err != nil {
		return fmt.Errorf("execution error: %w", err)
	}

	switch stmt.Command() {
	case parser.CmdCreate:
		result.TablesCreated = append(result.TablesCreated, stmt.TableName())
	case parser.CmdDrop:
		result.TablesDropped = append(result.TablesDropped, stmt.TableName())
	case parser.CmdInsert:
		result.RowsInserted += execResult.RowsAffected
	}

	return nil
}

// splitStatements splits SQL text into individual statements.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		// Handle string literals
		if (c == '\'' || c == '"') && !inString {
			inString = true
			stringChar = c
			current.WriteByte(c)
			continue
		}

		if inString {
			current.WriteByte(c)
			// Check for escape (doubled quote)
			if c == stringChar {
				if i+1 < len(sql) && sql[i+1] == stringChar {
					// Escaped quote - write next char and skip
					i++
					current.WriteByte(sql[i])
				} else {
					// End of string
					inString = false
					stringChar = 0
				}
			}
			continue
		}

		// Handle statement terminator
		if c == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		// Handle single-line comments
		if c == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			// Skip to end of line
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		// Handle block comments
		if c == '/' && i+1 < len(sql) && sql[i+1] == '*' {
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 3
			current.WriteByte(' ')
			continue
		}

		current.WriteByte(c)
	}

	// Don't forget the last statement if no trailing semicolon
	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncateSQL truncates SQL for error messages.
func truncateSQL(sql string) string {
	sql = strings.ReplaceAll(sql, "\n", " ")
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > 50 {
		return sql[:50] + "..."
	}
	return sql
}
