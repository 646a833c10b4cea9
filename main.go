package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danfragoso/dbfsql/pkg/csvexport"
	"github.com/danfragoso/dbfsql/pkg/csvimport"
	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/httpserver"
	"github.com/danfragoso/dbfsql/pkg/lexer"
	"github.com/danfragoso/dbfsql/pkg/logging"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlexport"
	"github.com/danfragoso/dbfsql/pkg/sqlimport"
)

var (
	database = flag.String("db", ".", "Database directory holding the .dbf files ($VARS are expanded)")
	execSQL  = flag.String("e", "", "Execute the given statements and exit")
	explain  = flag.Bool("explain", false, "Print the parsed statement tree instead of executing")
	plain    = flag.Bool("plain", false, "Print SELECT results as unstyled aligned text")

	logLevel  = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	logFormat = flag.String("log-format", "text", "Log format: text or json")
	logFile   = flag.String("log-file", "", "Write logs to this file instead of stderr")

	httpEnable = flag.Bool("http", false, "Enable HTTP server")
	httpHost   = flag.String("http-host", "localhost", "HTTP server host")
	httpPort   = flag.Int("http-port", 8080, "HTTP server port")
	httpCORS   = flag.Bool("cors", true, "Enable CORS")
	httpAuth   = flag.Bool("http-auth", false, "Enable authentication")
	apiKeys    = flag.String("api-keys", "", "Comma-separated API keys")
	tlsCert    = flag.String("tls-cert", "", "TLS certificate file (serves HTTPS together with -tls-key)")
	tlsKey     = flag.String("tls-key", "", "TLS private key file")

	// Export/Import flags
	exportFile   = flag.String("export", "", "Output file for export")
	importFile   = flag.String("import", "", "Input file for import")
	exportTable  = flag.String("table", "", "Specific table to export/import (empty = all for SQL export)")
	exportDrop   = flag.Bool("drop", false, "Include DROP TABLE statements in export")
	ignoreErrors = flag.Bool("ignore-errors", false, "Continue import on errors")
	exportFormat = flag.String("format", "", "Export/import format: sql, csv (auto-detect from extension)")
	createTable  = flag.Bool("create-table", false, "Create table if not exists (CSV import)")
	nullValue    = flag.String("null", "", "CSV representation of NULL")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		printError(err)
		return 2
	}
	if err := logging.Init(logging.Config{Level: level, OutputPath: *logFile, Format: *logFormat}); err != nil {
		printError(err)
		return 1
	}
	defer logging.Close()

	// Explaining only parses, so no database is opened.
	if *explain {
		return runExplain()
	}

	drv, err := driver.Open(*database)
	if err != nil {
		printError(fmt.Errorf("cannot open database %s: %w", *database, err))
		return 1
	}
	defer func() {
		if err := drv.Close(); err != nil {
			printError(err)
		}
	}()

	switch {
	case *httpEnable:
		return runHTTPServer(drv)
	case *exportFile != "":
		return runExport(drv)
	case *importFile != "":
		return runImport(drv)
	case *execSQL != "":
		return runScript(drv, strings.NewReader(*execSQL))
	case len(flag.Args()) > 0:
		return runScript(drv, strings.NewReader(strings.Join(flag.Args(), " ")))
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		return runScript(drv, os.Stdin)
	}

	runREPL(drv)
	return 0
}

func runExplain() int {
	sql := *execSQL
	if sql == "" {
		sql = strings.Join(flag.Args(), " ")
	}
	if sql == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			printError(err)
			return 1
		}
		sql = string(data)
	}

	stmts, err := parser.New(lexer.New(sql)).ParseMultiple()
	if err != nil {
		printError(err)
		return 1
	}
	for _, stmt := range stmts {
		fmt.Print(parser.Dump(stmt))
	}
	return 0
}

// runScript executes every ';'-terminated statement read from r. The
// trailing statement may omit its ';'. The exit code is 1 if any
// statement failed.
func runScript(drv *driver.Driver, r io.Reader) int {
	status := 0
	scanner := bufio.NewScanner(r)
	var sqlBuffer strings.Builder

	flush := func() {
		sql := strings.TrimSpace(sqlBuffer.String())
		sqlBuffer.Reset()
		if sql == "" {
			return
		}
		if err := runStatement(drv, os.Stdout, sql); err != nil {
			printError(err)
			status = 1
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		for {
			idx := statementEnd(sqlBuffer.String(), line)
			if idx < 0 {
				break
			}
			sqlBuffer.WriteString(line[:idx])
			line = strings.TrimSpace(line[idx+1:])
			flush()
		}
		if line != "" {
			sqlBuffer.WriteString(line)
			sqlBuffer.WriteString(" ")
		}
	}
	if err := scanner.Err(); err != nil {
		printError(err)
		return 1
	}
	flush()
	return status
}

// statementEnd returns the index in line of the first ';' outside a string
// literal, given the text already buffered before it, or -1.
func statementEnd(buffered, line string) int {
	inString := strings.Count(buffered, "'")%2 == 1
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				return i
			}
		}
	}
	return -1
}

func runREPL(drv *driver.Driver) {
	fmt.Println(titleStyle.Render("DBF SQL"))
	fmt.Printf("Database: %s\n", drv.Database().Path)
	fmt.Println("Type 'help' for usage, 'exit' to quit")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	var sqlBuffer strings.Builder

	for {
		if sqlBuffer.Len() == 0 {
			fmt.Print(promptStyle.Render("dbf> "))
		} else {
			fmt.Print(promptStyle.Render("  -> "))
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)

		if sqlBuffer.Len() == 0 {
			cmd, arg, _ := strings.Cut(line, " ")
			switch strings.ToLower(strings.TrimSuffix(cmd, ";")) {
			case "quit", "exit", "\\q":
				fmt.Println("Goodbye!")
				return
			case "help", "\\h":
				printHelp()
				continue
			case "tables", "\\dt":
				listTables(drv)
				continue
			case "describe", "\\d":
				describeTable(drv, strings.TrimSuffix(strings.TrimSpace(arg), ";"))
				continue
			}
		}

		switch strings.ToLower(line) {
		case "clear", "\\c":
			sqlBuffer.Reset()
			fmt.Println("Buffer cleared")
			continue
		}

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if sqlBuffer.Len() > 0 {
			sqlBuffer.WriteString(" ")
		}
		sqlBuffer.WriteString(line)

		sql := sqlBuffer.String()
		if !strings.HasSuffix(sql, ";") {
			continue
		}

		sqlBuffer.Reset()
		if err := runStatement(drv, os.Stdout, strings.TrimSuffix(sql, ";")); err != nil {
			printError(err)
		}
	}
}

// runStatement executes one statement. SELECT results are read through a
// cursor and printed as a table.
func runStatement(drv *driver.Driver, w io.Writer, sql string) error {
	stmt, err := executor.Parse(sql)
	if err != nil {
		return err
	}

	if stmt.Command() != parser.CmdSelect || *plain {
		result, err := drv.Execute(sql)
		if err != nil {
			return err
		}
		if result.Cursor != nil {
			fmt.Fprint(w, result.String())
		} else {
			fmt.Fprintln(w, statusLine(result))
		}
		return nil
	}

	tok, cols, err := drv.OpenSelectCursor(sql)
	if err != nil {
		return err
	}
	defer drv.CloseCursor(tok)

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Name
	}

	var rows [][]string
	for {
		vals, ok, err := drv.Fetch(tok, executor.Next)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = v.String()
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(w, renderTable(headers, rows))
	fmt.Fprintln(w, rowCountLine(len(rows)))
	return nil
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  help, \\h            Show this help")
	fmt.Println("  exit, \\q            Exit the program")
	fmt.Println("  tables, \\dt         List all tables")
	fmt.Println("  describe, \\d <t>    Describe the columns of a table")
	fmt.Println("  clear, \\c           Clear the input buffer")
	fmt.Println()
	fmt.Println("SQL Statements (end with semicolon):")
	fmt.Println("  SELECT cols FROM table WHERE ... ORDER BY col [ASC|DESC]")
	fmt.Println("  INSERT INTO table (cols) VALUES (...)")
	fmt.Println("  UPDATE table SET col = expr WHERE ...")
	fmt.Println("  DELETE FROM table WHERE ...")
	fmt.Println("  CREATE TABLE table (col TYPE, ...)")
	fmt.Println("  ALTER TABLE table ADD COLUMN col TYPE | DROP COLUMN col")
	fmt.Println("  DROP TABLE table")
	fmt.Println()
	fmt.Println("Export/Import:")
	fmt.Println("  dbfsql -db dir -export backup.sql                 Export database to SQL file")
	fmt.Println("  dbfsql -db dir -table roads -export roads.csv     Export table to CSV")
	fmt.Println("  dbfsql -db dir -import backup.sql -ignore-errors  Import SQL file, continue on errors")
	fmt.Println("  dbfsql -db dir -table new -import data.csv -create-table  Create table from CSV")
}

func listTables(drv *driver.Driver) {
	tables := drv.ListTables()
	if len(tables) == 0 {
		fmt.Println("No tables found")
		return
	}

	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t}
	}
	fmt.Println(renderTable([]string{"table"}, rows))
}

func describeTable(drv *driver.Driver, name string) {
	if name == "" {
		printError(fmt.Errorf("usage: describe <table>"))
		return
	}

	cols, err := drv.DescribeTable(name)
	if err != nil {
		printError(err)
		return
	}

	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{c.Name, c.SQLType, fmt.Sprint(c.Length), fmt.Sprint(c.Precision), fmt.Sprint(c.Scale)}
	}
	fmt.Println(renderTable([]string{"column", "type", "length", "precision", "scale"}, rows))
}

func runExport(drv *driver.Driver) int {
	format := strings.ToLower(*exportFormat)
	if format == "" {
		format = detectFileFormat(*exportFile)
	}

	var data []byte
	switch format {
	case "csv":
		if *exportTable == "" {
			printError(fmt.Errorf("CSV export requires -table flag"))
			return 1
		}

		csvOpts := csvexport.DefaultExportOptions()
		csvOpts.Table = *exportTable
		csvOpts.NullValue = *nullValue

		out, err := csvexport.ExportTableToBytes(drv, csvOpts)
		if err != nil {
			printError(fmt.Errorf("export failed: %w", err))
			return 1
		}
		data = out

	default:
		opts := sqlexport.DefaultExportOptions()
		opts.DropTables = *exportDrop
		opts.Database = filepath.Base(drv.Database().Path)
		if *exportTable != "" {
			opts.Tables = []string{*exportTable}
		}

		sql, err := sqlexport.ExportDatabase(drv, opts)
		if err != nil {
			printError(fmt.Errorf("export failed: %w", err))
			return 1
		}
		data = []byte(sql)
	}

	if err := os.WriteFile(*exportFile, data, 0o644); err != nil {
		printError(fmt.Errorf("failed to write file: %w", err))
		return 1
	}

	fmt.Printf("Exported to %s (%s)\n", *exportFile, format)
	return 0
}

func runImport(drv *driver.Driver) int {
	data, err := os.ReadFile(*importFile)
	if err != nil {
		printError(fmt.Errorf("failed to read file: %w", err))
		return 1
	}

	format := strings.ToLower(*exportFormat)
	if format == "" {
		format = detectFileFormat(*importFile)
	}

	switch format {
	case "csv":
		if *exportTable == "" {
			printError(fmt.Errorf("CSV import requires -table flag"))
			return 1
		}

		csvOpts := csvimport.DefaultImportOptions()
		csvOpts.TableName = *exportTable
		csvOpts.IgnoreErrors = *ignoreErrors
		csvOpts.CreateTable = *createTable
		csvOpts.NullValue = *nullValue

		result, err := csvimport.ImportCSV(strings.NewReader(string(data)), drv, csvOpts)
		if result != nil {
			printWarnings(result.Errors)
		}
		if err != nil {
			printError(fmt.Errorf("import failed: %w", err))
			return 1
		}

		fmt.Printf("CSV import completed\n")
		fmt.Printf("  Rows imported: %d\n", result.RowsImported)
		if result.RowsSkipped > 0 {
			fmt.Printf("  Rows skipped: %d\n", result.RowsSkipped)
		}
		if result.TableCreated {
			fmt.Printf("  Table created: %s\n", *exportTable)
		}

	default:
		opts := sqlimport.ImportOptions{
			ContinueOnError: *ignoreErrors,
		}

		result, err := sqlimport.ImportSQL(drv, string(data), opts)
		printWarnings(result.Errors)
		if err != nil {
			printError(fmt.Errorf("import failed: %w", err))
			return 1
		}

		fmt.Printf("Import completed\n")
		fmt.Printf("  Statements executed: %d\n", result.StatementsExecuted)
		if len(result.TablesCreated) > 0 {
			fmt.Printf("  Tables created: %s\n", strings.Join(result.TablesCreated, ", "))
		}
		if len(result.TablesDropped) > 0 {
			fmt.Printf("  Tables dropped: %s\n", strings.Join(result.TablesDropped, ", "))
		}
		fmt.Printf("  Rows inserted: %d\n", result.RowsInserted)
	}
	return 0
}

func printWarnings(errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "Errors: %d\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  - %s\n", e)
	}
}

func detectFileFormat(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return "csv"
	}
	return "sql"
}

// httpConfig builds the server configuration from the command line flags.
func httpConfig() (*httpserver.Config, error) {
	config := httpserver.DefaultConfig()
	config.Host = *httpHost
	config.Port = *httpPort
	config.EnableCORS = *httpCORS
	config.EnableAuth = *httpAuth

	if *apiKeys != "" {
		config.APIKeys = strings.Split(*apiKeys, ",")
	}

	if (*tlsCert == "") != (*tlsKey == "") {
		return nil, fmt.Errorf("-tls-cert and -tls-key must be given together")
	}
	config.TLSCertFile = *tlsCert
	config.TLSKeyFile = *tlsKey

	return config, nil
}

func runHTTPServer(drv *driver.Driver) int {
	config, err := httpConfig()
	if err != nil {
		printError(err)
		return 2
	}

	server := httpserver.New(config, drv)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	fmt.Printf("DBF SQL HTTP server started on %s\n", server.URL())
	fmt.Printf("Database: %s\n", drv.Database().Path)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST   /query                - Execute one statement")
	fmt.Println("  POST   /execute              - Batch execution")
	fmt.Println("  POST   /cursor               - Open a SELECT cursor")
	fmt.Println("  POST   /cursor/{id}/fetch    - Fetch from a cursor")
	fmt.Println("  DELETE /cursor/{id}          - Close a cursor")
	fmt.Println("  GET    /schema/tables        - List tables")
	fmt.Println("  GET    /schema/tables/{name} - Table schema")
	fmt.Println("  GET    /health               - Health check")
	fmt.Println("  GET    /stats                - Statistics")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errc:
		printError(fmt.Errorf("HTTP server error: %w", err))
		return 1
	case <-stop:
	}

	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Errorf("error during shutdown: %w", err))
	}

	fmt.Println("Server stopped")
	return 0
}
