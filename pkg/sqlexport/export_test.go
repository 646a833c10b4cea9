package sqlexport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danfragoso/dbfsql/pkg/driver"
)

func openDriver(t *testing.T, sqls ...string) *driver.Driver {
	t.Helper()
	d, err := driver.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	for _, sql := range sqls {
		_, err := d.Execute(sql)
		require.NoError(t, err, sql)
	}
	return d
}

func TestExportTable(t *testing.T) {
	d := openDriver(t,
		"CREATE TABLE soils (id INTEGER, kind VARCHAR(8), ph DOUBLE, \"date\" DATE)",
		"INSERT INTO soils VALUES (1, 'clay', 6.5, '2001-02-03')",
		"INSERT INTO soils VALUES (2, 'o''hare', NULL, NULL)",
		"INSERT INTO soils VALUES (3, 'sand', 7, NULL)",
		"DELETE FROM soils WHERE id = 3",
	)

	opts := DefaultExportOptions()
	opts.DropTables = true
	out, err := ExportTable(d, "soils", opts)
	require.NoError(t, err)

	expected := `DROP TABLE soils;
CREATE TABLE soils (
    id INTEGER,
    kind VARCHAR(8),
    ph DOUBLE PRECISION,
    "date" VARCHAR(10)
);

INSERT INTO soils (id, kind, ph, "date") VALUES (1, 'clay', 6.5, '2001-02-03');
INSERT INTO soils (id, kind, ph, "date") VALUES (2, 'o''hare', NULL, NULL);
`
	assert.Equal(t, expected, out)
	assert.Equal(t, 0, d.OpenCursors())
}

func TestExportSchemaOnly(t *testing.T) {
	d := openDriver(t,
		"CREATE TABLE t (a INTEGER)",
		"INSERT INTO t VALUES (1)",
	)

	out, err := ExportTable(d, "t", ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (\n    a INTEGER\n);\n", out)

	_, err = ExportTable(d, "missing", ExportOptions{})
	assert.Error(t, err)
}

func TestExportDatabaseRoundTrip(t *testing.T) {
	src := openDriver(t,
		"CREATE TABLE roads (cat INTEGER, name VARCHAR(20))",
		"CREATE TABLE areas (cat INTEGER, size DOUBLE)",
		"INSERT INTO roads VALUES (1, 'Main St')",
		"INSERT INTO areas VALUES (1, 2.25)",
		"INSERT INTO areas VALUES (2, -0.5)",
	)

	opts := DefaultExportOptions()
	opts.Database = "demo"
	dump, err := ExportDatabase(src, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dump, "-- DBF SQL Export\n-- Database: demo\n"))
	assert.Less(t, strings.Index(dump, "CREATE TABLE areas"), strings.Index(dump, "CREATE TABLE roads"))

	dst := openDriver(t)
	for _, stmt := range strings.Split(dump, ";\n") {
		stmt = strings.TrimSpace(stmt)
		lines := strings.Split(stmt, "\n")
		for len(lines) > 0 && strings.HasPrefix(lines[0], "--") {
			lines = lines[1:]
		}
		stmt = strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt == "" {
			continue
		}
		_, err := dst.Execute(strings.TrimSuffix(stmt, ";"))
		require.NoError(t, err, stmt)
	}

	res, err := dst.Execute("SELECT cat, size FROM areas ORDER BY cat")
	require.NoError(t, err)
	want, err := src.Execute("SELECT cat, size FROM areas ORDER BY cat")
	require.NoError(t, err)
	assert.Equal(t, want.Rows, res.Rows)
}
