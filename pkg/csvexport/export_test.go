package csvexport

import (
	"bytes"
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

func seeded(t *testing.T) *driver.Driver {
	return openDriver(t,
		"CREATE TABLE wells (id INTEGER, name VARCHAR(12), depth DOUBLE)",
		"INSERT INTO wells VALUES (1, 'north, old', 120.5)",
		"INSERT INTO wells VALUES (2, 'south', NULL)",
		"INSERT INTO wells VALUES (3, 'east', 7)",
	)
}

func TestExportTable(t *testing.T) {
	d := seeded(t)

	var buf bytes.Buffer
	opts := DefaultExportOptions()
	opts.Table = "wells"
	require.NoError(t, ExportTable(&buf, d, opts))

	assert.Equal(t, "id,name,depth\n1,\"north, old\",120.5\n2,south,\n3,east,7\n", buf.String())
	assert.Equal(t, 0, d.OpenCursors())
}

func TestExportOptions(t *testing.T) {
	d := seeded(t)

	tests := []struct {
		name     string
		opts     ExportOptions
		expected string
	}{
		{
			name:     "null marker and delimiter",
			opts:     ExportOptions{Table: "wells", IncludeHeader: true, NullValue: "NULL", Delimiter: ';'},
			expected: "id;name;depth\n1;north, old;120.5\n2;south;NULL\n3;east;7\n",
		},
		{
			name:     "query without header",
			opts:     ExportOptions{Query: "SELECT name, id FROM wells WHERE id > 1 ORDER BY id DESC"},
			expected: "east,3\nsouth,2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ExportTableToBytes(d, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestExportErrors(t *testing.T) {
	d := seeded(t)

	var buf bytes.Buffer
	assert.Error(t, ExportTable(&buf, d, DefaultExportOptions()))

	opts := DefaultExportOptions()
	opts.Table = "missing"
	assert.Error(t, ExportTable(&buf, d, opts))
}

func TestExportMultipleTables(t *testing.T) {
	d := openDriver(t,
		"CREATE TABLE b (x INTEGER)",
		"CREATE TABLE a (y VARCHAR(3))",
		"INSERT INTO a VALUES ('q')",
	)

	out, err := ExportMultipleTables(d, nil, DefaultExportOptions())
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"a": []byte("y\nq\n"),
		"b": []byte("x\n"),
	}, out)
}
