package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/value"
)

func newTable(t *testing.T, cols ...Column) *Table {
	t.Helper()
	tbl := &Table{Name: "t", Alive: true, Read: true, Write: true, Described: true, Loaded: true}
	for _, c := range cols {
		require.NoError(t, tbl.AddColumn(c.Name, c.Type, c.Width, c.Decimals))
	}
	return tbl
}

func TestAddColumnFindColumn(t *testing.T) {
	tbl := newTable(t)

	require.NoError(t, tbl.AddColumn("Name", ColChar, 20, 0))
	require.NoError(t, tbl.AddColumn("age", ColInt, 11, 0))

	assert.Equal(t, 0, tbl.FindColumn("name"))
	assert.Equal(t, 0, tbl.FindColumn("NAME"))
	assert.Equal(t, 1, tbl.FindColumn("Age"))
	assert.Equal(t, -1, tbl.FindColumn("missing"))
}

func TestAddColumnDuplicate(t *testing.T) {
	tbl := newTable(t, Column{Name: "id", Type: ColInt, Width: 11})

	err := tbl.AddColumn("ID", ColChar, 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerr.DuplicateColumn)
	assert.Len(t, tbl.Columns, 1)
}

func TestAddColumnTruncatesLongNames(t *testing.T) {
	tbl := newTable(t)

	require.NoError(t, tbl.AddColumn("description", ColChar, 40, 0))
	assert.Equal(t, "descriptio", tbl.Columns[0].Name)

	err := tbl.AddColumn("descriptionx", ColChar, 40, 0)
	assert.ErrorIs(t, err, sqlerr.DuplicateColumn)
}

func TestDropColumn(t *testing.T) {
	tbl := newTable(t,
		Column{Name: "a", Type: ColInt, Width: 11},
		Column{Name: "b", Type: ColChar, Width: 10},
		Column{Name: "c", Type: ColDouble, Width: 20, Decimals: 6},
	)
	idx := tbl.AddRow()
	tbl.Rows[idx].Values = []value.Value{value.Integer(1), value.String("x"), value.Double(2.5)}

	require.NoError(t, tbl.DropColumn("B"))

	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, "a", tbl.Columns[0].Name)
	assert.Equal(t, "c", tbl.Columns[1].Name)
	assert.Equal(t, []value.Value{value.Integer(1), value.Double(2.5)}, tbl.Rows[0].Values)
}

func TestDropColumnRestoresSchema(t *testing.T) {
	tbl := newTable(t,
		Column{Name: "a", Type: ColInt, Width: 11},
		Column{Name: "b", Type: ColInt, Width: 11},
	)
	before := append([]Column(nil), tbl.Columns...)

	require.NoError(t, tbl.AddColumn("extra", ColChar, 5, 0))
	require.NoError(t, tbl.DropColumn("extra"))

	assert.Equal(t, before, tbl.Columns)
}

func TestDropColumnNotFound(t *testing.T) {
	tbl := newTable(t, Column{Name: "a", Type: ColInt, Width: 11})

	err := tbl.DropColumn("zzz")
	assert.ErrorIs(t, err, sqlerr.ColumnNotFound)
}

func TestAddRow(t *testing.T) {
	tbl := newTable(t,
		Column{Name: "a", Type: ColInt, Width: 11},
		Column{Name: "b", Type: ColChar, Width: 10},
	)

	idx := tbl.AddRow()
	assert.Equal(t, 0, idx)
	assert.True(t, tbl.Rows[0].Alive)
	for _, v := range tbl.Rows[0].Values {
		assert.True(t, value.IsNull(v))
	}

	tbl.AddRow()
	tbl.Rows[0].Alive = false
	assert.Equal(t, 1, tbl.AliveRows())
}

func TestSaveSkipsUnmodified(t *testing.T) {
	path := t.TempDir() + "/never.dbf"
	tbl := &Table{Name: "never", File: path, Alive: true, Loaded: true}

	require.NoError(t, tbl.Save())
	assert.NoFileExists(t, path)
}
