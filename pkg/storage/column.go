package storage

import (
	"fmt"

	"github.com/danfragoso/dbfsql/pkg/value"
)

// MaxColumnName is the longest column name a DBF field descriptor holds.
const MaxColumnName = 10

// MaxFieldWidth is the widest field a DBF field descriptor holds.
const MaxFieldWidth = 255

// ColumnType is the storage type of a column.
type ColumnType int

const (
	ColChar ColumnType = iota
	ColInt
	ColDouble
)

func (t ColumnType) String() string {
	switch t {
	case ColChar:
		return "CHAR"
	case ColInt:
		return "INT"
	case ColDouble:
		return "DOUBLE"
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ValueType returns the value type stored in columns of type t.
func (t ColumnType) ValueType() value.Type {
	switch t {
	case ColInt:
		return value.TypeInteger
	case ColDouble:
		return value.TypeDouble
	default:
		return value.TypeString
	}
}

// Column describes one field of a table.
type Column struct {
	Name     string
	Type     ColumnType
	Width    int
	Decimals int
}

func (c Column) String() string {
	if c.Type == ColDouble {
		return fmt.Sprintf("%s %s(%d,%d)", c.Name, c.Type, c.Width, c.Decimals)
	}
	return fmt.Sprintf("%s %s(%d)", c.Name, c.Type, c.Width)
}
