package analyzer

import (
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Storage geometry for SQL types without a declared width.
const (
	IntWidth       = 11
	DateWidth      = 10
	DoubleWidth    = 20
	DoubleDecimals = 6
)

// ColumnFor maps a SQL column definition to its DBF column.
// DATE has no DBF counterpart here and is stored as text.
func ColumnFor(def parser.ColumnDef) storage.Column {
	col := storage.Column{Name: def.Name}

	switch def.Type.Type {
	case parser.SQLInteger:
		col.Type = storage.ColInt
		col.Width = IntWidth
	case parser.SQLVarchar:
		col.Type = storage.ColChar
		col.Width = def.Type.Width
	case parser.SQLDate:
		col.Type = storage.ColChar
		col.Width = DateWidth
	case parser.SQLDouble:
		col.Type = storage.ColDouble
		col.Width = DoubleWidth
		col.Decimals = DoubleDecimals
	}
	return col
}

// LiteralCompatible reports whether a literal of type lit may be stored
// in a column of type col.
func LiteralCompatible(col storage.ColumnType, lit value.Type) bool {
	switch col {
	case storage.ColInt:
		return lit == value.TypeInteger
	case storage.ColDouble:
		return lit != value.TypeString
	case storage.ColChar:
		return lit == value.TypeString
	}
	return false
}
