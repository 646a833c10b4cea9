package driver

import "github.com/danfragoso/dbfsql/pkg/storage"

// SQL type names reported for DBF column types.
const (
	TypeCharacter = "CHARACTER"
	TypeInteger   = "INTEGER"
	TypeDouble    = "DOUBLE PRECISION"
)

func describe(t *storage.Table, cols []storage.Column) []ColumnInfo {
	infos := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		info := ColumnInfo{
			Name:       c.Name,
			Length:     c.Width,
			Nullable:   true,
			SelectPriv: t.Read,
			UpdatePriv: t.Write,
		}
		switch c.Type {
		case storage.ColChar:
			info.SQLType = TypeCharacter
		case storage.ColInt:
			info.SQLType = TypeInteger
		case storage.ColDouble:
			info.SQLType = TypeDouble
			info.Precision = c.Width
			info.Scale = c.Decimals
		}
		infos[i] = info
	}
	return infos
}
