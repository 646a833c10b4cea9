package value

// Type is the static type of a value or expression.
type Type int

const (
	TypeNull    Type = iota // NULL literal, result unknown for every row
	TypeString              // CHAR columns and string literals
	TypeInteger             // INT columns and integer literals
	TypeDouble              // DOUBLE columns and float literals
	TypeBool                // result of a comparison or logical operator
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeString:
		return "STRING"
	case TypeInteger:
		return "INTEGER"
	case TypeDouble:
		return "DOUBLE"
	case TypeBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric returns true for INTEGER and DOUBLE.
func (t Type) IsNumeric() bool {
	return t == TypeInteger || t == TypeDouble
}
