package sqlerr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsKind(t *testing.T) {
	err := New(TableNotFound, "Table '%s' doesn't exist.", "roads")

	assert.True(t, errors.Is(err, TableNotFound))
	assert.False(t, errors.Is(err, ColumnNotFound))
	assert.Equal(t, "Table 'roads' doesn't exist.", err.Error())
}

func TestWrappedKind(t *testing.T) {
	inner := New(DivisionByZero, "Division by zero")
	outer := fmt.Errorf("evaluating WHERE: %w", inner)

	assert.True(t, errors.Is(outer, DivisionByZero))
	assert.Equal(t, DivisionByZero, KindOf(outer))
}

func TestWrapCause(t *testing.T) {
	err := Wrap(IO, os.ErrNotExist, "cannot load table %s", "t")

	assert.True(t, errors.Is(err, IO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "cannot load table t")
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "type mismatch", TypeMismatch.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
