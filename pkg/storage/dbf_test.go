package storage

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danfragoso/dbfsql/pkg/value"
)

func TestEncodeField(t *testing.T) {
	tests := []struct {
		name   string
		col    Column
		val    value.Value
		want   string
		fitted bool
	}{
		{"char padded", Column{Type: ColChar, Width: 6}, value.String("abc"), "abc   ", true},
		{"char truncated", Column{Type: ColChar, Width: 3}, value.String("hello"), "hel", true},
		{"int right aligned", Column{Type: ColInt, Width: 5}, value.Integer(42), "   42", true},
		{"negative int", Column{Type: ColInt, Width: 4}, value.Integer(-7), "  -7", true},
		{"double decimals", Column{Type: ColDouble, Width: 8, Decimals: 2}, value.Double(3.14159), "    3.14", true},
		{"int into double", Column{Type: ColDouble, Width: 6, Decimals: 1}, value.Integer(5), "   5.0", true},
		{"null blank", Column{Type: ColInt, Width: 3}, value.Null{}, "   ", true},
		{"int overflow", Column{Type: ColInt, Width: 3}, value.Integer(123456), "***", false},
		{"double overflow", Column{Type: ColDouble, Width: 4, Decimals: 2}, value.Double(123.0), "****", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := encodeField(tt.col, tt.val)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.fitted, ok)
		})
	}
}

func TestDecodeField(t *testing.T) {
	tests := []struct {
		name  string
		col   Column
		field string
		want  value.Value
	}{
		{"char keeps leading space", Column{Type: ColChar, Width: 6}, " ab   ", value.String(" ab")},
		{"blank char is null", Column{Type: ColChar, Width: 4}, "    ", value.Null{}},
		{"int", Column{Type: ColInt, Width: 5}, "  -12", value.Integer(-12)},
		{"int from decimal text", Column{Type: ColInt, Width: 5}, "  3.0", value.Integer(3)},
		{"double", Column{Type: ColDouble, Width: 8, Decimals: 2}, "   -1.25", value.Double(-1.25)},
		{"overflow reads null", Column{Type: ColInt, Width: 3}, "***", value.Null{}},
		{"nul padding", Column{Type: ColInt, Width: 4}, "7\x00\x00\x00", value.Integer(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeField(tt.col, []byte(tt.field)))
		})
	}
}

func TestColumnFromDescriptor(t *testing.T) {
	desc := func(name string, typ byte, width, dec uint8) fieldDescriptor {
		var fd fieldDescriptor
		copy(fd.Name[:], name)
		fd.Type = typ
		fd.Width = width
		fd.Decimals = dec
		return fd
	}

	tests := []struct {
		fd   fieldDescriptor
		want Column
	}{
		{desc("cat", 'N', 11, 0), Column{Name: "cat", Type: ColInt, Width: 11}},
		{desc("big", 'N', 19, 0), Column{Name: "big", Type: ColDouble, Width: 19}},
		{desc("area", 'N', 20, 6), Column{Name: "area", Type: ColDouble, Width: 20, Decimals: 6}},
		{desc("len", 'F', 10, 2), Column{Name: "len", Type: ColDouble, Width: 10, Decimals: 2}},
		{desc("label", 'C', 30, 0), Column{Name: "label", Type: ColChar, Width: 30}},
		{desc("when", 'D', 8, 0), Column{Name: "when", Type: ColChar, Width: 8}},
		{desc("flag", 'L', 1, 0), Column{Name: "flag", Type: ColChar, Width: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnFromDescriptor(tt.fd))
		})
	}
}

func sampleColumns() []Column {
	return []Column{
		{Name: "id", Type: ColInt, Width: 11},
		{Name: "name", Type: ColChar, Width: 12},
		{Name: "area", Type: ColDouble, Width: 20, Decimals: 6},
	}
}

func TestWriteTableLayout(t *testing.T) {
	cols := sampleColumns()
	rows := []Row{
		{Alive: true, Values: []value.Value{value.Integer(1), value.String("main"), value.Double(1.5)}},
		{Alive: false, Values: []value.Value{value.Integer(2), value.String("gone"), value.Null{}}},
	}

	var buf bytes.Buffer
	now := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writeTable(&buf, "roads", cols, rows, now))

	data := buf.Bytes()
	recLen := 1 + 11 + 12 + 20
	hdrLen := 32 + 32*len(cols) + 1

	assert.Equal(t, byte(0x03), data[0])
	assert.Equal(t, []byte{124, 3, 9}, data[1:4])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint16(hdrLen), binary.LittleEndian.Uint16(data[8:10]))
	assert.Equal(t, uint16(recLen), binary.LittleEndian.Uint16(data[10:12]))
	assert.Equal(t, byte('N'), data[32+11])
	assert.Equal(t, byte('C'), data[64+11])
	assert.Equal(t, byte(6), data[96+17])
	assert.Equal(t, byte(0x0D), data[hdrLen-1])
	assert.Len(t, data, hdrLen+recLen+1)
	assert.Equal(t, byte(' '), data[hdrLen])
	assert.Equal(t, byte(0x1A), data[len(data)-1])
}

func TestReadWriteRoundTrip(t *testing.T) {
	cols := sampleColumns()
	rows := []Row{
		{Alive: true, Values: []value.Value{value.Integer(1), value.String("main st"), value.Double(1.5)}},
		{Alive: true, Values: []value.Value{value.Null{}, value.Null{}, value.Null{}}},
		{Alive: true, Values: []value.Value{value.Integer(-40), value.String("x"), value.Double(0.123456)}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, "roads", cols, rows, time.Now()))

	h, got, err := readTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, cols, h.columns)
	assert.Equal(t, rows, got)
}

func TestReadTableDeletedFlag(t *testing.T) {
	cols := sampleColumns()
	rows := []Row{
		{Alive: true, Values: []value.Value{value.Integer(1), value.String("a"), value.Double(1)}},
		{Alive: true, Values: []value.Value{value.Integer(2), value.String("b"), value.Double(2)}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, "t", cols, rows, time.Now()))

	data := buf.Bytes()
	hdrLen := 32 + 32*len(cols) + 1
	data[hdrLen] = '*'

	_, got, err := readTable(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Alive)
	assert.True(t, got[1].Alive)
}

func TestReadHeadErrors(t *testing.T) {
	_, err := readHead(bytes.NewReader([]byte{0x03, 1, 2}))
	assert.Error(t, err)

	hdr := make([]byte, 32)
	hdr[0] = 0x03
	binary.LittleEndian.PutUint16(hdr[8:10], 10)
	_, err = readHead(bytes.NewReader(hdr))
	assert.Error(t, err)
}

func TestWriteTableRejectsBadWidth(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, "t", []Column{{Name: "a", Type: ColChar, Width: 0}}, nil, time.Now())
	assert.Error(t, err)
}
