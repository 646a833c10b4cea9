package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danfragoso/dbfsql/pkg/value"
)

const (
	dbfVersion     = 0x03
	headerTerm     = 0x0D
	fileTerm       = 0x1A
	flagAlive      = ' '
	flagDeleted    = '*'
	headerSize     = 32
	descriptorSize = 32

	// Widest numeric field still read as an integer column.
	maxIntWidth = 18
)

type fileHeader struct {
	Version    uint8
	Year       uint8 // years since 1900
	Month      uint8
	Day        uint8
	NumRecords uint32
	HeaderLen  uint16
	RecordLen  uint16
	_          [20]byte
}

type fieldDescriptor struct {
	Name     [11]byte
	Type     byte
	_        [4]byte
	Width    uint8
	Decimals uint8
	_        [14]byte
}

type head struct {
	columns    []Column
	numRecords int
	headerLen  int
	recordLen  int
}

// readHead decodes the file header and field descriptors, leaving r
// positioned at the first record.
func readHead(r io.Reader) (*head, error) {
	var fh fileHeader
	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("dbf: short header: %w", err)
	}
	if fh.HeaderLen < headerSize+1 {
		return nil, fmt.Errorf("dbf: invalid header length %d", fh.HeaderLen)
	}

	rest := make([]byte, int(fh.HeaderLen)-headerSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("dbf: truncated field descriptors: %w", err)
	}

	h := &head{
		numRecords: int(fh.NumRecords),
		headerLen:  int(fh.HeaderLen),
		recordLen:  int(fh.RecordLen),
	}

	br := bytes.NewReader(rest)
	for br.Len() >= descriptorSize {
		if rest[len(rest)-br.Len()] == headerTerm {
			break
		}
		var fd fieldDescriptor
		if err := binary.Read(br, binary.LittleEndian, &fd); err != nil {
			return nil, err
		}
		h.columns = append(h.columns, columnFromDescriptor(fd))
	}
	return h, nil
}

func columnFromDescriptor(fd fieldDescriptor) Column {
	name := fd.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	col := Column{
		Name:     strings.TrimSpace(string(name)),
		Width:    int(fd.Width),
		Decimals: int(fd.Decimals),
	}

	switch fd.Type {
	case 'N', 'F':
		if col.Decimals == 0 && col.Width <= maxIntWidth {
			col.Type = ColInt
		} else {
			col.Type = ColDouble
		}
	default:
		col.Type = ColChar
	}
	return col
}

// readTable decodes a whole DBF stream.
func readTable(r io.Reader) (*head, []Row, error) {
	br := bufio.NewReader(r)
	h, err := readHead(br)
	if err != nil {
		return nil, nil, err
	}

	recLen := 1
	for _, c := range h.columns {
		recLen += c.Width
	}
	if h.recordLen > recLen {
		recLen = h.recordLen
	}

	rows := make([]Row, 0, h.numRecords)
	buf := make([]byte, recLen)
	for i := 0; i < h.numRecords; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				break
			}
			return nil, nil, fmt.Errorf("dbf: record %d: %w", i, err)
		}
		rows = append(rows, decodeRecord(h.columns, buf))
	}
	return h, rows, nil
}

func decodeRecord(cols []Column, rec []byte) Row {
	row := Row{
		Alive:  rec[0] != flagDeleted,
		Values: make([]value.Value, len(cols)),
	}

	off := 1
	for i, c := range cols {
		end := off + c.Width
		if end > len(rec) {
			end = len(rec)
		}
		row.Values[i] = decodeField(c, rec[off:end])
		off = end
	}
	return row
}

func decodeField(c Column, field []byte) value.Value {
	s := strings.TrimSpace(strings.TrimRight(string(field), "\x00"))
	if s == "" {
		return value.Null{}
	}

	switch c.Type {
	case ColInt:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Integer(i)
		}
		if d, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Integer(int64(d))
		}
		return value.Null{}
	case ColDouble:
		if d, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Double(d)
		}
		return value.Null{}
	default:
		return value.String(strings.TrimRight(string(field), " \x00"))
	}
}

// encodeField renders v into a field of the column's width. The second
// result is false when a numeric value did not fit.
func encodeField(c Column, v value.Value) ([]byte, bool) {
	field := bytes.Repeat([]byte{' '}, c.Width)
	if value.IsNull(v) {
		return field, true
	}

	var s string
	switch c.Type {
	case ColChar:
		copy(field, v.String())
		return field, true
	case ColInt:
		switch x := v.(type) {
		case value.Integer:
			s = strconv.FormatInt(int64(x), 10)
		case value.Double:
			s = strconv.FormatInt(int64(x), 10)
		default:
			return field, true
		}
	case ColDouble:
		d, ok := value.Float(v)
		if !ok {
			return field, true
		}
		s = strconv.FormatFloat(d, 'f', c.Decimals, 64)
	}

	if len(s) > c.Width {
		return bytes.Repeat([]byte{'*'}, c.Width), false
	}
	copy(field[c.Width-len(s):], s)
	return field, true
}

func descriptorType(t ColumnType) byte {
	if t == ColChar {
		return 'C'
	}
	return 'N'
}

// writeTable encodes columns and the alive rows as a DBF stream.
func writeTable(w io.Writer, name string, cols []Column, rows []Row, now time.Time) error {
	recLen := 1
	for _, c := range cols {
		if c.Width < 1 || c.Width > MaxFieldWidth {
			return fmt.Errorf("dbf: column %s has invalid width %d", c.Name, c.Width)
		}
		recLen += c.Width
	}
	if recLen > 0xFFFF {
		return fmt.Errorf("dbf: record too long: %d", recLen)
	}

	alive := 0
	for _, r := range rows {
		if r.Alive {
			alive++
		}
	}

	bw := bufio.NewWriter(w)
	fh := fileHeader{
		Version:    dbfVersion,
		Year:       uint8(now.Year() - 1900),
		Month:      uint8(now.Month()),
		Day:        uint8(now.Day()),
		NumRecords: uint32(alive),
		HeaderLen:  uint16(headerSize + descriptorSize*len(cols) + 1),
		RecordLen:  uint16(recLen),
	}
	if err := binary.Write(bw, binary.LittleEndian, fh); err != nil {
		return err
	}

	for _, c := range cols {
		var fd fieldDescriptor
		copy(fd.Name[:], c.Name)
		fd.Type = descriptorType(c.Type)
		fd.Width = uint8(c.Width)
		if c.Type == ColDouble {
			fd.Decimals = uint8(c.Decimals)
		}
		if err := binary.Write(bw, binary.LittleEndian, fd); err != nil {
			return err
		}
	}
	if err := bw.WriteByte(headerTerm); err != nil {
		return err
	}

	for i, r := range rows {
		if !r.Alive {
			continue
		}
		if err := bw.WriteByte(flagAlive); err != nil {
			return err
		}
		for j, c := range cols {
			var v value.Value = value.Null{}
			if j < len(r.Values) {
				v = r.Values[j]
			}
			field, ok := encodeField(c, v)
			if !ok {
				logger().Warn("value does not fit field width, written as overflow",
					"table", name, "row", i, "column", c.Name, "width", c.Width, "value", v.String())
			}
			if _, err := bw.Write(field); err != nil {
				return err
			}
		}
	}

	if err := bw.WriteByte(fileTerm); err != nil {
		return err
	}
	return bw.Flush()
}

// writeFile replaces path atomically with the encoded table.
func writeFile(path string, cols []Column, rows []Row) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := writeTable(tmp, name, cols, rows, time.Now()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
