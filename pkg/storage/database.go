// Package storage holds the in-memory table model of a DBF database and
// reads and writes its dBASE III files.
package storage

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/danfragoso/dbfsql/pkg/sqlerr"
)

// FileExt is the extension of table files.
const FileExt = ".dbf"

// Database is a directory of DBF tables.
type Database struct {
	Path   string
	Tables []*Table
}

// Open scans path for table files. Environment variables in path are
// expanded and the directory is created if it does not exist. Schemas
// and rows are loaded on first use.
func Open(path string) (*Database, error) {
	dir := os.ExpandEnv(path)
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, sqlerr.Wrap(sqlerr.IO, err, "Cannot create database directory '%s'", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.IO, err, "Cannot open database directory '%s'", dir)
	}

	db := &Database{Path: dir}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !strings.EqualFold(ext, FileExt) {
			continue
		}

		t := &Table{
			Name:  strings.TrimSuffix(e.Name(), ext),
			File:  filepath.Join(dir, e.Name()),
			Alive: true,
		}
		t.Read, t.Write = access(t.File)
		db.Tables = append(db.Tables, t)
	}

	logger().Debug("database opened", "path", dir, "tables", len(db.Tables))
	return db, nil
}

func access(path string) (read, write bool) {
	if f, err := os.OpenFile(path, os.O_RDONLY, 0); err == nil {
		read = true
		f.Close()
	}
	if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
		write = true
		f.Close()
	}
	return read, write
}

// FindTable returns the alive table with the given name, matched
// case-insensitively, or nil.
func (db *Database) FindTable(name string) *Table {
	for _, t := range db.Tables {
		if t.Alive && strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// AddTable registers a new, empty table backed by <name>.dbf. The caller
// sets its flags.
func (db *Database) AddTable(name string) *Table {
	t := &Table{
		Name:  name,
		File:  filepath.Join(db.Path, name+FileExt),
		Alive: true,
	}
	db.Tables = append(db.Tables, t)
	return t
}

// TableNames lists alive tables in registration order.
func (db *Database) TableNames() []string {
	names := make([]string, 0, len(db.Tables))
	for _, t := range db.Tables {
		if t.Alive {
			names = append(names, t.Name)
		}
	}
	return names
}

// Save writes every modified table. Tables are saved concurrently since
// each owns its own file.
func (db *Database) Save() error {
	var g errgroup.Group
	for _, t := range db.Tables {
		g.Go(t.Save)
	}
	return g.Wait()
}

// Close saves the database and releases all tables.
func (db *Database) Close() error {
	err := db.Save()
	db.Tables = nil
	return err
}
