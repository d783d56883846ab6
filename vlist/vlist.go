// Package vlist reads .vlist project files, the semicolon-separated variable lists exported by
// the PLC development environment, and keeps them in a catalog addressed by variable name.
//
// A .vlist file starts with two header lines, followed by one variable per line:
//
//	project;$name;$type;uid;offset;length[;parent_type_family[;history_id]]
//
// Lines with less than six fields are ignored. An empty offset means 0 (no qualifier) and an
// empty length means 1. The "$" decoration is removed from names and type names.
package vlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-sscp/go-sscp/sscp"
)

const (
	headerLines = 2
	minFields   = 6

	// DefaultParentTypeFamily is the parent type family of entries that don't declare one.
	DefaultParentTypeFamily = "none"
)

// ErrInvalidLine indicates a variable line whose numeric fields can't be parsed.
var ErrInvalidLine = errors.New("invalid vlist line")

// Entry is one variable of a .vlist file.
type Entry struct {
	// Name is the variable name without the "$" decoration.
	Name string
	// Project is the name of the PLC project the variable belongs to.
	Project string
	// TypeName is the type as written in the file, without the "$" decoration.
	TypeName string
	// Variable is the descriptor used to read and write the variable.
	// Its Type is zero when TypeName is not a scalar type supported by the codec.
	Variable sscp.Variable
	// ParentTypeFamily is the type family of the enclosing structure, DefaultParentTypeFamily if absent.
	ParentTypeFamily string
	// HistoryID is the history identifier, empty if absent.
	HistoryID string
}

// Supported reports whether the variable has a type the codec can read and write.
func (e Entry) Supported() bool {
	return e.Variable.Type.Valid()
}

// Parse reads the entries of a .vlist file from r, in file order.
//
// It returns an error wrapping ErrInvalidLine with the line number when the uid, offset or length
// of a variable line is not a number.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}

		entry, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLine, lineNo, err)
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ParseFile reads the entries of the .vlist file at path.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

func parseLine(line string) (Entry, bool, error) {
	parts := strings.Split(strings.TrimSpace(line), ";")
	if len(parts) < minFields {
		return Entry{}, false, nil
	}

	uid, err := strconv.ParseUint(strings.TrimSpace(parts[3]), 10, 32)
	if err != nil {
		return Entry{}, false, fmt.Errorf("uid: %w", err)
	}

	offset, err := parseField(parts[4], 0)
	if err != nil {
		return Entry{}, false, fmt.Errorf("offset: %w", err)
	}

	length, err := parseField(parts[5], 1)
	if err != nil {
		return Entry{}, false, fmt.Errorf("length: %w", err)
	}

	entry := Entry{
		Name:             strings.ReplaceAll(parts[1], "$", ""),
		Project:          parts[0],
		TypeName:         strings.Trim(parts[2], "$"),
		ParentTypeFamily: DefaultParentTypeFamily,
		Variable: sscp.Variable{
			UID:    uint32(uid),
			Offset: offset,
			Length: length,
		},
	}

	if t, err := sscp.ParseVariableType(entry.TypeName); err == nil {
		entry.Variable.Type = t
	}

	if len(parts) > 6 {
		entry.ParentTypeFamily = parts[6]
	}
	if len(parts) > 7 {
		entry.HistoryID = parts[7]
	}

	return entry, true, nil
}

func parseField(s string, def uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}

	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}

	return uint32(val), nil
}
