// Package ptree reads parameter tree templates and writes one concrete
// parameter tree per sampled solution.
package ptree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jsdoublel/sharptni/internal/dimacs"
	"github.com/jsdoublel/sharptni/internal/unigen"
)

var (
	ErrInvalidFile = errors.New("invalid file")
	ErrInvalidCell = errors.New("invalid cell")
	ErrWritingFile = errors.New("error writing file")
)

// Rows of whitespace separated cells, in file order
type Template struct {
	Rows [][]string
	Name string // source file, for error messages
}

// Deep copy
func (t *Template) Clone() *Template {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Clone(row)
	}
	return &Template{Rows: rows, Name: t.Name}
}

func (t *Template) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, row := range t.Rows {
		m, err := bw.WriteString(strings.Join(row, "\t") + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Reads the parameter tree template at path.
func ReadTemplate(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w, error opening parameter tree %s: %s", ErrInvalidFile, path, err.Error())
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	return ParseTemplate(file, path)
}

// Every line of r becomes a row, blank lines included.
func ParseTemplate(r io.Reader, name string) (*Template, error) {
	rows := make([][]string, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		rows = append(rows, strings.Fields(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, error reading %s: %s", ErrInvalidFile, name, err.Error())
	}
	return &Template{Rows: rows, Name: name}, nil
}

// Returns a copy of tmpl where, for every positive literal of sol with a
// mapping entry (row, col), the last cell of row is col+1. Unmapped and
// negative literals are ignored.
func Substitute(tmpl *Template, mapping *dimacs.VarMapping, sol *unigen.Solution) (*Template, error) {
	out := tmpl.Clone()
	for _, lit := range sol.Positive() {
		cell, ok := mapping.Lookup(lit)
		if !ok {
			continue
		}
		if cell.Row < 1 || cell.Row > len(out.Rows) {
			return nil, fmt.Errorf("%w, variable %d in %s maps to row %d but parameter tree %s has %d rows",
				ErrInvalidCell, lit, mapping.Name, cell.Row, tmpl.Name, len(out.Rows))
		}
		row := out.Rows[cell.Row-1]
		if len(row) == 0 {
			return nil, fmt.Errorf("%w, variable %d in %s maps to row %d which is empty in parameter tree %s",
				ErrInvalidCell, lit, mapping.Name, cell.Row, tmpl.Name)
		}
		row[len(row)-1] = strconv.Itoa(cell.Col + 1)
	}
	return out, nil
}

func OutputName(prefix string, idx, count int) string {
	return fmt.Sprintf("%sidx%d_count%d.out", prefix, idx, count)
}

// An output tree written by WriteSolutions
type Written struct {
	Idx   int
	Count int
	File  string
}

// Writes one substituted copy of tmpl per solution, in solution set order, to
// OutputName(prefix, idx, count).
func WriteSolutions(tmpl *Template, mapping *dimacs.VarMapping, solutions *unigen.SolutionSet, prefix string) ([]Written, error) {
	written := make([]Written, 0, solutions.Len())
	for idx, sol := range solutions.Solutions {
		out, err := Substitute(tmpl, mapping, sol)
		if err != nil {
			return written, fmt.Errorf("solution %d: %w", idx, err)
		}
		name := OutputName(prefix, idx, sol.Count)
		if err := writeFile(out, name); err != nil {
			return written, err
		}
		written = append(written, Written{Idx: idx, Count: sol.Count, File: name})
	}
	return written, nil
}

func writeFile(t *Template, name string) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w %s: %s", ErrWritingFile, name, err.Error())
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w %s: %s", ErrWritingFile, name, cerr.Error())
		}
	}()
	if _, err = t.WriteTo(file); err != nil {
		return fmt.Errorf("%w %s: %s", ErrWritingFile, name, err.Error())
	}
	return nil
}
