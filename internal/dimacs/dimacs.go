// Package dimacs reads the variable list written alongside a DIMACS encoding,
// mapping each annotated variable to the parameter tree cell it stands for.
package dimacs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Fourth token of annotated variable lines
const DefaultMarker = "(v,"

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrEmptyMapping  = errors.New("empty variable mapping")
)

// Template cell addressed by a variable; Row is 1-based
type Cell struct {
	Row int
	Col int
}

type VarMapping struct {
	Cells  map[int]Cell // variable id -> cell
	MaxVar int          // largest variable id
	Name   string       // source file, for error messages
}

func (m *VarMapping) Lookup(lit int) (Cell, bool) {
	c, ok := m.Cells[lit]
	return c, ok
}

// Reads and validates the variable list at path.
func ReadVarMapping(path, marker string) (*VarMapping, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w, error opening dimacs variable file %s: %s", ErrInvalidFile, path, err.Error())
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	return ParseVarMapping(file, path, marker)
}

// Parses lines of the form "<var> <row> <col> <marker> ...". Lines whose fourth
// token is not marker are skipped; a later line for the same variable wins.
// Returns ErrEmptyMapping if no line is annotated.
func ParseVarMapping(r io.Reader, name, marker string) (*VarMapping, error) {
	cells := make(map[int]Cell)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for i := 1; scanner.Scan(); i++ {
		s := strings.Fields(scanner.Text())
		if len(s) <= 3 || s[3] != marker {
			continue
		}
		vals := make([]int, 3)
		for j, field := range []string{"variable", "row", "column"} {
			v, err := strconv.Atoi(s[j])
			if err != nil {
				return nil, fmt.Errorf("%w, non-integer %s \"%s\" on line %d in %s",
					ErrInvalidFormat, field, s[j], i, name)
			}
			vals[j] = v
		}
		if vals[0] < 1 {
			return nil, fmt.Errorf("%w, variable %d on line %d in %s is not positive",
				ErrInvalidFormat, vals[0], i, name)
		}
		cells[vals[0]] = Cell{Row: vals[1], Col: vals[2]}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, error reading %s: %s", ErrInvalidFile, name, err.Error())
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w, no \"%s\" lines in %s", ErrEmptyMapping, marker, name)
	}
	return &VarMapping{Cells: cells, MaxVar: lo.Max(lo.Keys(cells)), Name: name}, nil
}
