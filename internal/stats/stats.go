// Package stats loads per-tree summary statistics and computes the set of
// transmission trees kept by the quantile cutoff.
package stats

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

const (
	SolIdxCol            = "solIdx"
	UnsampledLineagesCol = "unsampledLineages"
	TransmissionsCol     = "transmissions"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrMissingColumn = errors.New("missing column")
	ErrTypeOutRange  = errors.New("out of type range")

	requiredCols = []string{SolIdxCol, UnsampledLineagesCol, TransmissionsCol}
)

// One enumerated transmission tree
type Row struct {
	SolIdx            int
	UnsampledLineages int
	Transmissions     int
}

type Table struct {
	Rows    []Row
	Columns []string // header of the source file
}

// Fraction of the ranked rows to keep
type Alpha float64

func (a *Alpha) Set(n float64) error {
	if math.IsNaN(n) || n < 0 || n > 1 {
		return fmt.Errorf("alpha %f is %w", n, ErrTypeOutRange)
	}
	*a = Alpha(n)
	return nil
}

func (a Alpha) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// Trees kept by Select
type Selection struct {
	IDs    map[int]struct{}
	Cutoff int   // number of ranked rows taken
	Ranked []Row // all rows in ranked order
}

func (s *Selection) Contains(id int) bool {
	_, ok := s.IDs[id]
	return ok
}

// Number of distinct selected ids
func (s *Selection) Size() int {
	return len(s.IDs)
}

// Reads the tab separated summary statistics file.
func ReadSummaryStats(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w, error opening summary stats %s: %s", ErrInvalidFile, path, err.Error())
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	return ParseSummaryStats(file, path)
}

// Parses a summary statistics table from r; name is only used in error messages.
// Every row is kept, including rows with duplicate solIdx values.
func ParseSummaryStats(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w, summary stats file %s is empty", ErrInvalidFile, name)
	} else if err != nil {
		return nil, fmt.Errorf("%w, error reading header of %s: %s", ErrInvalidFormat, name, err.Error())
	}
	colIdx := make(map[string]int, len(requiredCols))
	for _, col := range requiredCols {
		i := slices.Index(header, col)
		if i < 0 {
			return nil, fmt.Errorf("%w \"%s\" in summary stats file %s", ErrMissingColumn, col, name)
		}
		colIdx[col] = i
	}
	table := &Table{Columns: header, Rows: make([]Row, 0)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w, %s: %s", ErrInvalidFormat, name, err.Error())
		}
		line, _ := reader.FieldPos(0)
		vals := make(map[string]int, len(requiredCols))
		for _, col := range requiredCols {
			v, err := strconv.Atoi(record[colIdx[col]])
			if err != nil {
				return nil, fmt.Errorf("%w, non-integer %s value \"%s\" on line %d in %s",
					ErrInvalidFormat, col, record[colIdx[col]], line, name)
			}
			vals[col] = v
		}
		table.Rows = append(table.Rows, Row{
			SolIdx:            vals[SolIdxCol],
			UnsampledLineages: vals[UnsampledLineagesCol],
			Transmissions:     vals[TransmissionsCol],
		})
	}
	return table, nil
}

// Number of ranked rows taken for n rows: floor(alpha*n)+1, clamped to n.
func Cutoff(alpha Alpha, n int) int {
	return min(int(math.Floor(float64(alpha)*float64(n)))+1, n)
}

// Ranks rows by (unsampledLineages, transmissions), ties keeping file order,
// and selects the solIdx values of the first Cutoff rows.
func Select(table *Table, alpha Alpha) *Selection {
	ranked := slices.Clone(table.Rows)
	slices.SortStableFunc(ranked, func(a, b Row) int {
		if c := cmp.Compare(a.UnsampledLineages, b.UnsampledLineages); c != 0 {
			return c
		}
		return cmp.Compare(a.Transmissions, b.Transmissions)
	})
	cutoff := Cutoff(alpha, len(ranked))
	ids := lo.SliceToMap(ranked[:cutoff], func(r Row) (int, struct{}) {
		return r.SolIdx, struct{}{}
	})
	return &Selection{IDs: ids, Cutoff: cutoff, Ranked: ranked}
}
