// Package unigen parses UniGen sample files and merges samples that assign
// the same literal set.
//
// A sample line looks like
//
//	v1 -2 3 -4 0:12
//
// where the final token carries the number of times the sample was drawn
// after the last colon.
package unigen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/samber/lo"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidMaxVar = errors.New("invalid max variable")
)

// A set of literals. Two solutions are equal iff they hold the same literals,
// regardless of the order they were read in.
type Solution struct {
	Literals []int // distinct literals in order of first appearance
	Count    int   // summed occurrences
	pos      *bitset.BitSet
	neg      *bitset.BitSet
	zero     bool
}

// Literal magnitudes index the backing bitsets, so callers keep them bounded
// (ParseSolutions allows at most MaxVar).
func NewSolution(lits []int) *Solution {
	sol := &Solution{Literals: make([]int, 0, len(lits)), pos: bitset.New(0), neg: bitset.New(0)}
	for _, lit := range lits {
		if sol.Has(lit) {
			continue
		}
		switch {
		case lit > 0:
			sol.pos.Set(uint(lit))
		case lit < 0:
			sol.neg.Set(uint(-lit))
		default:
			sol.zero = true
		}
		sol.Literals = append(sol.Literals, lit)
	}
	return sol
}

func (s *Solution) Has(lit int) bool {
	switch {
	case lit > 0:
		return s.pos.Test(uint(lit))
	case lit < 0:
		return s.neg.Test(uint(-lit))
	default:
		return s.zero
	}
}

// Positive literals in ascending order
func (s *Solution) Positive() []int {
	res := make([]int, 0, s.pos.Count())
	for i, ok := s.pos.NextSet(0); ok; i, ok = s.pos.NextSet(i + 1) {
		res = append(res, int(i))
	}
	return res
}

// Canonical form of the literal set, used to merge equal solutions
func (s *Solution) key() string {
	var b strings.Builder
	for i, ok := s.pos.NextSet(0); ok; i, ok = s.pos.NextSet(i + 1) {
		b.WriteString(strconv.FormatUint(uint64(i), 10))
		b.WriteByte(' ')
	}
	b.WriteByte('|')
	for i, ok := s.neg.NextSet(0); ok; i, ok = s.neg.NextSet(i + 1) {
		b.WriteString(strconv.FormatUint(uint64(i), 10))
		b.WriteByte(' ')
	}
	if s.zero {
		b.WriteString("|0")
	}
	return b.String()
}

// Distinct solutions in order of first appearance
type SolutionSet struct {
	Solutions []*Solution
	MaxVar    int // number of leading literals kept per line
	index     map[string]int
}

func NewSolutionSet(maxVar int) *SolutionSet {
	return &SolutionSet{Solutions: make([]*Solution, 0), MaxVar: maxVar, index: make(map[string]int)}
}

// Adds count occurrences of the solution formed by the first MaxVar literals
// of lits (by position, not value).
func (ss *SolutionSet) Add(lits []int, count int) *Solution {
	sol := NewSolution(lits[:min(len(lits), ss.MaxVar)])
	k := sol.key()
	if i, ok := ss.index[k]; ok {
		ss.Solutions[i].Count += count
		return ss.Solutions[i]
	}
	sol.Count = count
	ss.index[k] = len(ss.Solutions)
	ss.Solutions = append(ss.Solutions, sol)
	return sol
}

func (ss *SolutionSet) Len() int {
	return len(ss.Solutions)
}

// Total number of samples over all solutions
func (ss *SolutionSet) Total() int {
	return lo.SumBy(ss.Solutions, func(s *Solution) int { return s.Count })
}

// Reads and aggregates the UniGen solution file at path.
func ReadSolutions(path string, maxVar int) (*SolutionSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w, error opening unigen solution file %s: %s", ErrInvalidFile, path, err.Error())
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	return ParseSolutions(file, path, maxVar)
}

// Parses UniGen sample lines from r, keeping the first maxVar literals of each
// line and summing the counts of lines that keep the same literal set. A kept
// literal must lie in [-maxVar, maxVar]. Blank lines are skipped. The name is
// only used in error messages.
func ParseSolutions(r io.Reader, name string, maxVar int) (*SolutionSet, error) {
	if maxVar < 1 {
		return nil, fmt.Errorf("%w, %d (must be at least 1) for %s", ErrInvalidMaxVar, maxVar, name)
	}
	ss := NewSolutionSet(maxVar)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimLeft(strings.TrimLeft(scanner.Text(), " "), "v")
		s := strings.Fields(line)
		if len(s) == 0 {
			continue
		}
		last := s[len(s)-1]
		sep := strings.LastIndexByte(last, ':')
		if sep < 0 {
			return nil, fmt.Errorf("%w, missing \"<tag>:<count>\" token on line %d in %s",
				ErrInvalidFormat, i, name)
		}
		count, err := strconv.Atoi(last[sep+1:])
		if err != nil {
			return nil, fmt.Errorf("%w, invalid count \"%s\" on line %d in %s",
				ErrInvalidFormat, last, i, name)
		}
		lits := make([]int, len(s)-1)
		for j, tok := range s[:len(s)-1] {
			lit, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("%w, invalid literal \"%s\" on line %d in %s",
					ErrInvalidFormat, tok, i, name)
			}
			if j < maxVar && (lit < -maxVar || lit > maxVar) {
				return nil, fmt.Errorf("%w, literal %d on line %d in %s is outside [-%d, %d]",
					ErrInvalidFormat, lit, i, name, maxVar, maxVar)
			}
			lits[j] = lit
		}
		ss.Add(lits, count)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, error reading %s: %s", ErrInvalidFile, name, err.Error())
	}
	return ss, nil
}
