// Package corpus streams a transmission tree file and copies out the blocks of
// selected trees unchanged.
//
// A corpus has one leading count line followed by blocks of the form
//
//	<edgeCount> ... <solutionId>
//	<edge line 1>
//	...
//	<edge line edgeCount>
//
// Edge lines are never parsed.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const HeaderFormat = "%d # trans trees\n"

var (
	ErrInvalidFile     = errors.New("invalid file")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrTruncatedCorpus = errors.New("truncated corpus")
)

// Set of solution ids to copy out
type Selector interface {
	Contains(id int) bool
	Size() int
}

type Result struct {
	Emitted   int // tree blocks written
	LinesRead int // lines consumed from the corpus
}

type scanner struct {
	r      *bufio.Reader
	name   string
	lineNo int
}

// Returns the next line, newline included. The last line of a file without a
// trailing newline is returned as is.
func (s *scanner) next() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	s.lineNo++
	return line, nil
}

// Opens the corpus file at path and runs Filter on it.
func FilterFile(path string, w io.Writer, sel Selector) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w, error opening transmission trees %s: %s", ErrInvalidFile, path, err.Error())
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	return Filter(file, w, sel, path)
}

// Writes the selected tree count, then every block of r whose solution id is
// in sel, in file order and byte for byte. Reading stops once sel.Size()
// blocks are written; running out of input first is ErrTruncatedCorpus. The
// name is only used in error messages.
func Filter(r io.Reader, w io.Writer, sel Selector, name string) (Result, error) {
	target := sel.Size()
	bw := bufio.NewWriter(w)
	s := &scanner{r: bufio.NewReader(r), name: name}
	res, err := filter(s, bw, sel, target)
	res.LinesRead = s.lineNo
	if ferr := bw.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("error writing selected trees: %w", ferr)
	}
	return res, err
}

func filter(s *scanner, w *bufio.Writer, sel Selector, target int) (Result, error) {
	var res Result
	if _, err := fmt.Fprintf(w, HeaderFormat, target); err != nil {
		return res, err
	}
	if target == 0 {
		return res, nil
	}
	if _, err := s.next(); err != nil {
		return res, s.truncated(err, res.Emitted, target)
	}
	for res.Emitted < target {
		header, err := s.next()
		if err != nil {
			return res, s.truncated(err, res.Emitted, target)
		}
		edgeCount, solID, err := s.parseHeader(header)
		if err != nil {
			return res, err
		}
		keep := sel.Contains(solID)
		if keep {
			if err := writeLine(w, header); err != nil {
				return res, err
			}
		}
		for i := 0; i < edgeCount; i++ {
			edge, err := s.next()
			if err != nil {
				return res, s.truncated(err, res.Emitted, target)
			}
			if keep {
				if err := writeLine(w, edge); err != nil {
					return res, err
				}
			}
		}
		if keep {
			res.Emitted++
		}
	}
	return res, nil
}

func (s *scanner) parseHeader(line string) (edgeCount, solID int, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("%w, expected tree header but got empty line %d in %s",
			ErrInvalidFormat, s.lineNo, s.name)
	}
	edgeCount, err = strconv.Atoi(fields[0])
	if err != nil || edgeCount < 0 {
		return 0, 0, fmt.Errorf("%w, invalid edge count \"%s\" in tree header on line %d in %s",
			ErrInvalidFormat, fields[0], s.lineNo, s.name)
	}
	solID, err = strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w, invalid solution id \"%s\" in tree header on line %d in %s",
			ErrInvalidFormat, fields[len(fields)-1], s.lineNo, s.name)
	}
	return edgeCount, solID, nil
}

func (s *scanner) truncated(err error, emitted, target int) error {
	if err == io.EOF {
		return fmt.Errorf("%w, %s ended after line %d with %d of %d selected trees found",
			ErrTruncatedCorpus, s.name, s.lineNo, emitted, target)
	}
	return fmt.Errorf("%w, error reading %s after line %d: %s", ErrInvalidFile, s.name, s.lineNo, err.Error())
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	if !strings.HasSuffix(line, "\n") {
		return w.WriteByte('\n')
	}
	return nil
}
