package ptree

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsdoublel/sharptni/internal/dimacs"
	"github.com/jsdoublel/sharptni/internal/unigen"
)

const template = "r\tq\t0\n" +
	"a b\tx\n" +
	"\n" +
	"c\td\ty\n"

func mustTemplate(t *testing.T, s string) *Template {
	t.Helper()
	tmpl, err := ParseTemplate(strings.NewReader(s), "ptree.txt")
	require.NoError(t, err)
	return tmpl
}

func mustMapping(t *testing.T, s string) *dimacs.VarMapping {
	t.Helper()
	m, err := dimacs.ParseVarMapping(strings.NewReader(s), "vars.txt", dimacs.DefaultMarker)
	require.NoError(t, err)
	return m
}

func TestParseTemplate(t *testing.T) {
	tmpl := mustTemplate(t, template)
	expected := [][]string{
		{"r", "q", "0"},
		{"a", "b", "x"},
		{},
		{"c", "d", "y"},
	}
	if diff := cmp.Diff(expected, tmpl.Rows); diff != "" {
		t.Errorf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	tmpl := mustTemplate(t, template)
	c := tmpl.Clone()
	c.Rows[0][0] = "changed"
	assert.Equal(t, "r", tmpl.Rows[0][0])
	assert.Equal(t, "ptree.txt", c.Name)
}

func TestSubstitute(t *testing.T) {
	mapping := mustMapping(t, "5 2 0 (v, s)\n6 4 3 (v, s)\n7 1 1 (v, s)\n")
	testCases := []struct {
		name        string
		literals    []int
		expected    string
		expectedErr error
	}{
		{
			name:     "single positive literal",
			literals: []int{5, -6, -7},
			expected: "r\tq\t0\na\tb\t1\n\nc\td\ty\n",
		},
		{
			name:     "several literals",
			literals: []int{7, 6, -5},
			expected: "r\tq\t2\na\tb\tx\n\nc\td\t4\n",
		},
		{
			name:     "unmapped literal ignored",
			literals: []int{9, -5},
			expected: "r\tq\t0\na\tb\tx\n\nc\td\ty\n",
		},
		{
			name:     "repeated literal",
			literals: []int{5, 5},
			expected: "r\tq\t0\na\tb\t1\n\nc\td\ty\n",
		},
	}
	tmpl := mustTemplate(t, template)
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			out, err := Substitute(tmpl, mapping, unigen.NewSolution(test.literals))
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("Failed with unexpected error %+v", err)
			}
			var buf bytes.Buffer
			_, err = out.WriteTo(&buf)
			require.NoError(t, err)
			assert.Equal(t, test.expected, buf.String())
		})
	}
	assert.Equal(t, "x", tmpl.Rows[1][2], "template must not be modified")
}

func TestSubstituteInvalidCell(t *testing.T) {
	tmpl := mustTemplate(t, template)
	for _, vars := range []string{"1 9 0 (v, s)\n", "1 0 0 (v, s)\n", "1 3 0 (v, s)\n"} {
		_, err := Substitute(tmpl, mustMapping(t, vars), unigen.NewSolution([]int{1}))
		require.ErrorIs(t, err, ErrInvalidCell, vars)
		assert.Contains(t, err.Error(), "ptree.txt")
		assert.Contains(t, err.Error(), "vars.txt")
	}
}

func TestWriteSolutions(t *testing.T) {
	mapping := mustMapping(t, "5 2 0 (v, s)\n4 1 2 (v, s)\n")
	solutions, err := unigen.ParseSolutions(strings.NewReader(
		"v-4 5 0:2\nv5 -4 0:1\nv4 -5 0:4\n"), "sol.txt", mapping.MaxVar)
	require.NoError(t, err)
	prefix := filepath.Join(t.TempDir(), "out_")
	tmpl := mustTemplate(t, "h\n0 1\ta\tb\tx\n")
	written, err := WriteSolutions(tmpl, mapping, solutions, prefix)
	require.NoError(t, err)
	expected := []Written{
		{Idx: 0, Count: 3, File: prefix + "idx0_count3.out"},
		{Idx: 1, Count: 4, File: prefix + "idx1_count4.out"},
	}
	assert.Equal(t, expected, written)

	contents := map[string]string{
		expected[0].File: "h\n0\t1\ta\tb\t1\n",
		expected[1].File: "3\n0\t1\ta\tb\tx\n",
	}
	for file, exp := range contents {
		b, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, exp, string(b), file)
	}
	assert.Equal(t, "x", tmpl.Rows[1][4])
}

func TestWriteManifest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteManifest([]Written{
		{Idx: 0, Count: 3, File: "p_idx0_count3.out"},
		{Idx: 1, Count: 1, File: "p_idx1_count1.out"},
	}, &buf))
	assert.Equal(t, "idx\tcount\tfile\n0\t3\tp_idx0_count3.out\n1\t1\tp_idx1_count1.out\n", buf.String())
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "run/sampleidx12_count7.out", OutputName("run/sample", 12, 7))
}
