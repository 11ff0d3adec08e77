package main

import (
	"bytes"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsdoublel/sharptni/internal/dimacs"
	"github.com/jsdoublel/sharptni/internal/unigen"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := args{
		ptreeFile:    writeFile(t, dir, "ptree.txt", "r\tq\t0\na\tb\tx\n"),
		varsFile:     writeFile(t, dir, "vars.txt", "p cnf 6 2\n5 2 0 (v, s)\n6 2 1 (v, s)\n"),
		solFile:      writeFile(t, dir, "sol.txt", "v5 -6 0:1\nv-6 5 0:2\nv-5 6 0:1\n"),
		prefix:       filepath.Join(dir, "out_"),
		marker:       dimacs.DefaultMarker,
		manifestFile: filepath.Join(dir, "manifest.tsv"),
	}
	require.NoError(t, run(a))
	expected := map[string]string{
		"out_idx0_count3.out": "r\tq\t0\na\tb\t1\n",
		"out_idx1_count1.out": "r\tq\t0\na\tb\t2\n",
	}
	for name, exp := range expected {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, exp, string(b), name)
	}
	manifest, err := os.ReadFile(a.manifestFile)
	require.NoError(t, err)
	assert.Equal(t, "idx\tcount\tfile\n"+
		"0\t3\t"+a.prefix+"idx0_count3.out\n"+
		"1\t1\t"+a.prefix+"idx1_count1.out\n", string(manifest))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	ptreeFile := writeFile(t, dir, "ptree.txt", "a\tb\tx\n")
	testCases := []struct {
		name        string
		vars        string
		sol         string
		expectedErr error
	}{
		{
			name:        "no annotated variables",
			vars:        "p cnf 3 1\n",
			sol:         "v1 0:1\n",
			expectedErr: dimacs.ErrEmptyMapping,
		},
		{
			name:        "bad solution line",
			vars:        "1 1 0 (v, s)\n",
			sol:         "v1 -2\n",
			expectedErr: unigen.ErrInvalidFormat,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			a := args{
				ptreeFile: ptreeFile,
				varsFile:  writeFile(t, t.TempDir(), "vars.txt", test.vars),
				solFile:   writeFile(t, t.TempDir(), "sol.txt", test.sol),
				prefix:    filepath.Join(t.TempDir(), "out_"),
				marker:    dimacs.DefaultMarker,
			}
			err := run(a)
			assert.ErrorIs(t, err, test.expectedErr)
			t.Logf("%s", err)
		})
	}
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		name        string
		argv        []string
		expectedErr error
		exitCode    int
	}{
		{name: "three positional", argv: []string{"ptree.txt", "vars.txt", "sol.txt"}, expectedErr: ErrUsage, exitCode: 1},
		{name: "five positional", argv: []string{"ptree.txt", "vars.txt", "sol.txt", "out_", "extra"}, expectedErr: ErrUsage, exitCode: 1},
		{name: "flag missing value", argv: []string{"-marker"}, expectedErr: ErrUsage, exitCode: 1},
		{name: "help", argv: []string{"-h"}, expectedErr: flag.ErrHelp, exitCode: 0},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, err := parseArgs(test.argv, &stderr)
			require.ErrorIs(t, err, test.expectedErr)
			assert.Equal(t, test.exitCode, exitCode(err))
			assert.Contains(t, stderr.String(), "usage: unigenexpand")
		})
	}
}

func TestParseArgsValid(t *testing.T) {
	var stderr bytes.Buffer
	a, err := parseArgs([]string{"-manifest", "m.tsv", "ptree.txt", "vars.txt", "sol.txt", "out_"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, args{
		ptreeFile:    "ptree.txt",
		varsFile:     "vars.txt",
		solFile:      "sol.txt",
		prefix:       "out_",
		marker:       dimacs.DefaultMarker,
		manifestFile: "m.tsv",
	}, a)
	assert.Empty(t, stderr.String())

	_, err = parseArgs([]string{"-v"}, &stderr)
	assert.ErrorIs(t, err, errVersion)
	assert.Equal(t, 0, exitCode(err))
}

// Runs main in a child process so the exit status can be checked.
func TestMainExitStatus(t *testing.T) {
	if argv, ok := os.LookupEnv("UNIGENEXPAND_TEST_ARGV"); ok {
		os.Args = append([]string{"unigenexpand"}, strings.Fields(argv)...)
		main()
		return
	}
	dir := t.TempDir()
	testCases := []struct {
		name           string
		argv           string
		expectedStderr string
	}{
		{name: "three positional", argv: "ptree.txt vars.txt sol.txt", expectedStderr: "usage: unigenexpand"},
		{name: "five positional", argv: "ptree.txt vars.txt sol.txt out_ extra", expectedStderr: "usage: unigenexpand"},
		{
			name:           "missing input",
			argv: strings.Join([]string{
				filepath.Join(dir, "ptree.txt"),
				filepath.Join(dir, "vars.txt"),
				filepath.Join(dir, "sol.txt"),
				filepath.Join(dir, "out_"),
			}, " "),
			expectedStderr: ErrMessage,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^TestMainExitStatus$")
			cmd.Env = append(os.Environ(), "UNIGENEXPAND_TEST_ARGV="+test.argv)
			var stderr bytes.Buffer
			cmd.Stderr = &stderr
			err := cmd.Run()
			var exitErr *exec.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 1, exitErr.ExitCode())
			assert.Contains(t, stderr.String(), test.expectedStderr)
		})
	}
}
