/*
unigenexpand writes one parameter tree per distinct UniGen sample, filling in
the cells encoded by the sample's positive DIMACS literals.

usage: unigenexpand [ -marker <token> | -manifest <file> | -h | -v ] <ptree> <dimacs_vars> <unigen_sol> <prefix>

positional arguments:

	<ptree>	parameter tree template
	<dimacs_vars>	DIMACS variable list
	<unigen_sol>	UniGen solution file
	<prefix>	output prefix; trees are written to <prefix>idx<i>_count<c>.out

flags:

	-h	prints this message and exits
	-manifest file
	  	write tab separated list of output trees to file
	-marker token
	  	fourth token of annotated variable lines (default "(v,")
	-v	prints version number and exits

examples:

	unigenexpand ptree.txt vars.txt samples.txt out/sample_ 2> log.txt
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jsdoublel/sharptni/internal/dimacs"
	"github.com/jsdoublel/sharptni/internal/ptree"
	"github.com/jsdoublel/sharptni/internal/unigen"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "unigenexpand encountered an error ::"
)

type args struct {
	ptreeFile    string // parameter tree template
	varsFile     string // dimacs variable list
	solFile      string // unigen solutions
	prefix       string // output prefix
	marker       string // dimacs annotation marker
	manifestFile string // manifest output (optional)
}

var (
	ErrUsage   = errors.New("invalid usage")
	errVersion = errors.New("version requested")
)

// Parses argv (without the program name). Usage problems are reported on
// stderr and returned wrapped in ErrUsage; -h and -v return flag.ErrHelp and
// errVersion.
func parseArgs(argv []string, stderr io.Writer) (args, error) {
	fs := flag.NewFlagSet("unigenexpand", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(),
			"usage: unigenexpand [ -marker <token> | -manifest <file> | -h | -v ] <ptree> <dimacs_vars> <unigen_sol> <prefix>\n",
			"\n",
			"positional arguments:\n\n",
			"  <ptree>\t\tparameter tree template\n",
			"  <dimacs_vars>\t\tDIMACS variable list\n",
			"  <unigen_sol>\t\tUniGen solution file\n",
			"  <prefix>\t\toutput prefix; trees are written to <prefix>idx<i>_count<c>.out\n",
			"\n",
			"flags:\n\n",
		)
		fs.PrintDefaults()
		fmt.Fprint(fs.Output(),
			"\n",
			"examples:\n\n",
			"\tunigenexpand ptree.txt vars.txt samples.txt out/sample_ 2> log.txt\n",
		)
	}
	marker := fs.String("marker", dimacs.DefaultMarker, "fourth `token` of annotated variable lines")
	manifest := fs.String("manifest", "", "write tab separated list of output trees to `file`")
	help := fs.Bool("h", false, "prints this message and exits")
	ver := fs.Bool("v", false, "prints version number and exits")
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return args{}, err
		}
		return args{}, fmt.Errorf("%w: %s", ErrUsage, err)
	}
	if *help {
		fs.Usage()
		return args{}, flag.ErrHelp
	}
	if *ver {
		return args{}, errVersion
	}
	if fs.NArg() != 4 {
		return args{}, parserError(fs, "four positional arguments required: <ptree> <dimacs_vars> <unigen_sol> <prefix>")
	}
	return args{
		ptreeFile:    fs.Arg(0),
		varsFile:     fs.Arg(1),
		solFile:      fs.Arg(2),
		prefix:       fs.Arg(3),
		marker:       *marker,
		manifestFile: *manifest,
	}, nil
}

// prints message and usage, returns ErrUsage
func parserError(fs *flag.FlagSet, message string) error {
	fmt.Fprintln(fs.Output(), message)
	fs.Usage()
	return fmt.Errorf("%w: %s", ErrUsage, message)
}

// Process exit status for a parseArgs error
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp), errors.Is(err, errVersion):
		return 0
	default:
		return 1
	}
}

func writeManifest(written []ptree.Written, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w %s: %s", ptree.ErrWritingFile, path, err.Error())
	}
	if err := ptree.WriteManifest(written, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func run(args args) error {
	mapping, err := dimacs.ReadVarMapping(args.varsFile, args.marker)
	if err != nil {
		return err
	}
	log.Printf("%d annotated variables read, max variable %d\n", len(mapping.Cells), mapping.MaxVar)
	tmpl, err := ptree.ReadTemplate(args.ptreeFile)
	if err != nil {
		return err
	}
	solutions, err := unigen.ReadSolutions(args.solFile, mapping.MaxVar)
	if err != nil {
		return err
	}
	log.Printf("%d samples read, %d distinct solutions\n", solutions.Total(), solutions.Len())
	written, err := ptree.WriteSolutions(tmpl, mapping, solutions, args.prefix)
	if err != nil {
		return err
	}
	log.Printf("%d parameter trees written\n", len(written))
	if args.manifestFile != "" {
		return writeManifest(written, args.manifestFile)
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("unigenexpand version %s", Version)
	a, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errVersion) {
			fmt.Printf("unigenexpand version %s\n", Version)
		}
		os.Exit(exitCode(err))
	}
	if err := run(a); err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
}
