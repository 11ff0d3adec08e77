/*
ttselect selects the transmission trees with the fewest unsampled lineages
(ties broken by fewest transmissions) from an enumerated tree corpus.

usage: ttselect [ -plot <prefix> | -h | -v ] <transmission_trees> <summary_stats> <alpha>

positional arguments:

	<transmission_trees>	enumerated transmission tree file
	<summary_stats>	tab separated summary statistics (solIdx, unsampledLineages, transmissions)
	<alpha>	fraction of ranked trees to keep [0, 1]

flags:

	-h	prints this message and exits
	-plot prefix
	  	write scatter plot of the selection to <prefix>.png
	-v	prints version number and exits

examples:

	ttselect trees.txt summary.tsv 0.05 > selected.txt 2> log.txt
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jsdoublel/sharptni/internal/corpus"
	"github.com/jsdoublel/sharptni/internal/stats"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "ttselect encountered an error ::"
)

type args struct {
	treesFile string      // transmission tree corpus
	statsFile string      // summary statistics table
	alpha     stats.Alpha // fraction of ranked trees kept
	plot      string      // plot prefix (optional)
}

var (
	ErrUsage   = errors.New("invalid usage")
	errVersion = errors.New("version requested")
)

// Parses argv (without the program name). Usage problems are reported on
// stderr and returned wrapped in ErrUsage; -h and -v return flag.ErrHelp and
// errVersion.
func parseArgs(argv []string, stderr io.Writer) (args, error) {
	fs := flag.NewFlagSet("ttselect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(),
			"usage: ttselect [ -plot <prefix> | -h | -v ] <transmission_trees> <summary_stats> <alpha>\n",
			"\n",
			"positional arguments:\n\n",
			"  <transmission_trees>\tenumerated transmission tree file\n",
			"  <summary_stats>\ttab separated summary statistics (solIdx, unsampledLineages, transmissions)\n",
			"  <alpha>\t\tfraction of ranked trees to keep [0, 1]\n",
			"\n",
			"flags:\n\n",
		)
		fs.PrintDefaults()
		fmt.Fprint(fs.Output(),
			"\n",
			"examples:\n\n",
			"\tttselect trees.txt summary.tsv 0.05 > selected.txt 2> log.txt\n",
		)
	}
	plot := fs.String("plot", "", "write scatter plot of the selection to <`prefix`>.png")
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
	if fs.NArg() != 3 {
		return args{}, parserError(fs, "three positional arguments required: <transmission_trees> <summary_stats> <alpha>")
	}
	var alpha stats.Alpha
	a, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		return args{}, parserError(fs, fmt.Sprintf("\"%s\" is not a valid alpha", fs.Arg(2)))
	}
	if err := alpha.Set(a); err != nil {
		return args{}, parserError(fs, err.Error())
	}
	return args{
		treesFile: fs.Arg(0),
		statsFile: fs.Arg(1),
		alpha:     alpha,
		plot:      *plot,
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

func run(args args, w io.Writer) error {
	table, err := stats.ReadSummaryStats(args.statsFile)
	if err != nil {
		return err
	}
	sel := stats.Select(table, args.alpha)
	log.Printf("%d summary rows read, cutoff %d (alpha %s), %d distinct trees selected\n",
		len(table.Rows), sel.Cutoff, args.alpha, sel.Size())
	if args.plot != "" {
		if err := stats.WriteSelectionPlot(sel, args.plot); err != nil {
			return err
		}
		log.Printf("selection plot written to %s.png\n", args.plot)
	}
	res, err := corpus.FilterFile(args.treesFile, w, sel)
	if err != nil {
		return err
	}
	log.Printf("%d trees written after reading %d lines\n", res.Emitted, res.LinesRead)
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("ttselect version %s", Version)
	a, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errVersion) {
			fmt.Printf("ttselect version %s\n", Version)
		}
		os.Exit(exitCode(err))
	}
	if err := run(a, os.Stdout); err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
}
