package main

/*
bedder-intersect streams one query BED file against one or more database BED
files and reports, for each query interval, how many database intervals
overlap it. It is a minimal demonstration of the streaming intersection
engine; it does not attempt bedtools' output grammar (multi-file column
layout, -wa/-wb/-loj and friends) — see the module's documented Non-goals.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/quinlan-lab/bedder-rs/adapter/bed"
	"github.com/quinlan-lab/bedder-rs/chromorder"
	"github.com/quinlan-lab/bedder-rs/intersect"
	"github.com/quinlan-lab/bedder-rs/metrics"
	"github.com/quinlan-lab/bedder-rs/source"
)

var (
	faiPath    = flag.String("fai", "", "samtools .fai index defining chromosome order (required)")
	queryBed   = flag.String("query", "", "query BED path (required)")
	dbBeds     = flag.String("db", "", "comma-separated database BED paths (required, at least one)")
	metricsOut = flag.Bool("metrics", false, "print final counters to stderr on exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -fai ref.fai -query a.bed -db b.bed[,c.bed,...]\n", os.Args[0])
	flag.PrintDefaults()
}

// config holds the parsed command-line inputs; separated from the package
// flag.Var()s so run can be exercised directly from a test without touching
// os.Args or os.Exit.
type config struct {
	faiPath   string
	queryBed  string
	dbBeds    []string
	recordOut bool
}

// run wires the adapters and the engine together and streams one overlap
// line per query interval to out. It returns metrics gathered over the run,
// or nil if cfg.recordOut is false.
func run(cfg config, out io.Writer) (*metrics.PrometheusRecorder, error) {
	order, err := chromorder.FromFAIPath(cfg.faiPath)
	if err != nil {
		return nil, fmt.Errorf("loading chromosome order: %w", err)
	}

	query, err := bed.Open(cfg.queryBed, order)
	if err != nil {
		return nil, fmt.Errorf("opening query: %w", err)
	}
	defer query.Close() // nolint:errcheck

	sources := make([]source.PositionedIterator, 0, len(cfg.dbBeds)+1)
	sources = append(sources, query)
	for _, p := range cfg.dbBeds {
		db, err := bed.Open(p, order)
		if err != nil {
			return nil, fmt.Errorf("opening database %q: %w", p, err)
		}
		defer db.Close() // nolint:errcheck
		sources = append(sources, db)
	}

	engine := intersect.New(sources)
	var recorder *metrics.PrometheusRecorder
	if cfg.recordOut {
		names := make(map[source.SourceID]string, len(cfg.dbBeds))
		for i, p := range cfg.dbBeds {
			names[source.SourceID(i+1)] = p
		}
		recorder = metrics.NewPrometheusRecorder(func(id source.SourceID) string { return names[id] })
		engine.SetRecorder(recorder)
	}

	for {
		result, err := engine.Next()
		if err != nil {
			return recorder, fmt.Errorf("intersecting: %w", err)
		}
		if result == nil {
			return recorder, nil
		}
		fmt.Fprintf(out, "%s\t%d\t%d\t%d\n",
			order.Name(result.Base.Position.ChromID),
			result.Base.Position.Start,
			result.Base.Position.Stop,
			len(result.Overlapping))
	}
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *faiPath == "" || *queryBed == "" || *dbBeds == "" {
		usage()
		os.Exit(2)
	}

	cfg := config{
		faiPath:   *faiPath,
		queryBed:  *queryBed,
		dbBeds:    strings.Split(*dbBeds, ","),
		recordOut: *metricsOut,
	}
	recorder, err := run(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if recorder != nil {
		mfs, err := recorder.Registry().Gather()
		if err != nil {
			log.Error.Printf("gathering metrics: %v", err)
		}
		for _, mf := range mfs {
			fmt.Fprintf(os.Stderr, "%s\n", mf.String())
		}
	}
}
