package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/perbu/vecalign/pkg/batch"
	"github.com/perbu/vecalign/pkg/config"
	"github.com/perbu/vecalign/pkg/logging"
	"github.com/perbu/vecalign/pkg/metrics"
	"github.com/perbu/vecalign/pkg/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	manifestPath := flag.String("manifest", "", "YAML manifest describing the pairs to align")
	metricsFile := flag.String("metrics-file", "", "write Prometheus metrics to this file when done")
	reportPath := flag.String("report", "", "CSV report path (default: report.csv next to the manifest)")
	top := flag.Int("top", 0, "only list the N highest scoring pairs")
	workers := flag.Int("workers", 0, "override the number of concurrent alignments")
	verbose := flag.Bool("verbose", false, "enable verbose output for debugging")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: vecalign-batch -manifest <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	m, err := batch.LoadManifest(*manifestPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		m.Workers = *workers
	}

	// Stop launching alignments on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, runErr := batch.Run(ctx, m, logger)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pair\tseq1\tseq2\tscore\tcolumns\tidentity\ttcs\tsimilarity\n")
	for _, res := range batch.Top(rep.Results, *top, 0) {
		if res.ID == "" {
			continue
		}
		tcs, sim := "-", "-"
		if c := res.Comparison; c != nil {
			tcs, sim = fmt.Sprintf("%.2f", c.TCS), fmt.Sprintf("%.2f", c.Similarity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%.2f\t%s\t%s\n",
			res.Pair.Name, res.Record.Seq1.ID, res.Record.Seq2.ID,
			res.Record.Score, res.Record.Len(), res.Record.Identity(), tcs, sim)
	}
	tw.Flush()
	fmt.Printf("\nRun %s finished in %s\n", rep.RunID, rep.Duration)

	if rows := rep.Rows(); len(rows) > 0 {
		path := *reportPath
		if path == "" {
			path = filepath.Join(filepath.Dir(*manifestPath), "report.csv")
		}
		if err := writeReport(path, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ Wrote %d comparisons to %s\n", len(rows), path)
	}

	if *metricsFile != "" {
		if err := metrics.WriteFile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write metrics: %v\n", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func writeReport(path string, rows []report.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
