package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/perbu/vecalign/pkg/batch"
	"github.com/perbu/vecalign/pkg/config"
	"github.com/perbu/vecalign/pkg/loader"
	"github.com/perbu/vecalign/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Parse command line flags
	file1 := flag.String("file1", "", "FASTA file holding the first sequence")
	file2 := flag.String("file2", "", "FASTA file holding the second sequence")
	emb1 := flag.String("emb1", "", "embedding table for the first sequence (.gob or text matrix)")
	emb2 := flag.String("emb2", "", "embedding table for the second sequence (.gob or text matrix)")
	gopen := flag.Float64("gopen", cfg.GapOpen, "gap opening penalty")
	gext := flag.Float64("gext", cfg.GapExtend, "gap extension penalty")
	scorer := flag.String("scorer", cfg.Scorer, "residue scorer: cosine, blosum45 or blosum62")
	out := flag.String("out", "", "write the MSF alignment to this file instead of stdout")
	ref := flag.String("ref", "", "reference MSF alignment to compare against")
	verbose := flag.Bool("verbose", false, "enable verbose output for debugging")
	flag.Parse()

	if *file1 == "" || *file2 == "" {
		fmt.Fprintf(os.Stderr, "Usage: vecalign -file1 <fasta> -file2 <fasta> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg.GapOpen, cfg.GapExtend, cfg.Scorer = *gopen, *gext, *scorer
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	m, err := batch.Single(cfg, batch.Pair{
		Name:      "cli",
		Seq1:      *file1,
		Seq2:      *file2,
		Emb1:      *emb1,
		Emb2:      *emb2,
		Reference: *ref,
		Output:    *out,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rep, err := batch.Run(context.Background(), m, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error aligning: %v\n", err)
		os.Exit(1)
	}
	res := rep.Results[0]

	logger.Debug("alignment finished",
		slog.String("scorer", res.Record.Scorer),
		slog.Float64("score", res.Record.Score),
		slog.Int("columns", res.Record.Len()),
		slog.Float64("identity", res.Record.Identity()),
		slog.Duration("duration", res.Duration))

	if *out == "" {
		if err := loader.WriteMSF(os.Stdout, res.Record, res.Record.Seq1.ID, res.Record.Seq2.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing alignment: %v\n", err)
			os.Exit(1)
		}
	}

	if res.Comparison != nil {
		c := res.Comparison
		fmt.Printf("TCS: %.2f | Reference length: %d | Comparison length: %d | Similarity: %.2f\n",
			c.TCS, c.RefLength, c.ComparisonLength, c.Similarity)
	}
}
