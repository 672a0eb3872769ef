package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/perbu/vecalign/pkg/config"
	"github.com/perbu/vecalign/pkg/embedder"
	"github.com/perbu/vecalign/pkg/loader"
	"github.com/perbu/vecalign/pkg/vecalign"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	fastaPath := flag.String("fasta", "", "FASTA file with the sequences to embed")
	outDir := flag.String("out", cfg.EmbeddingsDir, "directory receiving one .gob table per sequence")
	model := flag.String("model", "onehot", "embedder to use")
	normalize := flag.Bool("normalize", false, "scale every vector to unit length")
	force := flag.Bool("force", false, "regenerate tables that already exist")
	concurrency := flag.Int("concurrency", cfg.Workers, "sequences embedded in parallel")
	flag.Parse()

	if *fastaPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: generate-embeddings -fasta <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("VecAlign Embedding Generation Tool")
	fmt.Println("==================================")
	fmt.Println()

	// Stop scheduling new sequences on interrupt. Tables are written through
	// a temporary file, so anything already on disk stays valid.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var interrupted atomic.Bool
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠ Interrupt received, finishing sequences in progress...")
		interrupted.Store(true)
	}()

	// Step 1: Load sequences
	fmt.Println("Step 1: Loading sequences...")
	seqs, err := loader.ReadFASTA(*fastaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sequences: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Loaded %d sequences from %s\n\n", len(seqs), *fastaPath)

	// Step 2: Initialize embedder
	fmt.Println("Step 2: Initializing embedder...")
	emb, err := embedder.ByName(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing embedder: %v\n", err)
		os.Exit(1)
	}
	modelInfo := embedder.Label(emb.ModelInfo(), *normalize)
	fmt.Printf("  ✓ Embedder initialized (model=%s, dim=%d)\n\n", modelInfo, emb.Dimension())

	// Step 3: Skip sequences whose tables are already up to date
	toProcess := make([]vecalign.Sequence, 0, len(seqs))
	for _, s := range seqs {
		if !*force && upToDate(*outDir, s, modelInfo) {
			continue
		}
		toProcess = append(toProcess, s)
	}
	if len(toProcess) < len(seqs) {
		fmt.Printf("Found %d/%d tables already generated\n", len(seqs)-len(toProcess), len(seqs))
	}

	fmt.Println("Step 3: Generating embeddings...")
	if len(toProcess) == 0 {
		fmt.Println("  ✓ All embeddings already generated!")
		return
	}

	var mu sync.Mutex
	completed := len(seqs) - len(toProcess)

	var wg sync.WaitGroup
	errChan := make(chan error, len(toProcess))
	sem := make(chan struct{}, max(*concurrency, 1)) // Limit concurrent work

	for _, s := range toProcess {
		if interrupted.Load() {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(s vecalign.Sequence) {
			defer wg.Done()
			defer func() { <-sem }()

			vectors, err := emb.Embed(s.Residues)
			if err != nil {
				errChan <- fmt.Errorf("sequence %s: %w", s.ID, err)
				return
			}
			if *normalize {
				embedder.Normalize(vectors)
			}

			data := &embedder.Data{
				ID:        s.ID,
				Residues:  s.Residues,
				Vectors:   vectors,
				ModelInfo: modelInfo,
				Dimension: emb.Dimension(),
			}
			if err := embedder.Save(embedder.PathFor(*outDir, s.ID), data); err != nil {
				errChan <- fmt.Errorf("sequence %s: %w", s.ID, err)
				return
			}

			mu.Lock()
			completed++
			// Show progress
			fmt.Printf("\r  Progress: %d/%d (%.1f%%)", completed, len(seqs), float64(completed)/float64(len(seqs))*100)
			mu.Unlock()
		}(s)
	}

	wg.Wait()
	close(errChan)
	fmt.Println()

	// Check for errors - collect all errors first
	var embedErrors []error
	for err := range errChan {
		embedErrors = append(embedErrors, err)
	}

	if len(embedErrors) > 0 {
		fmt.Fprintf(os.Stderr, "\n⚠ Encountered %d error(s) during embedding:\n", len(embedErrors))
		for _, err := range embedErrors {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		fmt.Println("\nCompleted tables were kept. Run again to resume.")
		os.Exit(1)
	}
	if interrupted.Load() {
		fmt.Printf("Stopped after %d/%d sequences. Run again to resume.\n", completed, len(seqs))
		os.Exit(1)
	}

	fmt.Printf("  ✓ Wrote %d tables to %s\n\n", len(toProcess), *outDir)
	fmt.Println("Done! Embeddings are ready for use with vecalign -scorer cosine.")
}

// upToDate reports whether a stored table exists for s that was produced by
// model for the same residues.
func upToDate(dir string, s vecalign.Sequence, model string) bool {
	d, err := embedder.Load(embedder.PathFor(dir, s.ID))
	if err != nil {
		return false
	}
	return d.ModelInfo == model && d.Residues == s.Residues
}
