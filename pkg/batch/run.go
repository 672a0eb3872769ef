// Package batch runs many pairwise alignments described by a YAML manifest.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/perbu/vecalign/pkg/embedder"
	"github.com/perbu/vecalign/pkg/loader"
	"github.com/perbu/vecalign/pkg/logging"
	"github.com/perbu/vecalign/pkg/metrics"
	"github.com/perbu/vecalign/pkg/report"
	"github.com/perbu/vecalign/pkg/vecalign"
)

// Result is the outcome of one pair.
type Result struct {
	ID         string
	Pair       Pair
	Record     vecalign.Record
	Comparison *vecalign.Comparison // nil without a reference
	Duration   time.Duration
}

// Report collects the results of a run in manifest order.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []Result
}

// Rows returns a CSV row for every result that was compared against a
// reference, labelled with the scorer used.
func (r *Report) Rows() []report.Row {
	var rows []report.Row
	for _, res := range r.Results {
		if res.Comparison == nil {
			continue
		}
		rows = append(rows, report.RowFrom(*res.Comparison, res.Record.Scorer))
	}
	return rows
}

// Run aligns every pair of the manifest with at most m.Workers alignments in
// flight. Cancellation is observed between alignments; a matrix fill that has
// started runs to completion. The first failing pair cancels the rest and its
// error is returned together with the partial report.
func Run(ctx context.Context, m *Manifest, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	rep := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]Result, len(m.Pairs)),
	}
	logger = logger.With(slog.String("run_id", rep.RunID))
	logger.Info("batch started", slog.Int("pairs", len(m.Pairs)), slog.Int("workers", m.Workers), slog.String("scorer", m.Scorer))

	fallback := embedder.NewOneHotEmbedder()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.Workers, 1))

	for i, p := range m.Pairs {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := runPair(ctx, m, p, fallback, logger)
			rep.Results[i] = res
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	rep.Duration = time.Since(rep.Started)
	if err != nil {
		logger.Error("batch failed", slog.Any("error", err))
		return rep, err
	}
	logger.Info("batch finished", slog.Duration("duration", rep.Duration))
	return rep, nil
}

func runPair(ctx context.Context, m *Manifest, p Pair, fallback embedder.Embedder, logger *slog.Logger) (Result, error) {
	res := Result{ID: uuid.NewString(), Pair: p}
	ctx, event := logging.NewEventContext(ctx)
	logging.AddToEvent(ctx, slog.String("pair", p.Name), slog.String("job_id", res.ID))
	defer func() {
		logger.Debug("pair processed", event.Attrs()...)
	}()

	seq1, err := loader.ReadFirst(p.Seq1)
	if err != nil {
		return res, err
	}
	seq2, err := loader.ReadFirst(p.Seq2)
	if err != nil {
		return res, err
	}
	logging.AddToEvent(ctx, slog.String("seq1", seq1.ID), slog.String("seq2", seq2.ID))

	scorer, err := newScorer(m, p, seq1, seq2, fallback)
	if err != nil {
		return res, err
	}

	start := time.Now()
	rec, err := vecalign.Align(seq1, seq2, scorer, m.Gaps())
	res.Duration = time.Since(start)
	if err != nil {
		metrics.AlignmentsTotal.WithLabelValues(scorer.Name(), "error").Inc()
		return res, err
	}
	res.Record = rec
	metrics.AlignmentsTotal.WithLabelValues(scorer.Name(), "ok").Inc()
	metrics.AlignmentDuration.WithLabelValues(scorer.Name()).Observe(res.Duration.Seconds())
	metrics.DPCells.Add(float64(seq1.Len() * seq2.Len()))
	logging.AddToEvent(ctx, slog.Float64("score", rec.Score), slog.Int("columns", rec.Len()), slog.Duration("align", res.Duration))

	if p.Output != "" {
		if err := writeMSF(p.Output, rec, seq1.ID, seq2.ID); err != nil {
			return res, err
		}
	}

	if p.Reference != "" {
		cmp, err := compareReference(p, rec)
		if err != nil {
			metrics.ComparisonsTotal.WithLabelValues("error").Inc()
			return res, err
		}
		metrics.ComparisonsTotal.WithLabelValues("ok").Inc()
		metrics.TCS.Observe(cmp.TCS)
		res.Comparison = &cmp
		logging.AddToEvent(ctx, slog.Float64("tcs", cmp.TCS), slog.Float64("similarity", cmp.Similarity))
	}
	return res, nil
}

func newScorer(m *Manifest, p Pair, seq1, seq2 vecalign.Sequence, fallback embedder.Embedder) (vecalign.Scorer, error) {
	switch m.Scorer {
	case "cosine", "embedding":
		t1, model1, err := embedder.Resolve(p.Emb1, m.EmbeddingsDir, seq1, fallback)
		if err != nil {
			return nil, err
		}
		t2, model2, err := embedder.Resolve(p.Emb2, m.EmbeddingsDir, seq2, fallback)
		if err != nil {
			return nil, err
		}
		encoder := model1
		if model1 != model2 {
			encoder = model1 + "+" + model2
		}
		return vecalign.ScorerByName(m.Scorer, t1, t2, encoder)
	default:
		return vecalign.ScorerByName(m.Scorer, nil, nil, "")
	}
}

func writeMSF(path string, rec vecalign.Record, id1, id2 string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := loader.WriteMSF(file, rec, id1, id2); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func compareReference(p Pair, rec vecalign.Record) (vecalign.Comparison, error) {
	id1, id2 := p.RefID1, p.RefID2
	if id1 == "" {
		id1 = rec.Seq1.ID
	}
	if id2 == "" {
		id2 = rec.Seq2.ID
	}

	file, err := os.Open(p.Reference)
	if err != nil {
		return vecalign.Comparison{}, err
	}
	defer file.Close()

	ref, err := loader.ReadMSF(file, id1, id2)
	if err != nil {
		return vecalign.Comparison{}, fmt.Errorf("reading reference %s: %w", p.Reference, err)
	}
	return vecalign.Compare(ref, rec)
}
