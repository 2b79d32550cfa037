// Package pipeline drives a connector run: it pulls chunks from the
// reader, validates every row, assembles batches, and submits them to
// ShowAds, keeping counters for the final summary.
//
// A failed batch does not stop the run; its customers are counted and
// the pass carries on. Only input-level errors (an unreadable source)
// or a cancelled context abort the pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/meiro/showads-connector/internal/batch"
	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/customer"
	"github.com/meiro/showads-connector/internal/ingest"
	"github.com/meiro/showads-connector/internal/pkg/logger"
)

// Stats carries at most this many sample rejection reasons; the full
// stream is in the log.
const maxSampleRejections = 10

// Submitter delivers one batch to ShowAds. A nil error means the whole
// batch was accepted; any error means the whole batch failed.
type Submitter interface {
	SubmitBatch(ctx context.Context, b batch.Batch) error
}

// Stats counts what happened to every record of a run.
type Stats struct {
	TotalRead      int // data rows encountered, malformed included
	TotalValid     int // rows that passed validation
	TotalRejected  int // rows rejected by parsing or validation
	TotalSubmitted int // customers accepted by ShowAds
	TotalFailed    int // customers in batches that failed permanently
	Duration       time.Duration

	// SampleRejections holds the first few rejection reasons for the
	// run report.
	SampleRejections []string
}

// Pipeline wires the collaborators of a single forward pass.
type Pipeline struct {
	reader    *ingest.Reader
	validator *customer.Validator
	assembler *batch.Assembler
	submitter Submitter
}

// New builds a Pipeline over an open reader. The age bounds and batch
// size come from cfg; sub is normally the showads client.
func New(cfg *config.Config, r *ingest.Reader, sub Submitter) *Pipeline {
	return &Pipeline{
		reader:    r,
		validator: customer.NewValidator(cfg.Validation),
		assembler: batch.NewAssembler(cfg.ShowAds.BatchSize),
		submitter: sub,
	}
}

// Run performs the single forward pass over the input. The returned
// error is non-nil only when the pass could not finish: a source read
// failure or a cancelled context. Batch failures are absorbed into the
// counters, and the summary is logged whenever the pass completes.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		chunk, err := p.reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		logger.Debug("pipeline: chunk read",
			"records", len(chunk.Records), "malformed", len(chunk.Malformed))

		for _, rej := range chunk.Malformed {
			stats.TotalRead++
			p.recordRejection(&stats, rej)
		}
		for _, rec := range chunk.Records {
			stats.TotalRead++
			cust, rej := p.validator.Validate(rec)
			if rej != nil {
				p.recordRejection(&stats, *rej)
				continue
			}
			stats.TotalValid++
			if b, ok := p.assembler.Add(cust); ok {
				if err := p.submitBatch(ctx, b, &stats); err != nil {
					return stats, err
				}
			}
		}
	}

	if b, ok := p.assembler.Flush(); ok {
		if err := p.submitBatch(ctx, b, &stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	logger.Info("pipeline: run complete",
		"total_read", stats.TotalRead,
		"valid", stats.TotalValid,
		"rejected", stats.TotalRejected,
		"submitted", stats.TotalSubmitted,
		"failed", stats.TotalFailed,
		"duration", stats.Duration.Round(time.Millisecond).String(),
	)
	return stats, nil
}

func (p *Pipeline) recordRejection(stats *Stats, rej customer.Rejection) {
	stats.TotalRejected++
	logger.Warn("pipeline: record rejected", "line", rej.Line, "reason", rej.Reason)
	if len(stats.SampleRejections) < maxSampleRejections {
		stats.SampleRejections = append(stats.SampleRejections,
			fmt.Sprintf("line %d: %s", rej.Line, rej.Reason))
	}
}

// submitBatch submits one batch and folds the outcome into the stats.
// The returned error is non-nil only when the context was cancelled.
func (p *Pipeline) submitBatch(ctx context.Context, b batch.Batch, stats *Stats) error {
	if err := p.submitter.SubmitBatch(ctx, b); err != nil {
		stats.TotalFailed += len(b)
		logger.Error("pipeline: batch failed", "size", len(b), "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	stats.TotalSubmitted += len(b)
	logger.Info("pipeline: batch submitted", "size", len(b))
	return nil
}
