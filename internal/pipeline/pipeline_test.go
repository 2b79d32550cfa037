package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meiro/showads-connector/internal/batch"
	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/ingest"
)

const header = "Name,Age,Cookie,Banner_id\n"

func validRow(name string) string {
	return name + ",30,0f71e343-b491-4a4b-a571-6c2f6c0c66e5,5\n"
}

// fakeSubmitter records every batch it is handed and fails the
// submissions listed in failOn.
type fakeSubmitter struct {
	batches []batch.Batch
	failOn  map[int]error // 1-based submission index -> forced error
	onCall  func(call int)
}

func (f *fakeSubmitter) SubmitBatch(ctx context.Context, b batch.Batch) error {
	f.batches = append(f.batches, b)
	call := len(f.batches)
	if f.onCall != nil {
		f.onCall(call)
	}
	if err, ok := f.failOn[call]; ok {
		return err
	}
	return ctx.Err()
}

func newTestPipeline(t *testing.T, input string, batchSize int, sub Submitter) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.ShowAds.BatchSize = batchSize
	r, err := ingest.NewReader(strings.NewReader(input), cfg.Ingest.ChunkSize)
	require.NoError(t, err)
	return New(cfg, r, sub)
}

func TestRunSubmitsAllValidRecordsInOrder(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header)
	names := []string{"Ann", "Ben", "Cal", "Dot", "Eli"}
	for _, n := range names {
		sb.WriteString(validRow(n))
	}

	sub := &fakeSubmitter{}
	p := newTestPipeline(t, sb.String(), 2, sub)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalRead)
	assert.Equal(t, 5, stats.TotalValid)
	assert.Equal(t, 0, stats.TotalRejected)
	assert.Equal(t, 5, stats.TotalSubmitted)
	assert.Equal(t, 0, stats.TotalFailed)

	require.Len(t, sub.batches, 3)
	assert.Len(t, sub.batches[0], 2)
	assert.Len(t, sub.batches[1], 2)
	assert.Len(t, sub.batches[2], 1)

	var got []string
	for _, b := range sub.batches {
		for _, c := range b {
			got = append(got, c.Name)
		}
	}
	assert.Equal(t, names, got)
}

func TestRunCountsRejections(t *testing.T) {
	input := header +
		validRow("Ann") +
		"B0b,30,0f71e343-b491-4a4b-a571-6c2f6c0c66e5,5\n" + // digit in name
		"Cal,seventeen,0f71e343-b491-4a4b-a571-6c2f6c0c66e5,5\n" + // unparseable age
		"broken,row\n" + // wrong field count
		validRow("Dot")

	sub := &fakeSubmitter{}
	p := newTestPipeline(t, input, 10, sub)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalRead)
	assert.Equal(t, 2, stats.TotalValid)
	assert.Equal(t, 3, stats.TotalRejected)
	assert.Equal(t, 2, stats.TotalSubmitted)
	assert.Equal(t, stats.TotalRead, stats.TotalValid+stats.TotalRejected)

	require.Len(t, stats.SampleRejections, 3)
	// Malformed rows of a chunk surface before its validation
	// rejections; every sample names its input line.
	assert.Contains(t, stats.SampleRejections[0], "line 5:")
	assert.Contains(t, stats.SampleRejections[1], "name")
	assert.Contains(t, stats.SampleRejections[2], "age")
}

func TestRunContinuesAfterBatchFailure(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < 6; i++ {
		sb.WriteString(validRow("Ann"))
	}

	sub := &fakeSubmitter{failOn: map[int]error{2: errors.New("boom")}}
	p := newTestPipeline(t, sb.String(), 2, sub)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, sub.batches, 3)
	assert.Equal(t, 6, stats.TotalValid)
	assert.Equal(t, 4, stats.TotalSubmitted)
	assert.Equal(t, 2, stats.TotalFailed)
}

func TestRunHeaderOnlyInputSucceedsWithZeroStats(t *testing.T) {
	sub := &fakeSubmitter{}
	p := newTestPipeline(t, header, 10, sub)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRead)
	assert.Empty(t, sub.batches)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < 4; i++ {
		sb.WriteString(validRow("Ann"))
	}

	// The first submission cancels the run; no further batch may be tried.
	sub := &fakeSubmitter{onCall: func(int) { cancel() }}
	p := newTestPipeline(t, sb.String(), 2, sub)

	stats, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sub.batches, 1)
	assert.Equal(t, 2, stats.TotalFailed)
	assert.Zero(t, stats.TotalSubmitted)
}

func TestRunPreCancelledContextDoesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := &fakeSubmitter{}
	p := newTestPipeline(t, header+validRow("Ann"), 2, sub)

	stats, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.TotalRead)
	assert.Empty(t, sub.batches)
}

func TestRunSampleRejectionsAreCapped(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < 15; i++ {
		sb.WriteString("Ann,notanage,0f71e343-b491-4a4b-a571-6c2f6c0c66e5,5\n")
	}

	sub := &fakeSubmitter{}
	p := newTestPipeline(t, sb.String(), 10, sub)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, stats.TotalRejected)
	assert.Len(t, stats.SampleRejections, maxSampleRejections)
	assert.Empty(t, sub.batches)
}

// erroringReader yields its data, then a permanent read error.
type erroringReader struct {
	data string
	off  int
}

func (e *erroringReader) Read(p []byte) (int, error) {
	if e.off >= len(e.data) {
		return 0, errors.New("stream reset")
	}
	n := copy(p, e.data[e.off:])
	e.off += n
	return n, nil
}

func TestRunAbortsOnSourceError(t *testing.T) {
	cfg := config.Default()
	r, err := ingest.NewReader(&erroringReader{data: header + validRow("Ann")}, cfg.Ingest.ChunkSize)
	require.NoError(t, err)

	sub := &fakeSubmitter{}
	p := New(cfg, r, sub)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream reset")
	assert.Empty(t, sub.batches)
}
