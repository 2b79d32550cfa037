// Package batch accumulates validated customers into size-bounded batches
// for bulk submission.
package batch

import (
	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/customer"
)

// Batch is an ordered group of customers submitted in a single API call.
type Batch []customer.Customer

// Assembler groups customers into batches of a fixed size. A batch is
// emitted exactly when it fills; whatever remains at end of input is
// emitted by Flush. An Assembler never emits an empty batch.
//
// Accumulation is independent of how the input was chunked: a batch may
// span several input chunks.
type Assembler struct {
	size    int
	pending Batch
}

// NewAssembler creates an Assembler emitting batches of the given size,
// clamped to [1, config.MaxBatchSize].
func NewAssembler(size int) *Assembler {
	if size < 1 {
		size = 1
	}
	if size > config.MaxBatchSize {
		size = config.MaxBatchSize
	}
	return &Assembler{size: size, pending: make(Batch, 0, size)}
}

// Add appends c to the pending batch. When c fills the batch, the full
// batch is returned and a fresh one is started.
func (a *Assembler) Add(c customer.Customer) (Batch, bool) {
	a.pending = append(a.pending, c)
	if len(a.pending) < a.size {
		return nil, false
	}
	full := a.pending
	a.pending = make(Batch, 0, a.size)
	return full, true
}

// Flush returns the final partial batch, or false if nothing is pending.
func (a *Assembler) Flush() (Batch, bool) {
	if len(a.pending) == 0 {
		return nil, false
	}
	rest := a.pending
	a.pending = make(Batch, 0, a.size)
	return rest, true
}
