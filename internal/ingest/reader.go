// Package ingest reads customer CSV input in bounded chunks from local
// files or S3 objects.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meiro/showads-connector/internal/customer"
)

// The input schema. Column order is free but the set is fixed: every
// column must be present, spelled exactly like this, with no extras.
var requiredColumns = []string{"Name", "Age", "Cookie", "Banner_id"}

const defaultChunkSize = 10000

// Chunk is one bounded slice of the input. Records holds the rows that
// parsed cleanly; Malformed records the rows that did not. A chunk never
// exceeds the configured size counting both.
type Chunk struct {
	Records   []customer.RawRecord
	Malformed []customer.Rejection
}

// Reader streams the input in chunks in a single forward pass.
type Reader struct {
	csv       *csv.Reader
	chunkSize int
	cols      map[string]int
	line      int // rows consumed so far, header included
}

// NewReader prepares a chunked reader over r. It consumes and checks the
// header row immediately: a missing or invalid header is a fatal input
// error and no rows can be read afterwards.
func NewReader(r io.Reader, chunkSize int) (*Reader, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("input is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	return &Reader{csv: cr, chunkSize: chunkSize, cols: cols, line: 1}, nil
}

// mapColumns resolves the position of each required column. The match is
// case-sensitive and exact: unknown, duplicated, or missing columns all
// invalidate the header.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(requiredColumns))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if _, dup := cols[name]; dup {
			return nil, fmt.Errorf("invalid header: duplicate column %q", name)
		}
		known := false
		for _, want := range requiredColumns {
			if name == want {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("invalid header: unexpected column %q (want exactly %s)",
				name, strings.Join(requiredColumns, ", "))
		}
		cols[name] = i
	}
	for _, want := range requiredColumns {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("invalid header: missing column %q (want exactly %s)",
				want, strings.Join(requiredColumns, ", "))
		}
	}
	return cols, nil
}

// Next returns the next chunk of the input. At end of input it returns
// io.EOF; a final partial chunk is returned with a nil error first.
// Row-level problems (unparseable rows, wrong field counts) never stop
// the reader: they are reported in Chunk.Malformed and reading continues.
// Errors from the underlying source (a dropped S3 stream, a disk fault)
// are fatal and end the pass.
func (r *Reader) Next() (Chunk, error) {
	var chunk Chunk

	for len(chunk.Records)+len(chunk.Malformed) < r.chunkSize {
		row, err := r.csv.Read()
		if err == io.EOF {
			if len(chunk.Records) == 0 && len(chunk.Malformed) == 0 {
				return Chunk{}, io.EOF
			}
			return chunk, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return Chunk{}, fmt.Errorf("read input: %w", err)
			}
			r.line++
			chunk.Malformed = append(chunk.Malformed, customer.Rejection{
				Line:   r.line,
				Reason: fmt.Sprintf("unparseable row: %v", err),
			})
			continue
		}
		r.line++
		if len(row) != len(requiredColumns) {
			chunk.Malformed = append(chunk.Malformed, customer.Rejection{
				Line:   r.line,
				Reason: fmt.Sprintf("wrong number of fields: got %d, want %d", len(row), len(requiredColumns)),
			})
			continue
		}

		chunk.Records = append(chunk.Records, customer.RawRecord{
			Line:     r.line,
			Name:     row[r.cols["Name"]],
			Age:      row[r.cols["Age"]],
			Cookie:   row[r.cols["Cookie"]],
			BannerID: row[r.cols["Banner_id"]],
		})
	}

	return chunk, nil
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
