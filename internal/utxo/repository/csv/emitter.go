// Package csv writes extracted rows as plain or zstd-compressed CSV files.
package csv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zstd"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Header is written once at the top of every file.
const Header = "timestamp,address,value\n"

const defaultBufferSize = 1 << 20

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

type Metrics interface {
	ObserveEmit(err error)
	ObserveFlush(err error, started time.Time)
}

// Options configure an Emitter. Zero values select a 1 MiB buffer and no compression.
type Options struct {
	BufferSize  int
	Compression Compression
	Metrics     Metrics
}

var errClosed = errors.New("csv emitter closed")

// Emitter writes rows as "timestamp,label,value" lines. Fields are not quoted: a label
// is a canonical address set and contains no commas.
type Emitter struct {
	dst     io.WriteCloser
	enc     *zstd.Encoder
	w       *bufio.Writer
	metrics Metrics
	line    []byte
	closed  bool
}

// FileName returns the fixed file name for stream.
func FileName(stream model.Stream, compression Compression) string {
	name := "output.csv"
	if stream == model.Inputs {
		name = "input.csv"
	}
	if compression == CompressionZstd {
		name += ".zst"
	}
	return name
}

// Create truncates or creates path and returns an emitter writing to it.
func Create(path string, opts Options) (*Emitter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	e, err := NewEmitter(f, opts)
	if err != nil {
		return nil, multierror.Append(err, f.Close()).ErrorOrNil()
	}
	return e, nil
}

// NewEmitter takes ownership of dst and buffers the header line.
func NewEmitter(dst io.WriteCloser, opts Options) (*Emitter, error) {
	size := opts.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	e := &Emitter{
		dst:     dst,
		metrics: metrics,
		line:    make([]byte, 0, 128),
	}

	var sink io.Writer = dst
	switch opts.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("init zstd encoder: %w", err)
		}
		e.enc = enc
		sink = enc
	default:
		return nil, fmt.Errorf("unsupported compression %q", opts.Compression)
	}

	e.w = bufio.NewWriterSize(sink, size)
	if _, err := e.w.WriteString(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return e, nil
}

// Emit appends one row to the buffer.
func (e *Emitter) Emit(_ context.Context, row model.Row) (err error) {
	defer func() {
		e.metrics.ObserveEmit(err)
	}()

	if e.closed {
		return errClosed
	}

	e.line = strconv.AppendInt(e.line[:0], row.Timestamp, 10)
	e.line = append(e.line, ',')
	e.line = append(e.line, row.Label...)
	e.line = append(e.line, ',')
	e.line = strconv.AppendUint(e.line, row.Value, 10)
	e.line = append(e.line, '\n')

	if _, err = e.w.Write(e.line); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Flush pushes buffered rows, and the pending compressed block if any, to the destination.
func (e *Emitter) Flush(_ context.Context) (err error) {
	started := time.Now()
	defer func() {
		e.metrics.ObserveFlush(err, started)
	}()

	if e.closed {
		return errClosed
	}
	if err = e.w.Flush(); err != nil {
		return fmt.Errorf("flush buffer: %w", err)
	}
	if e.enc != nil {
		if err = e.enc.Flush(); err != nil {
			return fmt.Errorf("flush zstd: %w", err)
		}
	}
	return nil
}

// Close flushes and releases the destination. Every step runs even when an earlier one
// failed, and all failures are returned together.
func (e *Emitter) Close() error {
	if e.closed {
		return nil
	}

	var result *multierror.Error
	if err := e.Flush(context.Background()); err != nil {
		result = multierror.Append(result, err)
	}
	e.closed = true

	if e.enc != nil {
		if err := e.enc.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close zstd: %w", err))
		}
	}
	if err := e.dst.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close destination: %w", err))
	}
	return result.ErrorOrNil()
}

type nopMetrics struct{}

func (nopMetrics) ObserveEmit(error)             {}
func (nopMetrics) ObserveFlush(error, time.Time) {}
