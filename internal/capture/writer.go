package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format selects the on-disk encoding of a capture file.
type Format int

// Capture file formats
const (
	FormatJSONL Format = iota // one JSON object per line
	FormatCBOR                // sequence of CBOR maps
)

// FormatForPath picks the encoding from a file extension. Anything that
// is not .cbor is treated as JSONL.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSONL
}

// Writer appends capture entries to a file. Not safe for concurrent use.
type Writer struct {
	f      *os.File
	buf    *bufio.Writer
	format Format
	jsonE  *json.Encoder
	cborE  *cbor.Encoder
	count  int
}

// NewWriter creates (or truncates) a capture file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	return newWriter(f, FormatForPath(path)), nil
}

func newWriter(f *os.File, format Format) *Writer {
	w := &Writer{
		f:      f,
		buf:    bufio.NewWriter(f),
		format: format,
	}
	switch format {
	case FormatCBOR:
		w.cborE = cbor.NewEncoder(w.buf)
	default:
		w.jsonE = json.NewEncoder(w.buf)
	}
	return w
}

// Write appends one entry.
func (w *Writer) Write(e Entry) error {
	var err error
	switch w.format {
	case FormatCBOR:
		err = w.cborE.Encode(e)
	default:
		err = w.jsonE.Encode(e)
	}
	if err != nil {
		return fmt.Errorf("failed to write capture entry: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush capture file: %w", err)
	}
	return w.f.Close()
}

// Reader iterates over the entries of a capture file. Malformed JSONL
// lines are skipped and counted rather than aborting the read; a capture
// cut off mid-write should still replay up to the damage.
type Reader struct {
	f       *os.File
	format  Format
	scanner *bufio.Scanner
	cborD   *cbor.Decoder
	skipped int
}

// NewReader opens a capture file for iteration.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	r := &Reader{f: f, format: FormatForPath(path)}
	switch r.format {
	case FormatCBOR:
		r.cborD = cbor.NewDecoder(bufio.NewReader(f))
	default:
		r.scanner = bufio.NewScanner(f)
		r.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	}
	return r, nil
}

// Next returns the next entry, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Entry, error) {
	var e Entry
	switch r.format {
	case FormatCBOR:
		if err := r.cborD.Decode(&e); err != nil {
			if err == io.EOF {
				return Entry{}, io.EOF
			}
			return Entry{}, fmt.Errorf("failed to decode capture entry: %w", err)
		}
		return e, nil
	default:
		for r.scanner.Scan() {
			line := strings.TrimSpace(r.scanner.Text())
			if line == "" {
				continue
			}
			if err := json.Unmarshal([]byte(line), &e); err != nil {
				r.skipped++
				continue
			}
			return e, nil
		}
		if err := r.scanner.Err(); err != nil {
			return Entry{}, fmt.Errorf("failed to read capture file: %w", err)
		}
		return Entry{}, io.EOF
	}
}

// Skipped returns the number of malformed lines ignored so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadAll loads every entry of a capture file.
func ReadAll(path string) ([]Entry, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []Entry
	for {
		e, err := r.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}
