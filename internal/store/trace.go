package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceEntry is one line of a run's history trace (trace.jsonl): the best
// score of one algorithm at one step of one trial.
type TraceEntry struct {
	Algorithm string `json:"algorithm"`
	Trial     int    `json:"trial"`

	// Generation is the GA generation, beam depth or Mayfly step (from 1).
	Generation int `json:"generation"`

	Best      float64   `json:"best"`
	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter streams entries into a temporary file next to the trace and
// publishes it on Close, so a reader never sees a half-written trace.
// It is safe for concurrent use.
type TraceWriter struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	enc     *json.Encoder
	path    string
	entries int
}

// NewTraceWriter starts a trace for <baseDir>/jobs/<runID>/trace.jsonl. An
// existing trace of the same run is replaced when the writer is closed.
func NewTraceWriter(baseDir, runID string) (*TraceWriter, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "jobs", runID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := tracePath(baseDir, runID)
	file, err := os.Create(path + ".tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	buf := bufio.NewWriterSize(file, 64*1024)
	return &TraceWriter{file: file, buf: buf, enc: json.NewEncoder(buf), path: path}, nil
}

// Write appends one entry.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	tw.entries++
	return nil
}

// WriteHistory writes one entry per step of a trial's history, numbering
// the steps from 1.
func (tw *TraceWriter) WriteHistory(algorithm string, trial int, history []float64) error {
	now := time.Now()
	for i, best := range history {
		err := tw.Write(TraceEntry{Algorithm: algorithm, Trial: trial, Generation: i + 1, Best: best, Timestamp: now})
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush pushes buffered entries to the temporary file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	return nil
}

// Close flushes, syncs and publishes the trace under its final name.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tmp := tw.file.Name()
	err := tw.buf.Flush()
	if err == nil {
		err = tw.file.Sync()
	}
	if cerr := tw.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finish trace: %w", err)
	}

	if err := os.Rename(tmp, tw.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish trace: %w", err)
	}
	return nil
}

// Abort discards everything written so far. A previously published trace
// of the run is left untouched.
func (tw *TraceWriter) Abort() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.file.Close()
	if err := os.Remove(tw.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard trace: %w", err)
	}
	return nil
}

// Entries returns the number of entries written.
func (tw *TraceWriter) Entries() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.entries
}

// Path returns the final path of the trace.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader reads trace entries from a JSONL file.
type TraceReader struct {
	file *os.File
	dec  *json.Decoder
}

// NewTraceReader opens the published trace of the given run.
func NewTraceReader(baseDir, runID string) (*TraceReader, error) {
	file, err := os.Open(tracePath(baseDir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: runID}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &TraceReader{file: file, dec: json.NewDecoder(bufio.NewReader(file))}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	var entry TraceEntry
	if err := tr.dec.Decode(&entry); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode trace entry: %w", err)
	}
	return &entry, nil
}

// ReadAll reads the remaining entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry
	for {
		entry, err := tr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
}

// Close closes the trace reader.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// ReadTrace loads every entry of a run's trace.
func ReadTrace(baseDir, runID string) ([]TraceEntry, error) {
	tr, err := NewTraceReader(baseDir, runID)
	if err != nil {
		return nil, err
	}
	defer tr.Close()
	return tr.ReadAll()
}

// TraceKey identifies one trial of one algorithm within a trace.
type TraceKey struct {
	Algorithm string
	Trial     int
}

// Histories regroups trace entries into per-trial histories, indexed by
// step. Keys are returned in order of first appearance.
func Histories(entries []TraceEntry) ([]TraceKey, map[TraceKey][]float64) {
	var keys []TraceKey
	out := make(map[TraceKey][]float64)
	for _, e := range entries {
		k := TraceKey{Algorithm: e.Algorithm, Trial: e.Trial}
		h, seen := out[k]
		if !seen {
			keys = append(keys, k)
		}
		for len(h) < e.Generation {
			h = append(h, 0)
		}
		if e.Generation >= 1 {
			h[e.Generation-1] = e.Best
		}
		out[k] = h
	}
	return keys, out
}

// DeleteTrace removes the run's trace, any unfinished temporary trace and
// the run directory if that is left empty. A missing trace is not an error.
func DeleteTrace(baseDir, runID string) error {
	path := tracePath(baseDir, runID)
	for _, p := range []string{path, path + ".tmp"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete trace file: %w", err)
		}
	}

	// fails harmlessly when run.json is still there
	_ = os.Remove(filepath.Join(baseDir, "jobs", runID))
	return nil
}

func tracePath(baseDir, runID string) string {
	return filepath.Join(baseDir, "jobs", runID, "trace.jsonl")
}
