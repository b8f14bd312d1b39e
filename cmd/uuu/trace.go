package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thomasrohde/uuu/pkg/evaluator"
)

// traceWriter appends trace events to a file as JSON lines.
type traceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func openTrace(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &traceWriter{f: f, enc: enc}, nil
}

// Write records one event. Encoding failures drop the event.
func (w *traceWriter) Write(ev evaluator.TraceEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.enc.Encode(ev)
}

func (w *traceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

// TraceSummary aggregates a JSONL trace file.
type TraceSummary struct {
	RunIDs      []string       `json:"runIds"`
	TotalEvents int            `json:"totalEvents"`
	Runs        int            `json:"runs"`
	Calls       int            `json:"calls"`
	CallsByName map[string]int `json:"callsByName"`
	Errors      map[string]int `json:"errors"`
	DurationMs  float64        `json:"durationMs"`
}

type traceLine struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	Data  map[string]any `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	s := &TraceSummary{
		CallsByName: make(map[string]int),
		Errors:      make(map[string]int),
	}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev traceLine
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.TotalEvents+1, err)
		}
		s.TotalEvents++
		if ev.RunID != "" && !seen[ev.RunID] {
			seen[ev.RunID] = true
			s.RunIDs = append(s.RunIDs, ev.RunID)
		}

		switch evaluator.TraceEventType(ev.Event) {
		case evaluator.TraceRunStart:
			s.Runs++
		case evaluator.TraceRunEnd:
			if d, ok := ev.Data["durationMs"].(float64); ok {
				s.DurationMs += d
			}
			if code, ok := ev.Data["error"].(string); ok {
				s.Errors[code]++
			}
		case evaluator.TraceCallStart:
			s.Calls++
			if name, ok := ev.Data["fn"].(string); ok {
				s.CallsByName[name]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func cmdSummary(path string, pretty bool, stdout, stderr io.Writer) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: cannot read trace file: %s\n", err)
		return exitUsage
	}
	defer f.Close()

	s, err := computeTraceSummary(f)
	if err != nil {
		fmt.Fprintf(stderr, "error: invalid trace file: %s\n", err)
		return exitUsage
	}

	if !pretty {
		b, _ := json.Marshal(s)
		fmt.Fprintln(stdout, string(b))
		return exitOK
	}
	printTraceSummaryText(s, stdout)
	return exitOK
}

func printTraceSummaryText(s *TraceSummary, w io.Writer) {
	fmt.Fprintf(w, "Runs: %d (%d events)\n", s.Runs, s.TotalEvents)
	fmt.Fprintf(w, "Calls: %d\n", s.Calls)
	for _, name := range sortedKeys(s.CallsByName) {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, code := range sortedKeys(s.Errors) {
			fmt.Fprintf(w, "  %s: %d\n", code, s.Errors[code])
		}
	}
	fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
