// Package dataset reads source texts for generation and writes grouped
// results. Inputs are either plain text (one source per line) or JSONL with
// a configurable source key; results are written as JSONL records.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSourceKey is the JSONL field holding the source text when the
// caller does not override it.
const DefaultSourceKey = "complex"

// ReadSources loads all source texts from path. Files ending in .jsonl or
// .json are treated as JSON-lines with sourceKey selecting the text field;
// anything else is read line by line. Blank lines are skipped. A leading '~'
// in path is expanded to the user's home directory.
func ReadSources(path, sourceKey string) ([]string, error) {
	p, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(p)) {
	case ".jsonl", ".json":
		if sourceKey == "" {
			sourceKey = DefaultSourceKey
		}
		return readJSONLines(f, sourceKey)
	default:
		return readTextLines(f)
	}
}

func readTextLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func readJSONLines(r io.Reader, key string) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		v, ok := rec[key]
		if !ok {
			return nil, fmt.Errorf("line %d: missing source key %q", lineNo, key)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: source key %q is not a string", lineNo, key)
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Record is one generated result row: the source text and its group of
// generated continuations, in backend order.
type Record struct {
	ID      int      `json:"id"`
	Source  string   `json:"source"`
	Outputs []string `json:"outputs"`
}

// Writer emits Records as JSON lines.
type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer { return &Writer{enc: json.NewEncoder(w)} }

func (w *Writer) Write(rec Record) error { return w.enc.Encode(rec) }

// OpenOutput opens the results destination. "-" or empty means stdout (with
// a no-op Close); the parent directory is created for file paths.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	p, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(p)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/data/sources.txt
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
