package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// PreferredJSONLNames defines the priority order for outline files.
var PreferredJSONLNames = []string{"outline.jsonl", "canopy.jsonl"}

// RobotEnvVar suppresses parse warnings when set to 1, so machine-readable
// output stays clean.
const RobotEnvVar = "CANOPY_ROBOT"

// DefaultMaxBufferSize is the maximum line size the parser accepts (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// FindJSONLPath locates the outline JSONL file in the given directory,
// preferring outline.jsonl and skipping backup artifacts.
func FindJSONLPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no outline JSONL file found in %s", dir)
	}

	for _, preferred := range PreferredJSONLNames {
		for _, name := range candidates {
			if name == preferred {
				path := filepath.Join(dir, name)
				if info, err := os.Stat(path); err == nil && info.Size() > 0 {
					return path, nil
				}
			}
		}
	}

	// Fall back to the first non-empty candidate.
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

// ParseOptions configures the behavior of ParseRecords.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed JSON).
	// If nil, warnings are printed to os.Stderr unless CANOPY_ROBOT=1.
	WarningHandler func(string)

	// BufferSize sets the maximum line size (in bytes) to read at once.
	// Lines longer than this are skipped with a warning.
	// If 0, uses DefaultMaxBufferSize (10MB).
	BufferSize int

	// RecordFilter optionally filters parsed records. Return true to include.
	// When nil, all valid records are included.
	RecordFilter func(*model.Record) bool
}

// LoadRecordsFromFile reads records from a specific JSONL file path.
func LoadRecordsFromFile(path string) ([]model.Record, error) {
	return LoadRecordsFromFileWithOptions(path, ParseOptions{})
}

// LoadRecordsFromFileWithOptions reads records from a file with custom options.
func LoadRecordsFromFileWithOptions(path string, opts ParseOptions) ([]model.Record, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no outline found at %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outline file: %w", err)
	}
	defer file.Close()

	return ParseRecordsWithOptions(file, opts)
}

// ParseRecords parses JSONL content from a reader into records. Handles
// UTF-8 BOM stripping, over-long lines, and per-line validation.
func ParseRecords(r io.Reader) ([]model.Record, error) {
	return ParseRecordsWithOptions(r, ParseOptions{})
}

// ParseRecordsWithOptions parses JSONL content with custom options.
// Malformed and invalid lines are skipped with a warning rather than
// failing the whole load; an outline with one bad row is still an outline.
func ParseRecordsWithOptions(r io.Reader, opts ParseOptions) ([]model.Record, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	var records []model.Record
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			// Heuristic: average record line ~160 bytes. Prefer
			// conservative underestimation to avoid large
			// over-allocations for big files.
			const avgRecordBytes = 160
			const minCap = 64
			const maxCap = 500_000

			est := int(info.Size() / avgRecordBytes)
			if est < minCap && info.Size() > 0 {
				est = minCap
			}
			if est > maxCap {
				est = maxCap
			}
			if est > 0 {
				records = make([]model.Record, 0, est)
			}
		}
	}

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}

	reader := bufio.NewReaderSize(r, maxCapacity)

	// Default warning handler prints to stderr (suppressed in robot mode).
	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv(RobotEnvVar) == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	lineNum := 0
	for {
		lineNum++
		// ReadLine returns a single line, not including the end-of-line
		// bytes. If the line was too long for the buffer then isPrefix is
		// set and the beginning of the line is returned.
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading outline stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			// Line too long. Discard the rest of the line.
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err != nil && err != io.EOF {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
				if err == io.EOF {
					break
				}
			}
			continue
		}

		if len(line) == 0 {
			continue
		}

		// Strip UTF-8 BOM if present on the first line
		if lineNum == 1 {
			line = stripBOM(line)
		}

		var rec model.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}

		if rec.Ref == "" {
			warn(fmt.Sprintf("skipping record on line %d: empty id", lineNum))
			continue
		}

		if opts.RecordFilter != nil && !opts.RecordFilter(&rec) {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

// WriteRecords writes records as JSONL to a writer, one object per line.
func WriteRecords(w io.Writer, records []model.Record) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", records[i].Ref, err)
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
