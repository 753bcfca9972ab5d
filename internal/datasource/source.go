// Package datasource discovers, validates, and loads outline data for
// canopy. A workspace may carry several sources at once (a SQLite database
// next to exported JSONL files); discovery finds them all and selection
// picks the freshest valid one, so the viewer opens whatever the user's
// tooling wrote last.
package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/canopy/pkg/debug"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (outline.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is a JSONL outline file
	SourceTypeJSONL SourceType = "jsonl"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSONL  = 50
)

// CanopyDirEnvVar overrides where discovery looks for outline data.
const CanopyDirEnvVar = "CANOPY_DIR"

// DataSource represents a potential source of outline data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// RecordCount is the number of records in the source (set during validation)
	RecordCount int `json:"record_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, records=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.RecordCount, status)
}

// CanopyDir returns the data directory for a workspace, respecting
// CANOPY_DIR. Otherwise it is .canopy under the workspace path (or the
// current directory when workspace is empty).
func CanopyDir(workspace string) (string, error) {
	if envDir := os.Getenv(CanopyDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if workspace == "" {
		var err error
		workspace, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	return filepath.Join(workspace, ".canopy"), nil
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// CanopyDir is the data directory path (optional, auto-detected if empty)
	CanopyDir string
	// Workspace is the workspace root path (optional, uses cwd if empty)
	Workspace string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
}

// DiscoverSources finds all potential outline sources in the data directory.
// Results are sorted freshest first, with type priority breaking ties.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	dir := opts.CanopyDir
	if dir == "" {
		var err error
		dir, err = CanopyDir(opts.Workspace)
		if err != nil {
			return nil, err
		}
	}
	debug.Log("datasource: discovering sources in %s", dir)

	var sources []DataSource
	sources = append(sources, discoverSQLiteSources(dir)...)

	jsonlSources, err := discoverJSONLSources(dir)
	if err != nil {
		debug.Log("datasource: jsonl discovery: %v", err)
	}
	sources = append(sources, jsonlSources...)

	if opts.ValidateAfterDiscovery {
		if err := ValidateAll(sources); err != nil {
			return nil, err
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	debug.Log("datasource: discovered %d sources", len(sources))
	return sources, nil
}

// discoverSQLiteSources finds SQLite databases in the data directory
func discoverSQLiteSources(dir string) []DataSource {
	dbPath := filepath.Join(dir, "outline.db")
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil
	}
	return []DataSource{{
		Type:     SourceTypeSQLite,
		Path:     dbPath,
		Priority: PrioritySQLite,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}}
}

// discoverJSONLSources finds JSONL files in the data directory
func discoverJSONLSources(dir string) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		// Skip backups and merge artifacts left behind by sync tooling.
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{
			Type:     SourceTypeJSONL,
			Path:     filepath.Join(dir, name),
			Priority: PriorityJSONL,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}
	return sources, nil
}

// ValidateSource checks that a source can actually be loaded and records its
// record count. The result is written back into the source.
func ValidateSource(s *DataSource) error {
	switch s.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(*s)
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		defer reader.Close()
		count, err := reader.CountRecords()
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		s.Valid = true
		s.RecordCount = count
		return nil

	case SourceTypeJSONL:
		records, err := LoadRecordsFromFileWithOptions(s.Path, ParseOptions{
			WarningHandler: func(string) {},
		})
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		s.Valid = true
		s.RecordCount = len(records)
		return nil

	default:
		s.Valid = false
		s.ValidationError = fmt.Sprintf("unknown source type: %s", s.Type)
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}

// ValidateAll validates every source concurrently. Individual validation
// failures are recorded on the source, not returned; only infrastructure
// errors surface.
func ValidateAll(sources []DataSource) error {
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(4)
	for i := range sources {
		s := &sources[i]
		g.Go(func() error {
			if err := ValidateSource(s); err != nil {
				debug.Log("datasource: validation failed for %s: %v", s.Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SelectBestSource returns the preferred source from a discovery result:
// the first valid one in freshness order.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid source among %d discovered", len(sources))
}
