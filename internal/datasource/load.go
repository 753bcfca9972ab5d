package datasource

import (
	"fmt"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// LoadRecords performs smart multi-source detection and loading. It
// discovers all available sources (SQLite, JSONL), validates them, selects
// the freshest valid source, and loads records from it. SQLite wins over
// JSONL at equal freshness since it reflects the most recent editor state.
//
// Falls back to plain JSONL lookup when smart detection finds no valid
// sources.
func LoadRecords(workspace string) ([]model.Record, error) {
	defer metrics.Timer(metrics.OutlineLoad)()

	dir, err := CanopyDir(workspace)
	if err != nil {
		return nil, err
	}

	records, smartErr := loadSmart(dir, workspace)
	if smartErr == nil {
		return records, nil
	}

	jsonlPath, err := FindJSONLPath(dir)
	if err != nil {
		return nil, err
	}
	return LoadRecordsFromFile(jsonlPath)
}

// LoadRecordsFromDir performs smart source detection within a known data
// directory. Useful when the caller already resolved the .canopy path.
func LoadRecordsFromDir(dir string) ([]model.Record, error) {
	records, smartErr := loadSmart(dir, "")
	if smartErr == nil {
		return records, nil
	}

	jsonlPath, err := FindJSONLPath(dir)
	if err != nil {
		return nil, err
	}
	return LoadRecordsFromFile(jsonlPath)
}

// loadSmart discovers sources, validates, selects the best, and loads from it.
func loadSmart(dir, workspace string) ([]model.Record, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		CanopyDir:              dir,
		Workspace:              workspace,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         false,
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid sources discovered")
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}

	return LoadFromSource(best)
}

// LoadFromSource loads records from a specific DataSource, dispatching to
// the appropriate reader based on source type.
func LoadFromSource(source DataSource) ([]model.Record, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadRecords()

	case SourceTypeJSONL:
		return LoadRecordsFromFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadOutline loads the freshest source in a workspace and assembles the
// arena. The chosen source comes back with the outline so the caller can
// watch its path for changes, and the raw records come back so later
// reloads can be diffed against them.
func LoadOutline(workspace, rootLabel string) (*model.Outline, []model.Record, DataSource, error) {
	dir, err := CanopyDir(workspace)
	if err != nil {
		return nil, nil, DataSource{}, err
	}

	sources, err := DiscoverSources(DiscoveryOptions{
		CanopyDir:              dir,
		Workspace:              workspace,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return nil, nil, DataSource{}, err
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, nil, DataSource{}, err
	}

	records, err := LoadFromSource(best)
	if err != nil {
		return nil, nil, DataSource{}, err
	}

	outline, err := model.BuildOutline(records, rootLabel)
	if err != nil {
		return nil, nil, DataSource{}, fmt.Errorf("%s: %w", best.Path, err)
	}
	return outline, records, best, nil
}
