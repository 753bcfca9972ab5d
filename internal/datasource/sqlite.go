package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// SQLiteReader provides read access to an outline SQLite database. The
// viewer never writes through it; editors and sync tooling own the file.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -64000",   // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		db.Exec(pragma)
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadRecords reads all outline records from the database in document order.
func (r *SQLiteReader) LoadRecords() ([]model.Record, error) {
	return r.LoadRecordsFiltered(nil)
}

// LoadRecordsFiltered reads records matching the filter function
func (r *SQLiteReader) LoadRecordsFiltered(filter func(*model.Record) bool) ([]model.Record, error) {
	query := `
		SELECT ref, parent, label, kind, status, tags
		FROM outline
		ORDER BY position, rowid
	`

	rows, err := r.db.Query(query)
	if err != nil {
		// Try simpler query if some columns don't exist
		return r.loadRecordsSimple(filter)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var parent, kind, status, tagsJSON sql.NullString

		if err := rows.Scan(&rec.Ref, &parent, &rec.Label, &kind, &status, &tagsJSON); err != nil {
			continue
		}

		if parent.Valid {
			rec.Parent = parent.String
		}
		if kind.Valid {
			rec.Kind = kind.String
		}
		if status.Valid {
			rec.Status = status.String
		}
		if tagsJSON.Valid && tagsJSON.String != "" && tagsJSON.String != "null" {
			rec.Tags = parseJSONStringArray(tagsJSON.String)
		}

		if filter != nil && !filter(&rec) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// loadRecordsSimple is a fallback for databases with fewer columns
func (r *SQLiteReader) loadRecordsSimple(filter func(*model.Record) bool) ([]model.Record, error) {
	query := `SELECT ref, parent, label FROM outline ORDER BY rowid`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var parent sql.NullString

		if err := rows.Scan(&rec.Ref, &parent, &rec.Label); err != nil {
			continue
		}
		if parent.Valid {
			rec.Parent = parent.String
		}

		if filter != nil && !filter(&rec) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// CountRecords returns the number of outline records
func (r *SQLiteReader) CountRecords() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM outline").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetRecordByRef retrieves a single record by ref
func (r *SQLiteReader) GetRecordByRef(ref string) (*model.Record, error) {
	records, err := r.LoadRecordsFiltered(func(rec *model.Record) bool {
		return rec.Ref == ref
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("record not found: %s", ref)
	}
	return &records[0], nil
}

// GetLastModified returns the most recent row update time, or the zero time
// for databases without an updated_at column.
func (r *SQLiteReader) GetLastModified() (time.Time, error) {
	var updatedAt sql.NullTime
	err := r.db.QueryRow("SELECT MAX(updated_at) FROM outline").Scan(&updatedAt)
	if err != nil {
		return time.Time{}, nil
	}
	if !updatedAt.Valid {
		return time.Time{}, nil
	}
	return updatedAt.Time, nil
}

// parseJSONStringArray parses a JSON array of strings
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return nil
	}

	// Use proper JSON unmarshaling to handle edge cases like commas in tags
	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// Fallback to simple parser for malformed JSON
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		if s == "" {
			return nil
		}
		for _, item := range strings.Split(s, ",") {
			item = strings.TrimSpace(item)
			item = strings.Trim(item, `"`)
			if item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
