package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one successful write of a local override.
type Record struct {
	ID            string
	SavedAt       time.Time
	OverridePath  string
	BackupPath    string
	Changed       []string
	Bootstrapping bool
}

const recordColumns = "id, saved_at, override_path, backup_path, changed_json, bootstrapping"

// Append stores rec. A missing ID or timestamp is filled in; the stored
// record is returned.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	ctx = ensureContext(ctx)
	if rec.OverridePath == "" {
		return Record{}, errors.New("record has no override path")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	rec.SavedAt = rec.SavedAt.UTC()
	if rec.Changed == nil {
		rec.Changed = []string{}
	}
	changed, err := json.Marshal(rec.Changed)
	if err != nil {
		return Record{}, fmt.Errorf("marshal changed keys: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO saves (id, saved_at, override_path, backup_path, changed_json, bootstrapping)
             VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID,
			rec.SavedAt.Format(time.RFC3339Nano),
			rec.OverridePath,
			nullableString(rec.BackupPath),
			string(changed),
			boolToInt(rec.Bootstrapping),
		)
		return execErr
	})
	if err != nil {
		return Record{}, fmt.Errorf("insert save record: %w", err)
	}
	return rec, nil
}

// Get returns the record with id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM saves WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get save record: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	return s.list(ensureContext(ctx), "", nil, limit)
}

// ListFor is List restricted to saves of one local override, for ledgers
// shared by several installations.
func (s *Store) ListFor(ctx context.Context, overridePath string, limit int) ([]Record, error) {
	return s.list(ensureContext(ctx), "WHERE override_path = ?", []any{overridePath}, limit)
}

func (s *Store) list(ctx context.Context, where string, args []any, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM saves ` + where + ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list save records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan save record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate save records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM saves`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count save records: %w", err)
	}
	return n, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id            string
		savedRaw      string
		overridePath  string
		backupPath    sql.NullString
		changedJSON   string
		bootstrapping int64
	)
	if err := scanner.Scan(&id, &savedRaw, &overridePath, &backupPath, &changedJSON, &bootstrapping); err != nil {
		return nil, err
	}
	rec := &Record{
		ID:            id,
		OverridePath:  overridePath,
		BackupPath:    backupPath.String,
		Bootstrapping: bootstrapping != 0,
	}
	if saved, err := time.Parse(time.RFC3339Nano, savedRaw); err == nil {
		rec.SavedAt = saved
	}
	if err := json.Unmarshal([]byte(changedJSON), &rec.Changed); err != nil {
		return nil, fmt.Errorf("decode changed keys: %w", err)
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
