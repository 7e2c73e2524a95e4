package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"rtshell/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt stores a bool the way SQLite expects it
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// Empty maps are stored as NULL.
func marshalToNull(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if m, ok := v.(map[string]string); ok && len(m) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Component Row Scanner
// ============================================================================
//
// Column order must match between componentColumns, scanArgs() and
// componentInsertArgs(). Append new columns at the end.

// componentRow holds all columns from a component query for scanning
type componentRow struct {
	Ref            string
	Position       int
	Alive          int
	FailOnActivate int
	Endpoint       sql.NullString
	DataJSON       sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match componentColumns order exactly:
// ref, position, alive, fail_on_activate, endpoint, data
func (r *componentRow) scanArgs() []any {
	return []any{
		&r.Ref,            // 1
		&r.Position,       // 2
		&r.Alive,          // 3
		&r.FailOnActivate, // 4
		&r.Endpoint,       // 5
		&r.DataJSON,       // 6
	}
}

// toDomain converts the scanned row to a domain.ComponentRecord
func (r *componentRow) toDomain() (domain.ComponentRecord, error) {
	rec := domain.ComponentRecord{
		Ref:            r.Ref,
		Alive:          r.Alive != 0,
		FailOnActivate: r.FailOnActivate != 0,
	}
	if err := unmarshalJSONField(r.DataJSON, &rec.Component); err != nil {
		return rec, fmt.Errorf("unmarshal component: %w", err)
	}
	// Indexed column is the source of truth
	rec.Component.Endpoint = nullToString(r.Endpoint)
	return rec, nil
}

// componentColumns returns the SELECT column list for component queries
const componentColumns = `ref, position, alive, fail_on_activate, endpoint, data`

// componentInsertArgs prepares arguments for component INSERT
func componentInsertArgs(rec domain.ComponentRecord, position int) ([]any, error) {
	data, err := marshalToNull(rec.Component)
	if err != nil {
		return nil, fmt.Errorf("marshal component: %w", err)
	}
	return []any{
		rec.Ref,
		position,
		boolToInt(rec.Alive),
		boolToInt(rec.FailOnActivate),
		stringToNull(rec.Component.Endpoint),
		data,
	}, nil
}

// ============================================================================
// Manager Row Scanner
// ============================================================================

// managerRow holds all columns from a manager query for scanning
type managerRow struct {
	Ref      string
	Position int
	Alive    int
	DataJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match managerColumns order exactly: ref, position, alive, data
func (r *managerRow) scanArgs() []any {
	return []any{&r.Ref, &r.Position, &r.Alive, &r.DataJSON}
}

// toDomain converts the scanned row to a domain.ManagerRecord
func (r *managerRow) toDomain() (domain.ManagerRecord, error) {
	rec := domain.ManagerRecord{Ref: r.Ref, Alive: r.Alive != 0}
	if err := unmarshalJSONField(r.DataJSON, &rec.Manager); err != nil {
		return rec, fmt.Errorf("unmarshal manager: %w", err)
	}
	return rec, nil
}

// managerColumns returns the SELECT column list for manager queries
const managerColumns = `ref, position, alive, data`

// managerInsertArgs prepares arguments for manager INSERT
func managerInsertArgs(rec domain.ManagerRecord, position int) ([]any, error) {
	data, err := marshalToNull(rec.Manager)
	if err != nil {
		return nil, fmt.Errorf("marshal manager: %w", err)
	}
	return []any{rec.Ref, position, boolToInt(rec.Alive), data}, nil
}
