// Package db stores nutrition entries and granted permissions in SQLite and
// serves them as a nutrition.Provider.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bituwy/wheyout/internal/nutrition"
)

// ProviderName identifies this store in provider errors.
const ProviderName = "sqlite"

// pragmas are applied to every connection in the pool.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

type DB struct {
	*sql.DB
	path string
}

var _ nutrition.Provider = (*DB)(nil)

func dsn(path string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// OpenDB opens the database at path, creating the file if needed, without
// touching the schema. The migrate command uses it so migrations manage the
// schema.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	return &DB{DB: sqlDB, path: path}, nil
}

// NewDB opens the database at path and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenExisting is NewDB for a database that must already exist. A missing
// file is reported as *nutrition.ProviderUnavailableError, the way an
// uninstalled health app would be.
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &nutrition.ProviderUnavailableError{
				Provider: ProviderName,
				Reason:   fmt.Sprintf("no database at %s", path),
			}
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	return NewDB(path)
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

// RecordEntry stores e and returns it with its ID filled in. Entries
// without a time are rejected.
func (db *DB) RecordEntry(ctx context.Context, e nutrition.Entry) (nutrition.Entry, error) {
	if e.Time.IsZero() {
		return e, errors.New("entry has no time")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO nutrition_entries (
			entry_id, recorded_unix_ns, energy_kcal, protein_g, carbs_g, fat_g
		) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixNano(),
		nullFloat(e.EnergyKcal), nullFloat(e.ProteinGrams), nullFloat(e.CarbGrams), nullFloat(e.FatGrams),
	)
	if err != nil {
		return e, fmt.Errorf("failed to insert entry: %w", err)
	}
	return e, nil
}

// ReadNutrition returns the entries inside w, oldest first.
func (db *DB) ReadNutrition(ctx context.Context, w nutrition.TimeWindow) ([]nutrition.Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT entry_id, recorded_unix_ns, energy_kcal, protein_g, carbs_g, fat_g
		FROM nutrition_entries
		WHERE recorded_unix_ns BETWEEN ? AND ?
		ORDER BY recorded_unix_ns, entry_id`,
		w.Start.UnixNano(), w.End.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []nutrition.Entry
	for rows.Next() {
		var (
			e                      nutrition.Entry
			recorded               int64
			energy, protein, carbs sql.NullFloat64
			fat                    sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &recorded, &energy, &protein, &carbs, &fat); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Time = time.Unix(0, recorded)
		e.EnergyKcal = floatPtr(energy)
		e.ProteinGrams = floatPtr(protein)
		e.CarbGrams = floatPtr(carbs)
		e.FatGrams = floatPtr(fat)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// GrantPermission records perms as granted. Granting twice is harmless.
func (db *DB) GrantPermission(ctx context.Context, perms ...nutrition.Permission) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range perms {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO granted_permissions (permission) VALUES (?)`, string(p),
		); err != nil {
			return fmt.Errorf("failed to grant %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// RevokePermission removes perms from the granted set.
func (db *DB) RevokePermission(ctx context.Context, perms ...nutrition.Permission) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range perms {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM granted_permissions WHERE permission = ?`, string(p),
		); err != nil {
			return fmt.Errorf("failed to revoke %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// GrantedPermissions returns the granted permissions in name order.
func (db *DB) GrantedPermissions(ctx context.Context) ([]nutrition.Permission, error) {
	rows, err := db.QueryContext(ctx, `SELECT permission FROM granted_permissions ORDER BY permission`)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var perms []nutrition.Permission
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, nutrition.Permission(p))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return nutrition.Float(v.Float64)
}
