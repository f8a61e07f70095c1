// Package entdriver implements archive.Driver on ent's dialect-aware SQL
// layer. The sqlite and postgres drivers wrap their *sql.DB with
// entsql.OpenDB and embed an EntDriver.
package entdriver

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/papercomputeco/tapestream/pkg/archive"
)

// EntDriver implements archive.Driver over an ent SQL driver.
type EntDriver struct {
	Drv *entsql.Driver
}

// Migrate creates or updates the sessions table.
func (d *EntDriver) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(d.Drv)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := m.Create(ctx, SessionsTable); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Put upserts a record by ID.
func (d *EntDriver) Put(ctx context.Context, rec *archive.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	query, args, err := upsertQuery(d.Drv.Dialect(), rec)
	if err != nil {
		return err
	}

	if err := d.Drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to store session %s: %w", rec.ID, err)
	}

	return nil
}

// Get retrieves a record by session ID.
func (d *EntDriver) Get(ctx context.Context, id string) (*archive.Record, error) {
	query, args := entsql.Dialect(d.Drv.Dialect()).
		Select(Columns...).
		From(entsql.Table(Table)).
		Where(entsql.EQ(ColumnID, id)).
		Limit(1).
		Query()

	records, err := d.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, archive.NotFoundError{ID: id}
	}

	return records[0], nil
}

// List returns all records, newest first.
func (d *EntDriver) List(ctx context.Context) ([]*archive.Record, error) {
	query, args := listQuery(d.Drv.Dialect())

	records, err := d.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return records, nil
}

// Close closes the underlying database.
func (d *EntDriver) Close() error {
	return d.Drv.Close()
}

func (d *EntDriver) query(ctx context.Context, query string, args []any) ([]*archive.Record, error) {
	rows := &entsql.Rows{}
	if err := d.Drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*archive.Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

func upsertQuery(dialectName string, rec *archive.Record) (string, []any, error) {
	result, err := json.Marshal(resultOrEmpty(rec.Result))
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode result: %w", err)
	}

	query, args := entsql.Dialect(dialectName).
		Insert(Table).
		Columns(Columns...).
		Values(
			rec.ID, rec.URL, rec.Method, rec.Status, rec.Error, string(result),
			rec.Records, rec.Dropped, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns(ColumnID),
			entsql.ResolveWithNewValues(),
		).
		Query()

	return query, args, nil
}

func listQuery(dialectName string) (string, []any) {
	return entsql.Dialect(dialectName).
		Select(Columns...).
		From(entsql.Table(Table)).
		OrderBy(entsql.Desc(ColumnStartedAt), entsql.Asc(ColumnID)).
		Query()
}

func scan(rows *entsql.Rows) (*archive.Record, error) {
	var (
		rec    archive.Record
		result []byte
	)

	err := rows.Scan(
		&rec.ID, &rec.URL, &rec.Method, &rec.Status, &rec.Error, &result,
		&rec.Records, &rec.Dropped, &rec.StartedAt, &rec.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if len(result) > 0 {
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return &rec, nil
}

func resultOrEmpty(r map[string]any) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return r
}
