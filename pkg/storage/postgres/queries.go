package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lumen/pkg/storage"
)

func queryLoad(ctx context.Context, db *sql.DB, name string) (*storage.Record, error) {
	rec := &storage.Record{Name: name}
	err := db.QueryRowContext(ctx,
		`SELECT saved_at FROM characters WHERE name = $1`, name,
	).Scan(&rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load character %s: %w", name, err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, kind, int_value, float_value, text_value
		 FROM character_properties WHERE name = $1 ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("load properties of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p storage.Property
		if err := rows.Scan(&p.ID, &p.Kind, &p.Int, &p.Float, &p.Text); err != nil {
			return nil, fmt.Errorf("scan property of %s: %w", name, err)
		}
		rec.Properties = append(rec.Properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load properties of %s: %w", name, err)
	}
	return rec, nil
}

// querySave replaces the stored properties of rec.Name in one transaction.
func querySave(ctx context.Context, db *sql.DB, rec *storage.Record) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO characters (name, saved_at) VALUES ($1, now())
		 ON CONFLICT (name) DO UPDATE SET saved_at = now()
		 RETURNING saved_at`, rec.Name,
	).Scan(&rec.SavedAt)
	if err != nil {
		return fmt.Errorf("save character %s: %w", rec.Name, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM character_properties WHERE name = $1`, rec.Name); err != nil {
		return fmt.Errorf("clear properties of %s: %w", rec.Name, err)
	}

	for _, p := range rec.Properties {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO character_properties (name, id, kind, int_value, float_value, text_value)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.Name, int32(p.ID), p.Kind, p.Int, p.Float, p.Text)
		if err != nil {
			return fmt.Errorf("save property %d of %s: %w", p.ID, rec.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
