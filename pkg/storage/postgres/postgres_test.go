package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"lumen/pkg/storage"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var propertyColumns = []string{"id", "kind", "int_value", "float_value", "text_value"}

func TestQueryLoad(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT saved_at FROM characters WHERE name = \\$1").WithArgs("Tin").
		WillReturnRows(sqlmock.NewRows([]string{"saved_at"}).AddRow(now))
	mock.ExpectQuery("SELECT .+ FROM character_properties WHERE name = \\$1").WithArgs("Tin").
		WillReturnRows(sqlmock.NewRows(propertyColumns).
			AddRow(100, "string", 0, 0.0, "Tin").
			AddRow(110, "integer", 80, 0.0, ""))

	rec, err := queryLoad(context.Background(), db, "Tin")
	if err != nil {
		t.Fatalf("queryLoad: %v", err)
	}
	if !rec.SavedAt.Equal(now) {
		t.Errorf("SavedAt = %v, want %v", rec.SavedAt, now)
	}
	if len(rec.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(rec.Properties))
	}
	if p := rec.Properties[1]; p.ID != 110 || p.Kind != "integer" || p.Int != 80 {
		t.Errorf("unexpected property %+v", p)
	}
}

func TestQueryLoadNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT saved_at FROM characters WHERE name = \\$1").WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := queryLoad(context.Background(), db, "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestQuerySave(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	rec := &storage.Record{
		Name: "Tin",
		Properties: []storage.Property{
			{ID: 100, Kind: "string", Text: "Tin"},
			{ID: 110, Kind: "integer", Int: 80},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO characters").WithArgs("Tin").
		WillReturnRows(sqlmock.NewRows([]string{"saved_at"}).AddRow(now))
	mock.ExpectExec("DELETE FROM character_properties WHERE name = \\$1").WithArgs("Tin").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO character_properties").
		WithArgs("Tin", int32(100), "string", int32(0), float32(0), "Tin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO character_properties").
		WithArgs("Tin", int32(110), "integer", int32(80), float32(0), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := querySave(context.Background(), db, rec); err != nil {
		t.Fatalf("querySave: %v", err)
	}
	if !rec.SavedAt.Equal(now) {
		t.Errorf("SavedAt = %v, want %v", rec.SavedAt, now)
	}
}

func TestQuerySaveRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	rec := &storage.Record{Name: "Tin", Properties: []storage.Property{{ID: 110, Kind: "integer", Int: 1}}}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO characters").WithArgs("Tin").
		WillReturnRows(sqlmock.NewRows([]string{"saved_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM character_properties").WithArgs("Tin").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO character_properties").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := querySave(context.Background(), db, rec); err == nil {
		t.Fatal("expected an error")
	}
}
