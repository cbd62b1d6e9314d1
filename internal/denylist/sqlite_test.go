package denylist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/torlist/internal/apperr"
)

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "denylist.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_InsertAndFind(t *testing.T) {
	db := tempSQLite(t)
	ctx := context.Background()

	e, err := db.Insert(ctx, "abc123", "spam")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("Insert did not assign id/timestamps: %+v", e)
	}

	byHash, err := db.FindByHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if byHash.ID != e.ID || byHash.Reason != "spam" {
		t.Errorf("FindByHash = %+v", byHash)
	}

	byID, err := db.FindByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Hash != "abc123" {
		t.Errorf("FindByID = %+v", byID)
	}
}

func TestSQLite_FindByHash_OldestWins(t *testing.T) {
	db := tempSQLite(t)
	ctx := context.Background()
	first, _ := db.Insert(ctx, "dup", "first")
	_, _ = db.Insert(ctx, "dup", "second")

	got, err := db.FindByHash(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID {
		t.Errorf("got %q, want first inserted %q", got.Reason, first.Reason)
	}
}

func TestSQLite_NotFoundAndMalformed(t *testing.T) {
	db := tempSQLite(t)
	ctx := context.Background()

	if _, err := db.FindByHash(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("FindByHash: kind = %v", apperr.KindOf(err))
	}
	if _, err := db.FindByID(ctx, "not-a-uuid"); !apperr.Is(err, apperr.KindMalformedID) {
		t.Errorf("FindByID(malformed): kind = %v", apperr.KindOf(err))
	}
	if _, err := db.FindByID(ctx, "00000000-0000-0000-0000-000000000000"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("FindByID(unknown): kind = %v", apperr.KindOf(err))
	}
}

func TestSQLite_SaveAndRemove(t *testing.T) {
	db := tempSQLite(t)
	ctx := context.Background()
	e, _ := db.Insert(ctx, "h", "r")

	e.Reason = "updated"
	saved, err := db.Save(ctx, e)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.UpdatedAt.Before(e.CreatedAt) {
		t.Error("UpdatedAt moved backwards")
	}
	got, _ := db.FindByID(ctx, e.ID)
	if got.Reason != "updated" {
		t.Errorf("reason = %q", got.Reason)
	}

	if err := db.Remove(ctx, e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := db.Remove(ctx, e.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second Remove: kind = %v", apperr.KindOf(err))
	}
	all, _ := db.FindAll(ctx)
	if len(all) != 0 {
		t.Errorf("FindAll = %v", all)
	}
}

func TestSQLite_FindAllEmptyIsNonNil(t *testing.T) {
	db := tempSQLite(t)
	all, err := db.FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if all == nil {
		t.Error("FindAll should return an empty slice, not nil")
	}
}
