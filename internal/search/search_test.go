package search

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/noteindex"
	"github.com/mirelh/laguz/internal/storage"
	"github.com/mirelh/laguz/internal/vault"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "laguz-search-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestUpsertAndSearch(t *testing.T) {
	db := testDB(t)

	err := db.Upsert(Row{
		Path: "n1", ID: "n1", Label: "Shopping list",
		Body: "Milk Eggs Bread", UpdatedAt: 100,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := db.Search("Milk", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len = %d, want 1", len(results))
	}
	if results[0].ID != "n1" || results[0].Label != "Shopping list" {
		t.Errorf("result = %+v", results[0])
	}
}

func TestSearchMatchesLabel(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(Row{Path: "n1", ID: "n1", Label: "Recipes", Body: "", UpdatedAt: 1})

	results, err := db.Search("Recipes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len = %d, want 1", len(results))
	}
}

func TestUpsertReplaces(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(Row{Path: "n1", ID: "n1", Label: "Old", Body: "old body", UpdatedAt: 1})
	_ = db.Upsert(Row{Path: "n1", ID: "n1", Label: "New", Body: "new body", UpdatedAt: 2})

	if results, _ := db.Search("old body", 10); len(results) != 0 {
		t.Errorf("stale body still matches: %+v", results)
	}
	results, _ := db.Search("new body", 10)
	if len(results) != 1 || results[0].Label != "New" {
		t.Errorf("results = %+v", results)
	}
}

func TestDeleteRemovesSubtree(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(Row{Path: "f1/n1", ID: "n1", Label: "inner", UpdatedAt: 1})
	_ = db.Upsert(Row{Path: "f1/n2", ID: "n2", Label: "inner too", UpdatedAt: 1})
	_ = db.Upsert(Row{Path: "f10/n3", ID: "n3", Label: "neighbour", UpdatedAt: 1})

	if err := db.Delete("f1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	paths, err := db.AllUpdatedAts()
	if err != nil {
		t.Fatalf("AllUpdatedAts: %v", err)
	}
	if _, ok := paths["f1/n1"]; ok {
		t.Error("f1/n1 should be gone")
	}
	if _, ok := paths["f1/n2"]; ok {
		t.Error("f1/n2 should be gone")
	}
	// Prefix match must not swallow sibling folders sharing a prefix.
	if _, ok := paths["f10/n3"]; !ok {
		t.Error("f10/n3 should survive")
	}
}

func TestSearchLimit(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		_ = db.Upsert(Row{
			Path: string(rune('a' + i)), ID: string(rune('a' + i)),
			Label: "common term", UpdatedAt: int64(i),
		})
	}
	results, err := db.Search("common", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len = %d, want 2", len(results))
	}
}

func vaultWithNotes(t *testing.T) (*vault.FS, *storage.FS) {
	t.Helper()
	root, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	v := vault.New(root)
	if err := v.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return v, root
}

func TestSyncIndexesTree(t *testing.T) {
	db := testDB(t)
	v, root := vaultWithNotes(t)
	ctx := context.Background()

	note, err := v.Create(ctx, models.Note{
		NoteMeta: models.NoteMeta{Label: "Groceries"},
		Content:  "<p>Milk and eggs</p>",
	})
	if err != nil {
		t.Fatal(err)
	}
	folder, _ := v.CreateFolder(ctx, "Work")
	_ = v.Enter(ctx, folder.ID)
	nested, err := v.Create(ctx, models.Note{
		NoteMeta: models.NoteMeta{Label: "Standup"},
		Content:  "<p>Quarterly planning</p>",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, root, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	results, _ := db.Search("Milk", 10)
	if len(results) != 1 || results[0].Path != note.ID {
		t.Errorf("root note: %+v", results)
	}
	results, _ = db.Search("planning", 10)
	if len(results) != 1 {
		t.Fatalf("nested note: %+v", results)
	}
	if want := folder.ID + "/" + nested.ID; results[0].Path != want {
		t.Errorf("path = %q, want %q", results[0].Path, want)
	}
}

func TestSyncSkipsEncryptedBodies(t *testing.T) {
	db := testDB(t)
	_, root := vaultWithNotes(t)

	// Simulate an encrypted note on disk: sidecar flags it, file holds
	// ciphertext.
	_ = noteindex.Save(root, noteindex.Index{
		"enc1": {ID: "enc1", Label: "Diary", IsEncrypted: true, UpdatedAt: 5, Type: models.TypeNote},
	})
	f, _ := root.File("enc1", true)
	_ = f.Write([]byte("c2VjcmV0IGNpcGhlcnRleHQ="))

	if err := Sync(db, root, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Ciphertext never matches.
	if results, _ := db.Search("c2VjcmV0", 10); len(results) != 0 {
		t.Errorf("ciphertext matched: %+v", results)
	}
	// Label still does.
	results, _ := db.Search("Diary", 10)
	if len(results) != 1 {
		t.Errorf("label match: %+v", results)
	}
}

func TestSyncRemovesStale(t *testing.T) {
	db := testDB(t)
	v, root := vaultWithNotes(t)
	ctx := context.Background()

	note, _ := v.Create(ctx, models.Note{
		NoteMeta: models.NoteMeta{Label: "Ephemeral"},
		Content:  "soon gone",
	})
	if err := Sync(db, root, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if results, _ := db.Search("Ephemeral", 10); len(results) != 1 {
		t.Fatalf("precondition: %+v", results)
	}

	if err := v.Delete(ctx, note.ID); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, root, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if results, _ := db.Search("Ephemeral", 10); len(results) != 0 {
		t.Errorf("stale entry survived: %+v", results)
	}
}
