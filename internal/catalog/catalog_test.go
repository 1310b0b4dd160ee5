package catalog

import (
	"os"
	"testing"

	"github.com/starford/ebi/internal/tag"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ebi-catalog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM tags`).Scan(&count); err != nil {
		t.Fatalf("tags table missing: %v", err)
	}
}

func TestInsertAndAllTags(t *testing.T) {
	db := testDB(t)
	if err := db.InsertTag(tag.Tag{ID: 1, Priority: 5, Name: "work"}); err != nil {
		t.Fatalf("InsertTag: %v", err)
	}
	if err := db.InsertTag(tag.Tag{ID: 2, Priority: 1, Name: "urgent", Parent: 1}); err != nil {
		t.Fatalf("InsertTag: %v", err)
	}

	all, err := db.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[1].Name != "urgent" || all[1].Parent != 1 || all[1].Priority != 1 {
		t.Errorf("second tag = %+v", all[1])
	}
}

func TestInsertDuplicateName(t *testing.T) {
	db := testDB(t)
	_ = db.InsertTag(tag.Tag{ID: 1, Name: "dup"})
	if err := db.InsertTag(tag.Tag{ID: 2, Name: "dup"}); err == nil {
		t.Error("expected unique constraint failure")
	}
}

func TestDeleteReparents(t *testing.T) {
	db := testDB(t)
	_ = db.InsertTag(tag.Tag{ID: 1, Name: "root"})
	_ = db.InsertTag(tag.Tag{ID: 2, Name: "mid", Parent: 1})
	_ = db.InsertTag(tag.Tag{ID: 3, Name: "leaf", Parent: 2})

	if err := db.DeleteTag(2); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	all, _ := db.AllTags()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[1].Name != "leaf" || all[1].Parent != 1 {
		t.Errorf("leaf not re-parented: %+v", all[1])
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	db := testDB(t)
	reg, err := tag.NewRegistry(db)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := reg.Create("alpha", 2, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reg.Create("beta", 1, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reloaded, err := tag.NewRegistry(db)
	if err != nil {
		t.Fatalf("NewRegistry reload: %v", err)
	}
	list := reloaded.List()
	if len(list) != 2 || list[0].Name != "beta" {
		t.Errorf("reloaded = %+v", list)
	}
	next, err := reloaded.Create("gamma", 0, 0)
	if err != nil {
		t.Fatalf("Create after reload: %v", err)
	}
	if next.ID != 3 {
		t.Errorf("next id = %d, want 3", next.ID)
	}
}
