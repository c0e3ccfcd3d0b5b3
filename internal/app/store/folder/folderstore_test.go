package folder

import (
	"testing"

	"github.com/dalemusser/stratacloud/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.SetupTestDB(t))
}

func mustCreate(t *testing.T, s *Store, ownerID primitive.ObjectID, name string, parentID *primitive.ObjectID) *primitive.ObjectID {
	t.Helper()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	f, err := s.Create(ctx, CreateInput{OwnerID: ownerID, Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return &f.ID
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	f, err := s.Create(ctx, CreateInput{OwnerID: ownerID, Name: "Documents"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if f.NameCI != "documents" {
		t.Errorf("NameCI = %q, want folded %q", f.NameCI, "documents")
	}
	if !f.IsRoot() {
		t.Error("folder without parent should be root-level")
	}

	got, err := s.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Documents" || got.OwnerID != ownerID {
		t.Errorf("GetByID() = %+v, want name Documents owner %s", got, ownerID.Hex())
	}

	if _, err := s.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID(unknown) error = %v, want ErrNoDocuments", err)
	}
}

func TestUniqueSiblingIndex(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	parentID := mustCreate(t, s, ownerID, "parent", nil)
	mustCreate(t, s, ownerID, "Reports", parentID)

	// Case-folded collision under the same parent trips the unique index.
	_, err := s.Create(ctx, CreateInput{OwnerID: ownerID, Name: "REPORTS", ParentID: parentID})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("Create(duplicate sibling) error = %v, want duplicate key", err)
	}

	// Same name elsewhere is fine: another parent, another owner.
	if _, err := s.Create(ctx, CreateInput{OwnerID: ownerID, Name: "Reports"}); err != nil {
		t.Errorf("Create(same name, root level) error = %v", err)
	}
	if _, err := s.Create(ctx, CreateInput{OwnerID: primitive.NewObjectID(), Name: "Reports", ParentID: parentID}); err != nil {
		t.Errorf("Create(same name, other owner) error = %v", err)
	}
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := mustCreate(t, s, ownerID, "old", nil)
	if err := s.Rename(ctx, *id, "New Name"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	got, err := s.GetByID(ctx, *id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "New Name" || got.NameCI != "new name" {
		t.Errorf("after rename = %q/%q, want New Name/new name", got.Name, got.NameCI)
	}
}

func TestSetParent(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, s, ownerID, "a", nil)
	b := mustCreate(t, s, ownerID, "b", nil)

	if err := s.SetParent(ctx, *b, a); err != nil {
		t.Fatalf("SetParent(into a) error = %v", err)
	}
	got, _ := s.GetByID(ctx, *b)
	if got.ParentID == nil || *got.ParentID != *a {
		t.Error("b should now live under a")
	}

	if err := s.SetParent(ctx, *b, nil); err != nil {
		t.Fatalf("SetParent(root) error = %v", err)
	}
	got, _ = s.GetByID(ctx, *b)
	if got.ParentID != nil {
		t.Error("b should be back at the root level")
	}
}

func TestNameExistsInParent(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := mustCreate(t, s, ownerID, "Photos", nil)

	exists, err := s.NameExistsInParent(ctx, ownerID, "photos", nil, nil)
	if err != nil {
		t.Fatalf("NameExistsInParent() error = %v", err)
	}
	if !exists {
		t.Error("folded match should count as existing")
	}

	// Excluding the folder itself lets a rename keep its own name.
	exists, err = s.NameExistsInParent(ctx, ownerID, "Photos", nil, id)
	if err != nil {
		t.Fatalf("NameExistsInParent(exclude) error = %v", err)
	}
	if exists {
		t.Error("excluded folder must not match itself")
	}

	exists, err = s.NameExistsInParent(ctx, ownerID, "Photos", id, nil)
	if err != nil {
		t.Fatalf("NameExistsInParent(other parent) error = %v", err)
	}
	if exists {
		t.Error("name under a different parent must not match")
	}
}

func TestIsDescendant(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	// a/b/c plus an unrelated d.
	a := mustCreate(t, s, ownerID, "a", nil)
	b := mustCreate(t, s, ownerID, "b", a)
	c := mustCreate(t, s, ownerID, "c", b)
	d := mustCreate(t, s, ownerID, "d", nil)

	cases := []struct {
		name      string
		candidate primitive.ObjectID
		root      primitive.ObjectID
		want      bool
	}{
		{"deep descendant", *c, *a, true},
		{"direct child", *b, *a, true},
		{"self", *a, *a, true},
		{"sibling tree", *d, *a, false},
		{"inverted", *a, *c, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.IsDescendant(ctx, tc.candidate, tc.root)
			if err != nil {
				t.Fatalf("IsDescendant() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("IsDescendant() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("broken chain", func(t *testing.T) {
		orphanParent := primitive.NewObjectID()
		orphan := mustCreate(t, s, ownerID, "orphan", &orphanParent)
		got, err := s.IsDescendant(ctx, *orphan, *a)
		if err != nil {
			t.Fatalf("IsDescendant(broken chain) error = %v", err)
		}
		if got {
			t.Error("a broken ancestor chain must not report descent")
		}
	})
}

func TestSubtreeIDs(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, s, ownerID, "a", nil)
	b := mustCreate(t, s, ownerID, "b", a)
	c := mustCreate(t, s, ownerID, "c", b)
	c2 := mustCreate(t, s, ownerID, "c2", a)
	mustCreate(t, s, ownerID, "outside", nil)

	ids, err := s.SubtreeIDs(ctx, ownerID, *a)
	if err != nil {
		t.Fatalf("SubtreeIDs() error = %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("subtree size = %d, want 4", len(ids))
	}
	want := map[primitive.ObjectID]bool{*a: true, *b: true, *c: true, *c2: true}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected subtree member %s", id.Hex())
		}
	}
	if ids[0] != *a {
		t.Error("subtree must start at its root")
	}
}

func TestGetAncestors(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, s, ownerID, "a", nil)
	b := mustCreate(t, s, ownerID, "b", a)
	c := mustCreate(t, s, ownerID, "c", b)

	ancestors, err := s.GetAncestors(ctx, *c)
	if err != nil {
		t.Fatalf("GetAncestors() error = %v", err)
	}
	if len(ancestors) != 2 {
		t.Fatalf("ancestors = %d, want 2", len(ancestors))
	}
	if ancestors[0].ID != *a || ancestors[1].ID != *b {
		t.Error("ancestors must be ordered root first")
	}

	ancestors, err = s.GetAncestors(ctx, *a)
	if err != nil {
		t.Fatalf("GetAncestors(root) error = %v", err)
	}
	if len(ancestors) != 0 {
		t.Errorf("root-level folder ancestors = %d, want 0", len(ancestors))
	}
}

func TestListByParent(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	mustCreate(t, s, ownerID, "banana", nil)
	mustCreate(t, s, ownerID, "Apple", nil)
	parent := mustCreate(t, s, ownerID, "parent", nil)
	mustCreate(t, s, ownerID, "inside", parent)

	roots, err := s.ListByParent(ctx, ownerID, nil)
	if err != nil {
		t.Fatalf("ListByParent(root) error = %v", err)
	}
	if len(roots) != 3 {
		t.Fatalf("root folders = %d, want 3", len(roots))
	}
	// Folded sort puts Apple before banana.
	if roots[0].Name != "Apple" || roots[1].Name != "banana" {
		t.Errorf("sort order = %q, %q; want Apple, banana", roots[0].Name, roots[1].Name)
	}

	inside, err := s.ListByParent(ctx, ownerID, parent)
	if err != nil {
		t.Fatalf("ListByParent(parent) error = %v", err)
	}
	if len(inside) != 1 || inside[0].Name != "inside" {
		t.Errorf("children of parent = %+v, want just inside", inside)
	}
}

func TestDeleteByIDs(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, s, ownerID, "a", nil)
	b := mustCreate(t, s, ownerID, "b", nil)
	keep := mustCreate(t, s, ownerID, "keep", nil)

	if err := s.DeleteByIDs(ctx, []primitive.ObjectID{*a, *b}); err != nil {
		t.Fatalf("DeleteByIDs() error = %v", err)
	}
	if _, err := s.GetByID(ctx, *a); err != mongo.ErrNoDocuments {
		t.Error("a should be deleted")
	}
	if _, err := s.GetByID(ctx, *keep); err != nil {
		t.Errorf("keep should survive: %v", err)
	}

	if err := s.DeleteByIDs(ctx, nil); err != nil {
		t.Errorf("DeleteByIDs(empty) error = %v, want nil no-op", err)
	}
}

func TestShareToken(t *testing.T) {
	s := newTestStore(t)
	ownerID := primitive.NewObjectID()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := mustCreate(t, s, ownerID, "shared", nil)

	if err := s.SetShareToken(ctx, *id, "deadbeefdeadbeefdeadbeefdeadbeef"); err != nil {
		t.Fatalf("SetShareToken() error = %v", err)
	}
	got, err := s.GetByShareToken(ctx, "deadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("GetByShareToken() error = %v", err)
	}
	if got.ID != *id || !got.IsShared() {
		t.Error("share token should resolve back to the folder")
	}

	if err := s.ClearShareToken(ctx, *id); err != nil {
		t.Fatalf("ClearShareToken() error = %v", err)
	}
	if _, err := s.GetByShareToken(ctx, "deadbeefdeadbeefdeadbeefdeadbeef"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByShareToken(cleared) error = %v, want ErrNoDocuments", err)
	}
}
