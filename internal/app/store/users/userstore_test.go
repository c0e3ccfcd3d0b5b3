package userstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratacloud/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.SetupTestDB(t))
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Ada Lovelace", Quota: 1 << 30})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.FullNameCI != "ada lovelace" {
		t.Errorf("FullNameCI = %q, want folded %q", u.FullNameCI, "ada lovelace")
	}
	if u.Admin {
		t.Error("owner should not be admin unless asked")
	}

	got, err := s.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FullName != "Ada Lovelace" || got.Quota != 1<<30 {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestCreateNegativeQuota(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.Create(ctx, CreateInput{FullName: "Broke", Quota: -1})
	if !errors.Is(err, ErrNegativeQuota) {
		t.Errorf("Create(-1) error = %v, want ErrNegativeQuota", err)
	}
}

func TestSetQuota(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Owner", Quota: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.SetQuota(ctx, u.ID, 500); err != nil {
		t.Fatalf("SetQuota() error = %v", err)
	}
	got, _ := s.GetByID(ctx, u.ID)
	if got.Quota != 500 {
		t.Errorf("quota = %d, want 500", got.Quota)
	}

	if err := s.SetQuota(ctx, u.ID, -1); !errors.Is(err, ErrNegativeQuota) {
		t.Errorf("SetQuota(-1) error = %v, want ErrNegativeQuota", err)
	}

	if err := s.SetQuota(ctx, primitive.NewObjectID(), 1); err != mongo.ErrNoDocuments {
		t.Errorf("SetQuota(unknown) error = %v, want ErrNoDocuments", err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"zoe", "Alan", "mia"} {
		if _, err := s.Create(ctx, CreateInput{FullName: name, Quota: 1}); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	users, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("users = %d, want 3", len(users))
	}
	// Sorted by folded name, so Alan leads despite the capital.
	want := []string{"Alan", "mia", "zoe"}
	for i, u := range users {
		if u.FullName != want[i] {
			t.Errorf("users[%d] = %q, want %q", i, u.FullName, want[i])
		}
	}

	t.Run("pagination", func(t *testing.T) {
		page1, err := s.List(ctx, 2, 1)
		if err != nil {
			t.Fatalf("List(limit 2, page 1) error = %v", err)
		}
		if len(page1) != 2 || page1[0].FullName != "Alan" {
			t.Errorf("page 1 = %+v, want Alan and mia", page1)
		}
		page2, err := s.List(ctx, 2, 2)
		if err != nil {
			t.Fatalf("List(limit 2, page 2) error = %v", err)
		}
		if len(page2) != 1 || page2[0].FullName != "zoe" {
			t.Errorf("page 2 = %+v, want just zoe", page2)
		}
	})
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Gone", Quota: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.GetByID(ctx, u.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID(deleted) error = %v, want ErrNoDocuments", err)
	}
}
