package authz

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFromRequest(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("owner", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderOwnerID, id.Hex())

		actor, err := FromRequest(r)
		if err != nil {
			t.Fatalf("FromRequest() error = %v", err)
		}
		if actor.UserID != id || actor.Admin {
			t.Errorf("actor = %+v, want plain owner %s", actor, id.Hex())
		}
	})

	t.Run("admin", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderOwnerID, id.Hex())
		r.Header.Set(HeaderAdmin, "true")

		actor, err := FromRequest(r)
		if err != nil {
			t.Fatalf("FromRequest() error = %v", err)
		}
		if !actor.Admin {
			t.Error("X-Admin: true should grant the admin capability")
		}
	})

	t.Run("admin header must be exactly true", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderOwnerID, id.Hex())
		r.Header.Set(HeaderAdmin, "1")

		actor, err := FromRequest(r)
		if err != nil {
			t.Fatalf("FromRequest() error = %v", err)
		}
		if actor.Admin {
			t.Error("X-Admin: 1 should not grant the admin capability")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		if _, err := FromRequest(r); err != ErrNoIdentity {
			t.Errorf("FromRequest() error = %v, want ErrNoIdentity", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderOwnerID, "not-an-object-id")
		if _, err := FromRequest(r); err == nil {
			t.Error("FromRequest() should reject a malformed owner id")
		}
	})
}

func TestCanAccess(t *testing.T) {
	mine := primitive.NewObjectID()
	theirs := primitive.NewObjectID()

	if !Owner(mine).CanAccess(mine) {
		t.Error("an owner can access their own namespace")
	}
	if Owner(mine).CanAccess(theirs) {
		t.Error("an owner cannot access another namespace")
	}
	if !Admin(mine).CanAccess(theirs) {
		t.Error("an admin can access any namespace")
	}
}
