package authz

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request headers carrying the caller identity. Session and login machinery
// is out of scope; the service trusts a fronting proxy to set these.
const (
	HeaderOwnerID = "X-Owner-ID"
	HeaderAdmin   = "X-Admin"
)

// ErrNoIdentity is returned when a request carries no owner header.
var ErrNoIdentity = errors.New("missing " + HeaderOwnerID + " header")

// FromRequest builds the acting identity from request headers.
func FromRequest(r *http.Request) (Actor, error) {
	raw := r.Header.Get(HeaderOwnerID)
	if raw == "" {
		return Actor{}, ErrNoIdentity
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Actor{}, errors.New(HeaderOwnerID + " is not a valid object id")
	}
	return Actor{UserID: id, Admin: r.Header.Get(HeaderAdmin) == "true"}, nil
}
