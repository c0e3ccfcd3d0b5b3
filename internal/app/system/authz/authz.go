// Package authz defines the capability model for engine operations.
//
// Every operation takes an explicit Actor instead of reading an ambient
// staff flag from request state. An administrator may act on another
// owner's namespace, but never merge two owners' trees: structural checks
// (same-owner parents, sibling uniqueness) apply to admins too.
package authz

import "go.mongodb.org/mongo-driver/bson/primitive"

// Actor identifies who is performing an operation and with what capability.
type Actor struct {
	UserID primitive.ObjectID
	Admin  bool
}

// Owner returns an actor acting as the given owner.
func Owner(userID primitive.ObjectID) Actor {
	return Actor{UserID: userID}
}

// Admin returns an actor with administrative capability.
func Admin(userID primitive.ObjectID) Actor {
	return Actor{UserID: userID, Admin: true}
}

// CanAccess reports whether the actor may operate on a node owned by ownerID.
func (a Actor) CanAccess(ownerID primitive.ObjectID) bool {
	return a.Admin || a.UserID == ownerID
}
