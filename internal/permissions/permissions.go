// Package permissions answers "can this principal perform this action on this
// resource" for every gated endpoint. All role and ownership rules live in the
// Decide table below so individual handlers never hard-code role strings.
package permissions

import "reviewhub/internal/models"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"
)

// Principal is the actor behind a request. The zero value is anonymous.
type Principal struct {
	UserID        string
	Role          string
	Authenticated bool
}

func Anonymous() Principal {
	return Principal{}
}

func ForUser(u *models.User) Principal {
	return Principal{UserID: u.ID, Role: u.Role, Authenticated: true}
}

// Resource identifies what is being acted on. OwnerID is the authoring user's
// id for reviews and comments; it is empty for catalog kinds and for creates,
// where there is no owned row yet.
type Resource struct {
	Kind    Kind
	OwnerID string
}

type Decision int

const (
	Allow Decision = iota
	// Unauthorized: the request carried no valid credential for a gated action.
	Unauthorized
	// Forbidden: a valid credential without the required role or ownership.
	Forbidden
)

// Decide evaluates the permission table. It is a pure predicate: no I/O, no
// side effects, so callers must resolve the resource (and its owner) first.
func Decide(p Principal, action Action, r Resource) Decision {
	switch r.Kind {
	case KindCategory, KindGenre, KindTitle:
		if action == ActionRead {
			return Allow
		}
		return requireRole(p, models.RoleAdmin)
	case KindReview, KindComment:
		if action == ActionRead {
			return Allow
		}
		if !p.Authenticated {
			return Unauthorized
		}
		if action == ActionCreate {
			return Allow
		}
		if p.UserID == r.OwnerID || p.Role == models.RoleModerator || p.Role == models.RoleAdmin {
			return Allow
		}
		return Forbidden
	case KindUser:
		// Full user administration, list and reads included. The self-profile
		// endpoint does not go through this branch.
		return requireRole(p, models.RoleAdmin)
	}
	return Forbidden
}

func requireRole(p Principal, role string) Decision {
	if !p.Authenticated {
		return Unauthorized
	}
	if p.Role != role {
		return Forbidden
	}
	return Allow
}
