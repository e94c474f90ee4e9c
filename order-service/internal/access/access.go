// Package access decides which order operations an actor may perform.
package access

import (
	"errors"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleUser       Role = "u"
	RoleAdmin      Role = "a"
	RoleSuperAdmin Role = "s"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type Action string

const (
	ActionCreate    Action = "order:create"
	ActionRead      Action = "order:read"
	ActionUpdate    Action = "order:update"
	ActionDelete    Action = "order:delete"
	ActionCancel    Action = "order:cancel"
	ActionSetStatus Action = "order:set_status"
	ActionListAll   Action = "order:list_all"
	ActionHistory   Action = "order:history"
)

var knownActions = map[Action]struct{}{
	ActionCreate:    {},
	ActionRead:      {},
	ActionUpdate:    {},
	ActionDelete:    {},
	ActionCancel:    {},
	ActionSetStatus: {},
	ActionListAll:   {},
	ActionHistory:   {},
}

var ErrForbidden = errors.New("access denied")

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// Resource describes what an action targets. A nil OwnerID means the action is
// not about a single owned object.
type Resource struct {
	OwnerID *uuid.UUID
}

func OwnedBy(id uuid.UUID) Resource {
	return Resource{OwnerID: &id}
}

type Authorizer interface {
	Authorize(actor Actor, action Action, resource Resource) error
}
