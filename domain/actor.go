package domain

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used by scheduled jobs such as the overdue sweep.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanActFor reports whether the actor may operate on behalf of memberID:
// either it is that member or it is an admin.
func (a Actor) CanActFor(memberID string) bool {
	if a.ID == "" {
		return false
	}
	return a.IsAdmin() || a.ID == memberID
}

// RequireAdmin returns ErrForbidden unless the actor is an admin.
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// RequireSelfOrAdmin returns ErrForbidden unless CanActFor(memberID).
func (a Actor) RequireSelfOrAdmin(memberID string) error {
	if !a.CanActFor(memberID) {
		return ErrForbidden
	}
	return nil
}
