// Package access decides who may see and change workshop-scoped resources.
//
// Every check takes the acting user explicitly; there is no ambient "current
// user". Unknown roles and workshops never match anything except an exact
// workshop string, so the checks fail closed.
package access

// Role is the acting user's role.
type Role string

const (
	RoleStudent    Role = "Student"
	RoleSupervisor Role = "Supervisor"
	RoleAdmin      Role = "Admin"
)

var knownRoles = map[Role]struct{}{
	RoleStudent:    {},
	RoleSupervisor: {},
	RoleAdmin:      {},
}

// ParseRole returns the role for s and whether it is one of the known roles.
// Unknown values are returned unchanged so callers can report them.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := knownRoles[r]
	return r, ok
}

// Workshop is an organizational unit that owns tools and tasks. All is only
// meaningful as a user assignment and grants every workshop.
type Workshop string

const (
	WorkshopAviation   Workshop = "Aviation"
	WorkshopMechanical Workshop = "Mechanical"
	WorkshopElectrical Workshop = "Electrical"
	WorkshopAll        Workshop = "All"
)

// Workshops lists the concrete workshops in display order.
var Workshops = []Workshop{WorkshopAviation, WorkshopMechanical, WorkshopElectrical}

// Known reports whether w is one of the named workshops or All.
func (w Workshop) Known() bool {
	return w == WorkshopAll || w.Concrete()
}

// Concrete reports whether w names a real workshop that can own resources.
func (w Workshop) Concrete() bool {
	switch w {
	case WorkshopAviation, WorkshopMechanical, WorkshopElectrical:
		return true
	}
	return false
}

// User is the session snapshot the checks are evaluated against.
type User struct {
	Role     Role
	Workshop Workshop
}

func (u User) unrestricted() bool {
	return u.Role == RoleAdmin || u.Workshop == WorkshopAll
}

// CanAccessWorkshop reports whether u may view resources of target. Admins
// and users assigned to All see everything; everyone else only an exact,
// case-sensitive match of their own workshop.
func CanAccessWorkshop(u User, target string) bool {
	if u.unrestricted() {
		return true
	}
	return string(u.Workshop) == target
}

// CanEditTool reports whether u may create or change tools of toolWorkshop.
// It currently applies the same rule as CanAccessWorkshop.
func CanEditTool(u User, toolWorkshop string) bool {
	if u.unrestricted() {
		return true
	}
	return string(u.Workshop) == toolWorkshop
}

// Scope returns the workshops u may see. all is true when u is unrestricted,
// in which case workshops is nil.
func Scope(u User) (workshops []Workshop, all bool) {
	if u.unrestricted() {
		return nil, true
	}
	return []Workshop{u.Workshop}, false
}

// CanSupervise reports whether u may countersign a checkout or check-in.
func CanSupervise(u User) bool {
	return u.Role == RoleSupervisor || u.Role == RoleAdmin
}

// CanManageUsers reports whether u may create, change or remove accounts.
func CanManageUsers(u User) bool {
	return u.Role == RoleAdmin
}
