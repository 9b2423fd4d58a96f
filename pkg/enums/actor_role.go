package enums

// ActorRole identifies who performed an action. It also selects the seen flag.
type ActorRole string

const (
	ActorRoleAdmin   ActorRole = "admin"
	ActorRolePilot   ActorRole = "pilot"
	ActorRoleCompany ActorRole = "company"
	ActorRoleSystem  ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRolePilot,
	ActorRoleCompany,
	ActorRoleSystem,
}

func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	return oneOf(r, validActorRoles)
}

// TracksSeen reports whether the role owns a seen flag on bookings.
func (r ActorRole) TracksSeen() bool {
	return r == ActorRoleAdmin || r == ActorRolePilot || r == ActorRoleCompany
}

// SeenColumn returns the bookings column backing the role's seen flag.
func (r ActorRole) SeenColumn() (string, bool) {
	switch r {
	case ActorRoleAdmin:
		return "seen_by_admin", true
	case ActorRolePilot:
		return "seen_by_pilot", true
	case ActorRoleCompany:
		return "seen_by_company", true
	default:
		return "", false
	}
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	return parse("actor role", validActorRoles, value)
}
