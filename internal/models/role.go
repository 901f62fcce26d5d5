package models

// Role is the portal role an identity claim resolves to
type Role string

const (
	RoleAdministrator     Role = "admin"
	RoleTeachingAssistant Role = "teachingassistant"
	RoleStudent           Role = "student"
	RoleTeacher           Role = "teacher"
)

// rosterTables maps each looked-up role to the table holding its roster.
// Administrators have no roster.
var rosterTables = map[Role]string{
	RoleTeachingAssistant: "teachingassistants",
	RoleStudent:           "students",
	RoleTeacher:           "teachers",
}

// Table returns the roster table for the role, or "" when the role has none
func (r Role) Table() string {
	return rosterTables[r]
}

// Valid reports whether r is one of the four known roles
func (r Role) Valid() bool {
	return r == RoleAdministrator || r.Table() != ""
}

// Classification is the outcome of classifying an identity claim
type Classification struct {
	Role  Role
	Email string
}

// RequiresLookup is false only for administrators, whose claim is trusted as-is
func (c Classification) RequiresLookup() bool {
	return c.Role != RoleAdministrator
}
