package domain

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleClient    Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOrganizer || r == RoleClient
}

var roleRank = map[Role]int{
	RoleClient:    1,
	RoleOrganizer: 2,
	RoleAdmin:     3,
}

// AtLeast reports whether r carries at least the privileges of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}
