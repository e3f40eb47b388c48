package hosts

type Role string

const (
	RoleHost  Role = "HOST"
	RoleAdmin Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}
