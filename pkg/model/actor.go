package model

type Role string

const (
	RoleRequester Role = "requester"
	RoleOperator  Role = "operator"
)

// Actor is the principal handed to the engine by the identity provider.
// The engine never authenticates it, it only checks the role.
type Actor struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator
}

func Anonymous() Actor {
	return Actor{Role: RoleRequester}
}

func Operator(id string) Actor {
	return Actor{ID: id, Role: RoleOperator}
}
