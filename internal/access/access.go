// Package access решает, пускать ли пользователя на страницу с ограничением по ролям.
package access

import "github.com/Aidensmirk/online-learning-platform/internal/models"

type State int

const (
	StateUnknown State = iota
	StateAuthorized
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Rule - набор ролей страницы. Пустой набор пускает любого вошедшего пользователя.
type Rule struct {
	Roles []models.Role
}

func Allow(roles ...models.Role) Rule {
	return Rule{Roles: roles}
}

func (r Rule) permits(role models.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type Decision struct {
	State    State
	Redirect string
}

func (d Decision) Authorized() bool {
	return d.State == StateAuthorized
}

// Pending - решение до проверки сессии.
func Pending() Decision {
	return Decision{State: StateUnknown}
}

func Decide(user *models.User, rule Rule) Decision {
	if user == nil {
		return Decision{State: StateUnauthorized, Redirect: LoginPath}
	}

	role, err := models.ParseRole(string(user.Role))
	if err != nil {
		return Decision{State: StateUnauthorized, Redirect: LoginPath}
	}

	if role == models.RoleAdmin || rule.permits(role) {
		return Decision{State: StateAuthorized}
	}

	return Decision{State: StateUnauthorized, Redirect: HomePath}
}
