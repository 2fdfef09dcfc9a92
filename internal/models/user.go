package models

import (
	"fmt"
	"time"
)

// Role - закрытый набор ролей пользователя платформы.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

var roles = []Role{RoleStudent, RoleInstructor, RoleAdmin}

func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

func ParseRole(s string) (Role, error) {
	for _, r := range roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleInstructor:
		return "Instructor"
	case RoleAdmin:
		return "Admin"
	}
	return "Unknown"
}

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	DateJoined     time.Time `json:"date_joined"`
}

func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u *User) Is(role Role) bool {
	return u != nil && u.Role == role
}

// CanTeach - инструктор или администратор.
func (u *User) CanTeach() bool {
	return u.Is(RoleInstructor) || u.Is(RoleAdmin)
}

type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthResponse struct {
	Tokens AuthTokens `json:"tokens"`
	User   User       `json:"user"`
}
