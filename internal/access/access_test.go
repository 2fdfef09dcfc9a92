package access

import (
	"testing"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDecide_RoleMatrix(t *testing.T) {
	rules := map[string]Rule{
		"any":        Allow(),
		"student":    Allow(models.RoleStudent),
		"instructor": Allow(models.RoleInstructor),
		"admin":      Allow(models.RoleAdmin),
		"teaching":   Allow(models.RoleInstructor, models.RoleAdmin),
	}

	for _, role := range models.Roles() {
		for name, rule := range rules {
			t.Run(string(role)+"/"+name, func(t *testing.T) {
				d := Decide(&models.User{ID: 1, Role: role}, rule)

				want := role == models.RoleAdmin || rule.permits(role)
				assert.Equal(t, want, d.Authorized())
				if want {
					assert.Empty(t, d.Redirect)
				} else {
					assert.Equal(t, StateUnauthorized, d.State)
					assert.Equal(t, HomePath, d.Redirect)
				}
			})
		}
	}
}

func TestDecide_NoUserAlwaysGoesToLogin(t *testing.T) {
	for _, rule := range []Rule{Allow(), Allow(models.RoleStudent), Allow(models.RoleInstructor, models.RoleAdmin)} {
		d := Decide(nil, rule)
		assert.Equal(t, StateUnauthorized, d.State)
		assert.Equal(t, LoginPath, d.Redirect)
	}
}

func TestDecide_UnknownRoleGoesToLogin(t *testing.T) {
	d := Decide(&models.User{ID: 1, Role: "superuser"}, Allow())
	assert.Equal(t, StateUnauthorized, d.State)
	assert.Equal(t, LoginPath, d.Redirect)
}

func TestDecide_StudentOnInstructorDashboard(t *testing.T) {
	rule := Allow(models.RoleInstructor)

	// без сохраненной сессии - на логин
	assert.Equal(t, LoginPath, Decide(nil, rule).Redirect)
	// вошедший студент - на главную
	assert.Equal(t, HomePath, Decide(&models.User{ID: 5, Role: models.RoleStudent}, rule).Redirect)
}

func TestPending(t *testing.T) {
	assert.Equal(t, StateUnknown, Pending().State)
	assert.Equal(t, "unknown", Pending().State.String())
}
