package middleware

import (
	"context"
	"net/http"
)

const ThemeCookie = "dark_mode"

// Theme читает cookie темы; раньше это значение жило в localStorage.
func Theme(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dark := false
		if c, err := r.Cookie(ThemeCookie); err == nil {
			dark = c.Value == "true"
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), themeKey, dark)))
	})
}

func DarkMode(ctx context.Context) bool {
	dark, _ := ctx.Value(themeKey).(bool)
	return dark
}

func SetTheme(w http.ResponseWriter, dark bool) {
	value := "false"
	if dark {
		value = "true"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
}
