package identity

import (
	"net/http"
	"strings"
)

// Cookie names for the provider token pair. HttpOnly keeps scripts away from
// the credentials; Lax lets the OAuth redirect back into the site carry them.
const (
	AccessCookie  = "pr_access_token"
	RefreshCookie = "pr_refresh_token"
)

// Refresh tokens outlive access tokens by design; the provider rotates them
// on use.
const refreshCookieMaxAge = 30 * 24 * 60 * 60

func readCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookies returns expirations for the whole token pair.
func ClearSessionCookies() []*http.Cookie {
	return []*http.Cookie{
		clearCookie(AccessCookie),
		clearCookie(RefreshCookie),
	}
}
