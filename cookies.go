package authcore

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names used by the transport helpers.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// AuthCookies builds the access and refresh cookies for a login or refresh
// response. The refresh cookie is path-scoped to the refresh endpoint so
// browsers never send the long-lived token anywhere else. An empty refresh
// token (no rotation) yields only the access cookie.
func (e *Engine) AuthCookies(accessToken, refreshToken string) []*http.Cookie {
	now := e.now()
	cookies := []*http.Cookie{
		e.cookie(AccessCookieName, accessToken, "/", now.Add(e.config.JWT.AccessTTL)),
	}
	if refreshToken != "" {
		cookies = append(cookies,
			e.cookie(RefreshCookieName, refreshToken, e.refreshPath(), now.Add(e.config.JWT.RefreshTTL)),
		)
	}
	return cookies
}

// ClearAuthCookies builds expired cookies that remove both tokens from the
// client, for logout responses.
func (e *Engine) ClearAuthCookies() []*http.Cookie {
	expired := time.Unix(0, 0)
	access := e.cookie(AccessCookieName, "", "/", expired)
	access.MaxAge = -1
	refresh := e.cookie(RefreshCookieName, "", e.refreshPath(), expired)
	refresh.MaxAge = -1
	return []*http.Cookie{access, refresh}
}

func (e *Engine) refreshPath() string {
	return strings.TrimSuffix(e.config.Cookie.BasePath, "/") + "/auth/refresh"
}

func (e *Engine) cookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   e.config.Cookie.Secure,
		SameSite: e.config.Cookie.SameSite,
	}
}
