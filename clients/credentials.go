package clients

import (
	"context"
	"net/http"
	"strings"
)

// Credentials are the visitor's auth material, forwarded verbatim upstream.
type Credentials struct {
	Cookie        string
	Authorization string
}

type credentialsKey struct{}

// WithCredentials attaches the visitor's credentials to ctx.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func credentialsFrom(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}

// CredentialsFromRequest copies the Authorization header and every cookie
// except those named in skip (the BFF's own cookies).
func CredentialsFromRequest(r *http.Request, skip ...string) Credentials {
	var kept []string
	for _, c := range r.Cookies() {
		if contains(skip, c.Name) {
			continue
		}
		kept = append(kept, c.Name+"="+c.Value)
	}
	return Credentials{
		Cookie:        strings.Join(kept, "; "),
		Authorization: r.Header.Get("Authorization"),
	}
}

func (c Credentials) apply(h http.Header) {
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
	if c.Authorization != "" {
		h.Set("Authorization", c.Authorization)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
