package auth

import (
	"net/http"
	"strings"

	"sheetbridge/apierr"
)

// TokenFromRequest extracts the bearer token from a request's Authorization
// header. The token is used verbatim as a Google access token; nothing here
// inspects or validates its contents.
func TokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apierr.MissingCredential("authorization header is required")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apierr.MalformedCredential("authorization header must be of the form 'Bearer <token>'")
	}

	return strings.TrimSpace(token), nil
}
