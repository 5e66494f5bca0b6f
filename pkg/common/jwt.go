package common

import (
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// UserIDFromRequest returns the subject of the verified token in the request context
func UserIDFromRequest(r *http.Request) (string, error) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", fmt.Errorf("no token in context")
	}
	if token.Subject() == "" {
		return "", fmt.Errorf("subject not found in token claims")
	}
	return token.Subject(), nil
}

// RoleFromClaims reads the role claim
func RoleFromClaims(claims map[string]interface{}) string {
	role, _ := claims["role"].(string)
	return role
}
