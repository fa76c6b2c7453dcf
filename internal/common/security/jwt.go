package security

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"leetlab/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

func GenerateToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     now.Add(config.AppConfig.JWTExp).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// TokenFromSessionCookie is a jwtauth token finder for the session cookie.
func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RawToken returns the token the verifier would have used: cookie first,
// then the Authorization bearer header.
func RawToken(r *http.Request) string {
	if tok := TokenFromSessionCookie(r); tok != "" {
		return tok
	}
	return strings.TrimSpace(jwtauth.TokenFromHeader(r))
}

// SessionCookie builds the cookie set at login/registration.
func SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.AppConfig.JWTExp.Seconds()),
		HttpOnly: true,
		Secure:   config.AppConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredSessionCookie clears the session cookie.
func ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   config.AppConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Helper functions to extract claims, can be used in middleware or services
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}

// GetExpiryFromClaims reads "exp". jwtauth decodes it as time.Time; plain
// MapClaims from golang-jwt carry a float64.
func GetExpiryFromClaims(claims jwt.MapClaims) (time.Time, error) {
	switch v := claims["exp"].(type) {
	case time.Time:
		return v, nil
	case float64:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	}
	return time.Time{}, errors.New("exp claim is missing")
}
