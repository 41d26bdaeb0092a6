package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

// DevUserHeader names the caller when authentication is disabled.
const DevUserHeader = "X-User-ID"

// DevUser is the caller when authentication is disabled and no
// DevUserHeader is sent.
const DevUser = "local"

// Auth issues and verifies HS256 bearer tokens whose subject is the
// user id. A nil *Auth or an empty secret disables verification.
type Auth struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewAuth creates an Auth.
func NewAuth(secret, issuer string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (a *Auth) enabled() bool { return a != nil && len(a.secret) > 0 }

// Issue signs a token for userID.
func (a *Auth) Issue(userID string, now time.Time) (string, error) {
	if !a.enabled() {
		return "", errors.New("auth: no signing secret configured")
	}
	if userID == "" {
		return "", errors.New("auth: user id is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	return token.SignedString(a.secret)
}

// Verify checks a token and returns its subject.
func (a *Auth) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Middleware puts the caller's user id into the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() {
			user := r.Header.Get(DevUserHeader)
			if user == "" {
				user = DevUser
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "missing or malformed Authorization header", nil)
			return
		}
		user, err := a.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// UserFrom returns the authenticated user id.
func UserFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}
