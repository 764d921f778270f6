package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/response"
)

type ownerKey struct{}

// Auth resolves the calling owner for each request.
//
// With a secret configured, requests must carry an HS256 bearer token whose
// subject is the owner id. Websocket clients that cannot set headers may pass
// the token as the access_token query parameter. Without a secret every
// request runs as defaultOwner.
type Auth struct {
	secret       []byte
	defaultOwner string
}

// NewAuth creates the auth middleware.
func NewAuth(secret, defaultOwner string) *Auth {
	return &Auth{secret: []byte(secret), defaultOwner: defaultOwner}
}

// Enabled reports whether bearer tokens are required.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// Handler is the chi middleware.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), a.defaultOwner)))
			return
		}

		raw, err := bearerToken(r)
		if err != nil {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		owner, err := a.ParseOwner(raw)
		if err != nil {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// ParseOwner validates a signed token and returns its subject.
func (a *Auth) ParseOwner(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if tok := r.URL.Query().Get("access_token"); tok != "" {
			return tok, nil
		}
		return "", fmt.Errorf("Authorization header is required")
	}
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return "", fmt.Errorf("Invalid authorization header format")
	}
	return tok, nil
}

// WithOwner stores the owner id in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner id set by Auth.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}
