// Package auth verifies Firebase ID tokens and exposes the caller identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified caller.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Owns reports whether the identity may act on resources of email. Comparison ignores case.
func (i Identity) Owns(email string) bool {
	return i.Email != "" && strings.EqualFold(strings.TrimSpace(i.Email), strings.TrimSpace(email))
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

type firebaseClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// FirebaseVerifier checks RS256 ID tokens issued by securetoken.google.com for one project.
type FirebaseVerifier struct {
	projectID string
	keys      KeySource
	now       func() time.Time
}

var _ Verifier = (*FirebaseVerifier)(nil)

func NewFirebaseVerifier(projectID string, keys KeySource) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, keys: keys, now: time.Now}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	if rawToken == "" {
		return Identity{}, ErrMissingToken
	}
	claims := &firebaseClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token has no kid header")
			}
			return v.keys.PublicKey(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return Identity{UID: claims.Subject, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}

// TokenFromRequest reads the bearer token from the Authorization header, falling back to the token cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get(pkg.HeaderAuth); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrMissingToken
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie(pkg.CookieToken); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrMissingToken
}
