package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"heritage-api/apperr"
	"heritage-api/models"
	"heritage-api/policy"
)

const userKey = "user"

// Claims carries the user id in the subject; issue and expiry times come
// from the registered claims.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue creates a signed JWT for a given user
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies signature and expiry and returns the claims.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("Not authorized, token failed")
	}
	if claims.IssuedAt == nil {
		return nil, apperr.Unauthorized("Not authorized, token failed")
	}
	return claims, nil
}

// UserLookup resolves the user a token refers to.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Stale reports whether a token issued at iat predates the user's last
// credential change. Both sides are compared in whole seconds.
func Stale(user *models.User, iat time.Time) bool {
	if user.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < user.PasswordChangedAt.Unix()
}

// AuthRequired validates the JWT, loads the user and rejects tokens
// issued before the user's last password change.
func AuthRequired(issuer *TokenIssuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			RespondError(c, apperr.Unauthorized("Not authorized, no token"))
			return
		}
		claims, err := issuer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			RespondError(c, err)
			return
		}
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			RespondError(c, apperr.Unauthorized("Not authorized, token failed"))
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		if apperr.IsCode(err, apperr.CodeNotFound) {
			RespondError(c, apperr.Unauthorized("The user belonging to this token no longer exists"))
			return
		}
		if err != nil {
			RespondError(c, err)
			return
		}
		if Stale(user, claims.IssuedAt.Time) {
			RespondError(c, apperr.Unauthorized("User recently changed password. Please log in again"))
			return
		}
		if _, ok := models.ParseRole(string(user.Role)); !ok {
			RespondError(c, apperr.Forbidden("Account role is not recognised"))
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// AdminRequired enforces that the caller is an Admin or Super Admin
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.RequireAdmin(GetPrincipal(c)); err != nil {
			RespondError(c, err)
			return
		}
		c.Next()
	}
}

// GetUser returns the authenticated user. It panics outside AuthRequired.
func GetUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

// GetPrincipal returns the caller's identity and role. An unauthenticated
// context yields the zero Principal, which no policy grants anything.
func GetPrincipal(c *gin.Context) policy.Principal {
	v, ok := c.Get(userKey)
	if !ok {
		return policy.Principal{}
	}
	u := v.(*models.User)
	return policy.Principal{ID: u.ID, Role: u.Role}
}
