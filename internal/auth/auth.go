package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role string `json:"role"` // "student", "teacher" or "admin"
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 learner tokens.
type Service struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret), ttl: 8 * time.Hour, now: time.Now}
}

// Issue returns a signed token for sub. The platform normally issues these;
// the runner only needs it for local development and tests.
func (a *Service) Issue(sub, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "quizrunner",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Learner is the authenticated caller of a request.
type Learner struct {
	ID   string
	Role string
}

type learnerKey struct{}
type tokenKey struct{}

// NewContext stores the learner and the raw bearer token on ctx.
func NewContext(ctx context.Context, learner Learner, token string) context.Context {
	ctx = context.WithValue(ctx, learnerKey{}, learner)
	return context.WithValue(ctx, tokenKey{}, token)
}

func LearnerFromContext(ctx context.Context) (Learner, bool) {
	l, ok := ctx.Value(learnerKey{}).(Learner)
	return l, ok
}

// TokenFromContext returns the raw bearer token, or "".
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}
