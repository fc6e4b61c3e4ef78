package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrMissingCompanyClaim = errors.New("company_id claim is missing or invalid")

type Service interface {
	GenerateAccessToken(userID string, companyID string, role string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues a token carrying the claims the payroll API reads.
// Tokens are normally issued by the HR application's auth service; this is
// used by tooling and tests.
func (j *JWTService) GenerateAccessToken(userID string, companyID string, role string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"role":       role,
		"type":       "access",
		"exp":        expiresAt,
	})
	return tokenString, expiresAt, err
}

// ContextWithClaims returns ctx carrying a verified-token equivalent with the
// given company and user. Used by background callers and tests.
func ContextWithClaims(ctx context.Context, companyID, userID string) (context.Context, error) {
	token := jwt.New()
	if err := token.Set("company_id", companyID); err != nil {
		return nil, err
	}
	if err := token.Set("user_id", userID); err != nil {
		return nil, err
	}
	if err := token.Set("type", "access"); err != nil {
		return nil, err
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}
