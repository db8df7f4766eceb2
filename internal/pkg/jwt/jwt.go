package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidToken = errors.New("invalid or malformed access token")

// Service verifies access tokens issued by the identity service. Token
// issuance lives there; GenerateAccessToken exists for local tooling and tests.
type Service interface {
	GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error)
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

func (j *JWTService) GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":         actor.UserID,
		"staff_member_id": returnValueOrNil(actor.StaffMemberID),
		"organization_id": actor.OrganizationID,
		"company_id":      actor.CompanyID,
		"role":            string(actor.Role),
		"type":            "access",
		"exp":             expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func returnValueOrNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// ActorFromClaims maps verified access token claims to the caller.
func ActorFromClaims(claims map[string]interface{}) (user.Actor, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return user.Actor{}, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Actor{}, ErrInvalidToken
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return user.Actor{}, ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return user.Actor{}, ErrInvalidToken
	}

	actor := user.Actor{
		UserID:    userID,
		CompanyID: companyID,
		Role:      user.Role(role),
	}
	actor.StaffMemberID, _ = claims["staff_member_id"].(string)
	actor.OrganizationID, _ = claims["organization_id"].(string)

	return actor, nil
}

// ActorFromContext reads the caller from the token jwtauth.Verifier put on ctx.
func ActorFromContext(ctx context.Context) (user.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	return ActorFromClaims(claims)
}
