package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/user"
)

var contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// authenticate verifies credentials with the identity provider then loads
// the matching user record; accounts without a record cannot sign in.
func authenticate(ctx context.Context, email, pwd string, deps ServerDeps) (*Claims, error) {
	accountID, err := deps.Idp.Authenticate(ctx, email, pwd)
	if err != nil {
		return nil, errAuthenticationFailed
	}
	usr, err := deps.UserSvc.GetByID(ctx, accountID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by account id")
	}
	return GetUserClaims(deps.Conf, usr), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextToken(ctx echo.Context) (string, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		return token.Raw, nil
	}
	return "", errUnauthorized
}
