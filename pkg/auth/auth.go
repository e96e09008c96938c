// Package auth authenticates requests with bearer tokens signed by HMAC-SHA256.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apierr "github.com/opst/tabserve/pkg/api/types/errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims of tabserve tokens.
type Claims struct {
	jwt.RegisteredClaims

	// task ids the bearer can invoke. Empty means all tasks.
	Tasks []string `json:"tasks,omitempty"`
}

// Allows tells whether the bearer can invoke the task.
func (c *Claims) Allows(taskId string) bool {
	return len(c.Tasks) == 0 || slices.Contains(c.Tasks, taskId)
}

// Issue signs a token for subject, valid for ttl.
func Issue(key []byte, issuer string, subject string, ttl time.Duration, tasks ...string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Tasks: tasks,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Verify checks the token and returns its claims.
//
// When issuer is not empty, the token should be issued by it.
// Errors wrap ErrInvalidToken.
func Verify(key []byte, issuer string, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

// Bearer is a middleware authenticating requests with "Authorization: Bearer <token>".
//
// taskid query parameter of the request should be allowed by the token.
func Bearer(key []byte, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return apierr.Unauthorized("bearer token is required", nil)
			}

			claims, err := Verify(key, issuer, strings.TrimSpace(token))
			if err != nil {
				return apierr.Unauthorized("bearer token is not valid", err)
			}

			if taskId := c.QueryParam("taskid"); taskId != "" && !claims.Allows(taskId) {
				return apierr.Forbidden(
					fmt.Sprintf("task %s is not allowed for %s", taskId, claims.Subject), nil,
				)
			}
			return next(c)
		}
	}
}
